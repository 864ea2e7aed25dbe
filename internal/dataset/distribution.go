package dataset

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/tphakala/microbe-go/internal/errors"
)

// ClassCount is the number of rows carrying one organism label.
type ClassCount struct {
	Organism string
	Count    int
	Share    float64 // Count / total rows
}

// Distribution counts rows per organism, most frequent first with ties
// broken by name.
func Distribution(rows []SampleRow) []ClassCount {
	counts := make(map[string]int)
	for i := range rows {
		counts[rows[i].Organism]++
	}

	dist := make([]ClassCount, 0, len(counts))
	for organism, n := range counts {
		dist = append(dist, ClassCount{
			Organism: organism,
			Count:    n,
			Share:    float64(n) / float64(len(rows)),
		})
	}

	slices.SortFunc(dist, func(a, b ClassCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Organism, b.Organism)
	})
	return dist
}

// WriteReport prints the distribution as an aligned table with localized
// number formatting.
func WriteReport(w io.Writer, dist []ClassCount, tag language.Tag) error {
	p := message.NewPrinter(tag)

	width := len("Bioremediating Organism")
	total := 0
	for _, c := range dist {
		width = max(width, len(c.Organism))
		total += c.Count
	}

	if _, err := p.Fprintf(w, "%-*s %8s %8s\n", width, "Bioremediating Organism", "count", "share"); err != nil {
		return err
	}
	for _, c := range dist {
		if _, err := p.Fprintf(w, "%-*s %8d %7.2f%%\n", width, c.Organism, c.Count, c.Share*100); err != nil {
			return err
		}
	}
	_, err := p.Fprintf(w, "%-*s %8d\n", width, "total", total)
	return err
}

// PlotDistribution renders the distribution as a PNG (or any format gonum/plot
// infers from the extension) bar chart.
func PlotDistribution(dist []ClassCount, path string) error {
	if len(dist) == 0 {
		return errors.Newf("no rows to plot").
			Component("generator").
			Category(errors.CategoryValidation).
			Build()
	}

	p := plot.New()
	p.Title.Text = "Class distribution"
	p.Y.Label.Text = "Samples"

	values := make(plotter.Values, len(dist))
	names := make([]string, len(dist))
	for i, c := range dist {
		values[i] = float64(c.Count)
		names[i] = c.Organism
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = 0.5
	p.X.Tick.Label.XAlign = draw.XRight

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.New(err).
			Component("generator").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}
