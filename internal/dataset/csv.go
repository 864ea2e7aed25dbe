package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tphakala/microbe-go/internal/errors"
)

// DefaultPath is the dataset file name used when none is configured.
const DefaultPath = "waterbodies_dataset.csv"

// Header holds the exact column names of the dataset file.
var Header = []string{
	"Temperature (°C)",
	"pH",
	"Dissolved O2 (mg/L)",
	"BOD (mg/L)",
	"Conductivity (µS/cm)",
	"Salinity (ppt)",
	"Nitrate-N Concentration (mg/L)",
	"Bioremediating Organism",
}

const labelColumn = 7

// WriteCSV writes the header and rows. Numbers are formatted with exactly two
// decimals.
func WriteCSV(w io.Writer, rows []SampleRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(Header))
	for i := range rows {
		for j, v := range rows[i].Features() {
			record[j] = strconv.FormatFloat(v, 'f', 2, 64)
		}
		record[labelColumn] = rows[i].Organism
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// MissingValuesError reports cells that were empty or could not be parsed,
// counted per column.
type MissingValuesError struct {
	Counts map[string]int
}

func (e *MissingValuesError) Error() string {
	parts := make([]string, 0, len(e.Counts))
	for _, col := range Header {
		if n := e.Counts[col]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", col, n))
		}
	}
	return "dataset has missing or invalid values (" + strings.Join(parts, ", ") + ")"
}

// ErrorCategory satisfies errors.CategorizedError.
func (e *MissingValuesError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryFileParsing
}

// ReadCSV parses a dataset written by WriteCSV. The header must match Header
// exactly. Every empty, unparsable or non-finite cell is counted and, if any
// exist, a *MissingValuesError is returned with no rows.
func ReadCSV(r io.Reader) ([]SampleRow, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to read header: %w", err)).
			Component("generator").
			Category(errors.CategoryFileParsing).
			Build()
	}
	for i, name := range Header {
		if strings.TrimPrefix(head[i], "\ufeff") != name {
			return nil, errors.Newf("unexpected column %d %q, want %q", i+1, head[i], name).
				Component("generator").
				Category(errors.CategoryFileParsing).
				Build()
		}
	}

	var rows []SampleRow
	missing := make(map[string]int)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New(fmt.Errorf("failed to parse line %d: %w", line, err)).
				Component("generator").
				Category(errors.CategoryFileParsing).
				Context("line", line).
				Build()
		}

		var values [labelColumn]float64
		for j := range labelColumn {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				missing[Header[j]]++
				continue
			}
			values[j] = v
		}
		label := strings.TrimSpace(record[labelColumn])
		if label == "" {
			missing[Header[labelColumn]]++
		}

		rows = append(rows, SampleRow{
			Temperature:  values[0],
			PH:           values[1],
			DissolvedO2:  values[2],
			BOD:          values[3],
			Conductivity: values[4],
			Salinity:     values[5],
			Nitrate:      values[6],
			Organism:     label,
		})
	}

	if len(missing) > 0 {
		return nil, &MissingValuesError{Counts: missing}
	}
	return rows, nil
}

// SaveFile writes rows to path. The file is written to a temporary sibling
// and renamed, so a failed write never leaves a partial dataset behind.
func SaveFile(path string, rows []SampleRow) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dataset-*.csv")
	if err != nil {
		return fileError(err, path)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	bw := bufio.NewWriter(tmp)
	if err := WriteCSV(bw, rows); err != nil {
		_ = tmp.Close()
		return fileError(err, path)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return fileError(err, path)
	}
	if err := tmp.Close(); err != nil {
		return fileError(err, path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fileError(err, path)
	}
	return nil
}

// LoadFile reads a dataset file.
func LoadFile(path string) ([]SampleRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fileError(err, path)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f)
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component("generator").
		Category(errors.CategoryFileIO).
		Context("path", path).
		FileContext(path, 0).
		Build()
}
