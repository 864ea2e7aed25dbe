package classifier

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ClassMetrics holds per-class evaluation scores.
type ClassMetrics struct {
	Class     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarises predictions against ground truth.
type Report struct {
	Accuracy    float64
	Classes     []ClassMetrics
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Confusion   [][]int // [true][predicted]
	Total       int
}

// Evaluate compares predicted codes with true codes. Precision of a class
// that was never predicted, and recall of a class that never occurs, are 0.
func Evaluate(yTrue, yPred []int, classes []string) *Report {
	k := len(classes)
	r := &Report{
		Classes:   make([]ClassMetrics, k),
		Confusion: make([][]int, k),
		Total:     len(yTrue),
	}
	for c := range r.Confusion {
		r.Confusion[c] = make([]int, k)
	}

	correct := 0
	for i := range yTrue {
		r.Confusion[yTrue[i]][yPred[i]]++
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	if r.Total > 0 {
		r.Accuracy = float64(correct) / float64(r.Total)
	}

	precision := make([]float64, k)
	recall := make([]float64, k)
	f1 := make([]float64, k)
	support := make([]float64, k)
	for c := range k {
		tp := float64(r.Confusion[c][c])
		var predicted, actual float64
		for o := range k {
			predicted += float64(r.Confusion[o][c])
			actual += float64(r.Confusion[c][o])
		}
		if predicted > 0 {
			precision[c] = tp / predicted
		}
		if actual > 0 {
			recall[c] = tp / actual
		}
		if precision[c]+recall[c] > 0 {
			f1[c] = 2 * precision[c] * recall[c] / (precision[c] + recall[c])
		}
		support[c] = actual
		r.Classes[c] = ClassMetrics{
			Class:     classes[c],
			Precision: precision[c],
			Recall:    recall[c],
			F1:        f1[c],
			Support:   int(actual),
		}
	}

	if k > 0 {
		r.MacroAvg = ClassMetrics{
			Class:     "macro avg",
			Precision: floats.Sum(precision) / float64(k),
			Recall:    floats.Sum(recall) / float64(k),
			F1:        floats.Sum(f1) / float64(k),
			Support:   r.Total,
		}
	}
	r.WeightedAvg = ClassMetrics{Class: "weighted avg", Support: r.Total}
	if total := floats.Sum(support); total > 0 {
		r.WeightedAvg.Precision = floats.Dot(precision, support) / total
		r.WeightedAvg.Recall = floats.Dot(recall, support) / total
		r.WeightedAvg.F1 = floats.Dot(f1, support) / total
	}
	return r
}

// String renders the report as a fixed-width table.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		width = max(width, len(c.Class))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	row := func(m ClassMetrics) {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, m.Class, m.Precision, m.Recall, m.F1, m.Support)
	}
	for _, c := range r.Classes {
		row(c)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	row(r.MacroAvg)
	row(r.WeightedAvg)
	return b.String()
}
