package classifier

import (
	"slices"

	"github.com/tphakala/microbe-go/internal/errors"
)

// LabelEncoder maps class names to dense integer codes. Classes are kept in
// ascending lexical order so the encoding is independent of row order.
type LabelEncoder struct {
	Classes []string
}

// FitLabelEncoder builds an encoder from the distinct labels.
func FitLabelEncoder(labels []string) *LabelEncoder {
	classes := slices.Clone(labels)
	slices.Sort(classes)
	return &LabelEncoder{Classes: slices.Compact(classes)}
}

// Len returns the number of classes.
func (e *LabelEncoder) Len() int {
	return len(e.Classes)
}

// Encode returns the code for a single label.
func (e *LabelEncoder) Encode(label string) (int, error) {
	i, found := slices.BinarySearch(e.Classes, label)
	if !found {
		return 0, errors.Newf("unknown label %q", label).
			Component(componentName).
			Category(errors.CategoryValidation).
			Context("label", label).
			Build()
	}
	return i, nil
}

// Transform encodes every label.
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	codes := make([]int, len(labels))
	for i, label := range labels {
		code, err := e.Encode(label)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// Decode returns the label for a code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", errors.Newf("label code %d out of range [0, %d)", code, len(e.Classes)).
			Component(componentName).
			Category(errors.CategoryPrediction).
			Context("code", code).
			Build()
	}
	return e.Classes[code], nil
}
