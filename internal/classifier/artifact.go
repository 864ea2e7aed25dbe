package classifier

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/tphakala/microbe-go/internal/errors"
)

// EncoderFileName is the label encoder artifact written next to the model.
const EncoderFileName = "label_encoder.gob"

// ModelFileName returns the artifact name for an algorithm.
func ModelFileName(a Algorithm) string {
	return string(a) + "_model.gob"
}

func init() {
	gob.Register(&Forest{})
	gob.Register(&GradientBoosting{})
	gob.Register(&KNN{})
	gob.Register(&SVC{})
	gob.Register(&MinMaxScaler{})
	gob.Register(&StandardScaler{})
}

// Metadata describes how a model was trained.
type Metadata struct {
	Algorithm    Algorithm
	Scaler       ScalerKind
	Params       Params
	Features     []string
	Classes      []string
	Accuracy     float64
	TrainSamples int
	TestSamples  int
	TrainedAt    time.Time
	Duration     time.Duration
}

// Model bundles a trained classifier with the scaler its inputs need.
type Model struct {
	Classifier Classifier
	Scaler     Scaler
	Metadata   Metadata
}

// Predict scales one raw reading vector and returns the most probable class
// code with the full probability vector.
func (m *Model) Predict(reading []float64) (int, []float64, error) {
	if want := len(m.Metadata.Features); want > 0 && len(reading) != want {
		return 0, nil, errors.Newf("reading has %d features, want %d", len(reading), want).
			Component(componentName).
			Category(errors.CategoryPrediction).
			Build()
	}
	x := reading
	if m.Scaler != nil {
		x = m.Scaler.Transform(reading)
	}
	proba := m.Classifier.PredictProba(x)
	return floats.MaxIdx(proba), proba, nil
}

// SaveModel writes m to path in gob encoding.
func SaveModel(path string, m *Model) error {
	return writeGob(path, m)
}

// LoadModel reads a model written by SaveModel.
func LoadModel(path string) (*Model, error) {
	var m Model
	if err := readGob(path, &m, errors.CategoryModelLoad); err != nil {
		return nil, err
	}
	if m.Classifier == nil {
		return nil, errors.Newf("model artifact has no classifier").
			Component(componentName).
			Category(errors.CategoryModelLoad).
			Context("path", path).
			Build()
	}
	return &m, nil
}

// SaveFile writes the encoder to path in gob encoding.
func (e *LabelEncoder) SaveFile(path string) error {
	return writeGob(path, e)
}

// LoadLabelEncoder reads an encoder written by LabelEncoder.SaveFile.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	var e LabelEncoder
	if err := readGob(path, &e, errors.CategoryModelLoad); err != nil {
		return nil, err
	}
	return &e, nil
}

// writeGob encodes v into a temporary sibling of path and renames it into
// place.
func writeGob(path string, v any) error {
	wrap := func(err error) error {
		return errors.New(err).
			Component(componentName).
			Category(errors.CategoryFileIO).
			Context("path", path).
			FileContext(path, 0).
			Build()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*.gob")
	if err != nil {
		return wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	bw := bufio.NewWriter(tmp)
	if err := gob.NewEncoder(bw).Encode(v); err != nil {
		_ = tmp.Close()
		return wrap(fmt.Errorf("failed to encode %T: %w", v, err))
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return wrap(err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return wrap(err)
	}
	return nil
}

func readGob(path string, v any, category errors.ErrorCategory) error {
	f, err := os.Open(path)
	if err != nil {
		cat := errors.CategoryFileIO
		if os.IsNotExist(err) {
			cat = errors.CategoryNotFound
		}
		return errors.New(err).
			Component(componentName).
			Category(cat).
			Context("path", path).
			Build()
	}
	defer func() { _ = f.Close() }()

	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(v); err != nil {
		var size int64
		if info, statErr := f.Stat(); statErr == nil {
			size = info.Size()
		}
		return errors.New(fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)).
			Component(componentName).
			Category(category).
			Context("path", path).
			FileContext(path, size).
			Build()
	}
	return nil
}
