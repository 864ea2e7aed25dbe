package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tphakala/microbe-go/internal/errors"
)

// catalogFile is the on-disk YAML layout.
type catalogFile struct {
	Organisms []OrganismProfile `yaml:"organisms"`
}

// Read decodes a YAML catalog. Unknown keys are rejected so that typos in
// range names do not silently produce zero ranges.
func Read(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, errors.New(fmt.Errorf("failed to parse catalog: %w", err)).
			Component("catalog").
			Category(errors.CategoryFileParsing).
			Build()
	}
	return New(f.Organisms...), nil
}

// Write encodes the catalog as YAML.
func (c *Catalog) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(catalogFile{Organisms: c.Profiles()}); err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return enc.Close()
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("catalog").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return Read(bytes.NewReader(data))
}

// SaveFile writes the catalog to path via a temporary sibling file.
func (c *Catalog) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.yaml")
	if err != nil {
		return errors.New(err).
			Component("catalog").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return errors.New(err).Component("catalog").Category(errors.CategoryFileIO).Build()
	}
	if err := tmp.Close(); err != nil {
		return errors.New(err).Component("catalog").Category(errors.CategoryFileIO).Build()
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.New(err).Component("catalog").Category(errors.CategoryFileIO).Build()
	}
	return nil
}
