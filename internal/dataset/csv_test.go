package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/errors"
)

func TestWriteCSVFormat(t *testing.T) {
	t.Parallel()

	rows := []SampleRow{{
		Temperature:  25,
		PH:           7.1,
		DissolvedO2:  8.25,
		BOD:          10.5,
		Conductivity: 512,
		Salinity:     0.3,
		Nitrate:      15,
		Organism:     "Pseudomonas aeruginosa",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Temperature (°C),pH,Dissolved O2 (mg/L),BOD (mg/L),Conductivity (µS/cm),Salinity (ppt),Nitrate-N Concentration (mg/L),Bioremediating Organism", lines[0])
	assert.Equal(t, "25.00,7.10,8.25,10.50,512.00,0.30,15.00,Pseudomonas aeruginosa", lines[1])
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	rows, err := Generate(1000, catalog.Default(), NewRandomSource(11))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, SaveFile(path, rows))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i].Organism, loaded[i].Organism)
		assert.InDeltaSlice(t, rows[i].Features(), loaded[i].Features(), 1e-9, "row %d", i)
	}
}

func TestSaveFileLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, SaveFile(filepath.Join(dir, "data.csv"), nil))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data.csv", entries[0].Name())
}

func TestSaveFileMissingDirectory(t *testing.T) {
	t.Parallel()

	err := SaveFile(filepath.Join(t.TempDir(), "absent", "data.csv"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestReadCSVReportsMissingValues(t *testing.T) {
	t.Parallel()

	input := strings.Join(Header, ",") + "\n" +
		"25.00,7.00,,5.00,300.00,1.00,10.00,Bacillus cereus\n" +
		"25.00,n/a,8.00,,300.00,1.00,10.00,\n" +
		"25.00,7.00,8.00,5.00,300.00,1.00,10.00,Bacillus cereus\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, rows)

	var mv *MissingValuesError
	require.ErrorAs(t, err, &mv)
	assert.Equal(t, map[string]int{
		"pH":                      1,
		"Dissolved O2 (mg/L)":     1,
		"BOD (mg/L)":              1,
		"Bioremediating Organism": 1,
	}, mv.Counts)
	assert.True(t, errors.IsCategory(errors.New(err).Build(), errors.CategoryFileParsing))
}

func TestReadCSVCountsNonFiniteAsMissing(t *testing.T) {
	t.Parallel()

	input := strings.Join(Header, ",") + "\n" +
		"NaN,7.00,8.00,5.00,300.00,1.00,10.00,Bacillus cereus\n" +
		"25.00,+Inf,8.00,5.00,300.00,1.00,-inf,Bacillus cereus\n" +
		"25.00,7.00,8.00,5.00,1e400,1.00,10.00,Bacillus cereus\n"

	rows, err := ReadCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.Nil(t, rows)

	var mv *MissingValuesError
	require.ErrorAs(t, err, &mv)
	assert.Equal(t, map[string]int{
		Header[0]: 1,
		Header[1]: 1,
		Header[4]: 1,
		Header[6]: 1,
	}, mv.Counts)
}

func TestReadCSVRejectsWrongHeader(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("a,b,c,d,e,f,g,h\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected column 1")

	_, err = ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestReadCSVAcceptsByteOrderMark(t *testing.T) {
	t.Parallel()

	input := "\ufeff" + strings.Join(Header, ",") + "\n25.00,7.00,8.00,5.00,300.00,1.00,10.00,Bacillus cereus\n"
	rows, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bacillus cereus", rows[0].Organism)
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	var ee *errors.EnhancedError
	require.ErrorAs(t, err, &ee)
	ctx := ee.GetContext()
	assert.Equal(t, "csv", ctx["file_extension"])
	assert.Equal(t, "absolute-path", ctx["file_type"])
	assert.Equal(t, "generator", ee.GetComponent())
}
