package meltrate

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/icebergviz/pkg/errors"
)

const sampleCSV = `IcebergID,X_i,Y_i,Area,Draft,MeltRate,Density_i,Notes
a1,100,200,1000,50,0.10,917,ok
a2,110,210,2000,70,0.20,917,ok
a3,120,220,3000,,0.30,917,calved
a4,130,230,4000,110,0.41,917,ok
`

func TestPath(t *testing.T) {
	got := Path("Melt-rates", "KOG", "20170611", "20170713")
	assert.Equal(t, filepath.Join("Melt-rates", "KOG", "20170611-20170713", "KOG_20170611-20170713_iceberg_meltinfo.csv"), got)
}

func TestLoad(t *testing.T) {
	base := t.TempDir()
	path := Path(base, "KOG", "20170611", "20170713")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	tbl, err := Load(base, "KOG", "20170611-20170713")
	require.NoError(t, err)
	assert.Equal(t, []string{"IcebergID", "X_i", "Y_i", "Area", "Draft", "MeltRate", "Density_i", "Notes"}, tbl.Columns)
	assert.Len(t, tbl.Rows, 4)

	_, err = Load(base, "KOG", "20180101-20180202")
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	_, err = Load(base, "../KOG", "20170611-20170713")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSite))
}

func TestTableCSV(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	out, err := tbl.CSV()
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(out))
}

func TestDrop(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	dropped := tbl.Drop(UnwantedColumns...)
	assert.Equal(t, []string{"IcebergID", "Area", "Draft", "MeltRate", "Notes"}, dropped.Columns)
	assert.Equal(t, []string{"a3", "3000", "", "0.30", "calved"}, dropped.Rows[2])
	assert.Len(t, tbl.Columns, 8, "original is unchanged")
}

func TestCorrelate(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	m, err := Correlate(tbl.Drop(UnwantedColumns...))
	require.NoError(t, err)
	// IcebergID and Notes are text and drop out.
	require.Equal(t, []string{"Area", "Draft", "MeltRate"}, m.Labels)

	assert.Equal(t, 1.0, m.At(0, 0))
	// Area and Draft share rows a1, a2 and a4: (1000,50) (2000,70) (4000,110) lie on a line.
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-12)
	assert.Equal(t, m.At(0, 1), m.At(1, 0))
	assert.InDelta(t, 0.9995, m.At(0, 2), 1e-3)
}

func TestCorrelateConstantColumn(t *testing.T) {
	tbl, err := Read(strings.NewReader("A,B\n1,5\n2,5\n3,5\n"))
	require.NoError(t, err)
	m, err := Correlate(tbl)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.At(0, 1)))
	assert.True(t, math.IsNaN(m.At(1, 1)))
	assert.Equal(t, 1.0, m.At(0, 0))
}

func TestCorrelateNoNumericColumns(t *testing.T) {
	tbl, err := Read(strings.NewReader("Name\nx\ny\n"))
	require.NoError(t, err)
	_, err = Correlate(tbl)
	assert.True(t, errors.Is(err, errors.ErrCodeInsufficientData))
}

func TestReadEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}
