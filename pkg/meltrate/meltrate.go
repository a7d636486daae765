// Package meltrate reads per-range iceberg melt-rate tables and computes
// the correlation matrix between their numeric columns.
package meltrate

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/icebergviz/pkg/errors"
)

// UnwantedColumns are bookkeeping columns left out of the correlogram.
var UnwantedColumns = []string{
	"X_i", "Y_i", "TimeSeparation",
	"VerticalAdjustment_i", "VerticalAdjustment_f",
	"Density_i", "Density_f",
}

// Path returns the melt-rate CSV location for site and the range
// early-later under base.
func Path(base, site, early, later string) string {
	rangeID := early + "-" + later
	return filepath.Join(base, site, rangeID, fmt.Sprintf("%s_%s_iceberg_meltinfo.csv", site, rangeID))
}

// Table is a melt-rate CSV kept as text so it can be re-encoded unchanged.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Load reads the melt-rate table of site and rangeID under base.
func Load(base, site, rangeID string) (*Table, error) {
	if err := errors.ValidateSiteID(site); err != nil {
		return nil, err
	}
	early, later, err := errors.ValidateDateRange(rangeID)
	if err != nil {
		return nil, err
	}
	path := Path(base, site, early, later)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no melt-rate table for %s %s", site, rangeID)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a headed CSV table.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse melt-rate table")
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "melt-rate table is empty")
	}
	t := &Table{Columns: records[0]}
	for _, rec := range records[1:] {
		row := make([]string, len(t.Columns))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// CSV encodes the table.
func (t *Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Drop returns a copy of t without the named columns. Names that are not
// present are ignored.
func (t *Table) Drop(names ...string) *Table {
	var keep []int
	out := &Table{}
	for i, c := range t.Columns {
		if !slices.Contains(names, c) {
			keep = append(keep, i)
			out.Columns = append(out.Columns, c)
		}
	}
	for _, row := range t.Rows {
		r := make([]string, len(keep))
		for j, i := range keep {
			r[j] = row[i]
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// column returns the values of column i. ok is false when a non-missing
// value is not a number. Missing values are NaN.
func (t *Table) column(i int) (vals []float64, ok bool) {
	vals = make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		s := strings.TrimSpace(row[i])
		if isMissing(s) {
			vals[r] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		vals[r] = v
	}
	return vals, true
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "na", "n/a", "null":
		return true
	}
	return false
}

// Matrix is a symmetric correlation matrix with labelled axes.
type Matrix struct {
	Labels []string
	Values *mat.SymDense
}

// At returns the correlation between columns i and j. NaN means it is
// undefined.
func (m Matrix) At(i, j int) float64 { return m.Values.At(i, j) }

// Correlate returns the Pearson correlation between every pair of numeric
// columns of t. Non-numeric columns are skipped. Each pair uses the rows
// where both values are present; pairs with fewer than two such rows or
// with a constant column are NaN.
func Correlate(t *Table) (Matrix, error) {
	var (
		labels []string
		cols   [][]float64
	)
	for i, name := range t.Columns {
		vals, ok := t.column(i)
		if !ok {
			continue
		}
		labels = append(labels, name)
		cols = append(cols, vals)
	}
	if len(labels) == 0 {
		return Matrix{}, errors.New(errors.ErrCodeInsufficientData, "melt-rate table has no numeric columns")
	}

	n := len(labels)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, pairwise(cols[i], cols[j], i == j))
		}
	}
	return Matrix{Labels: labels, Values: sym}, nil
}

func pairwise(a, b []float64, diagonal bool) float64 {
	var x, y []float64
	for k := range a {
		if math.IsNaN(a[k]) || math.IsNaN(b[k]) {
			continue
		}
		x = append(x, a[k])
		y = append(y, b[k])
	}
	if len(x) < 2 || stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return math.NaN()
	}
	if diagonal {
		return 1
	}
	return stat.Correlation(x, y, nil)
}
