package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/icebergviz/pkg/errors"
)

const testPRJ = `PROJCS["WGS_84_NSIDC_Sea_Ice_Polar_Stereographic_North"]`

func touch(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func square(x0, y0, side float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x0 + side, Y: y0}, {X: x0 + side, Y: y0 + side}, {X: x0, Y: y0 + side}, {X: x0, Y: y0},
	}}
}

// fakeReader serves canned records.
type fakeReader struct {
	records []geom.Geom
	err     error
	closed  *atomic.Int32
}

func (r *fakeReader) Next() (geom.Geom, bool) {
	if len(r.records) == 0 {
		return nil, false
	}
	g := r.records[0]
	r.records = r.records[1:]
	return g, true
}

func (r *fakeReader) Err() error { return r.err }

func (r *fakeReader) Close() { r.closed.Add(1) }

// fakeOpener maps shapefile base names to records. Names missing from the
// map fail to open.
func fakeOpener(files map[string][]geom.Geom, closed *atomic.Int32) OpenFunc {
	return func(path string) (RecordReader, error) {
		recs, ok := files[filepath.Base(path)]
		if !ok {
			return nil, fmt.Errorf("corrupt header")
		}
		return &fakeReader{records: append([]geom.Geom(nil), recs...), closed: closed}, nil
	}
}

// newTree lays out a small dataset and returns its root.
func newTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	rng := filepath.Join(root, "KOG", "20170611-20170713")
	touch(t, filepath.Join(rng, "20170611-a.shp"), "")
	touch(t, filepath.Join(rng, "20170611-a.prj"), testPRJ+"\n")
	touch(t, filepath.Join(rng, "20170713-b.shp"), "")
	touch(t, filepath.Join(rng, "20170713-c.shp"), "")
	touch(t, filepath.Join(rng, "20170713-c.dbf"), "")
	touch(t, filepath.Join(rng, "notes.txt"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "KOG", "20150701-20150801"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "KOG", "figures"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "NOG"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	touch(t, filepath.Join(root, "README.md"), "")
	return root
}

func TestCatalogSites(t *testing.T) {
	c := NewCatalog(newTree(t))
	sites, err := c.Sites()
	require.NoError(t, err)
	assert.Equal(t, []string{"KOG", "NOG"}, sites)
}

func TestCatalogSitesMissingRoot(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "nope"))
	_, err := c.Sites()
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}

func TestCatalogDateRanges(t *testing.T) {
	c := NewCatalog(newTree(t))
	ranges, err := c.DateRanges("KOG")
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, DateRange{ID: "20150701-20150801", Early: "20150701", Later: "20150801"}, ranges[0])
	assert.Equal(t, "20170611-20170713", ranges[1].ID)

	empty, err := c.DateRanges("NOG")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = c.DateRanges("../etc")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSite))

	_, err = c.DateRanges("SEK")
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestCatalogShapefiles(t *testing.T) {
	c := NewCatalog(newTree(t))
	names, err := c.Shapefiles("KOG", "20170611-20170713")
	require.NoError(t, err)
	assert.Equal(t, []string{"20170611-a.shp", "20170713-b.shp", "20170713-c.shp"}, names)

	_, err = c.Shapefiles("KOG", "20170713-20170611")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidDateRange))

	_, err = c.Shapefiles("KOG", "20180101-20180201")
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestCatalogStamps(t *testing.T) {
	root := newTree(t)
	c := NewCatalog(root)
	before, err := c.Stamps("KOG", "20170611-20170713")
	require.NoError(t, err)
	assert.Len(t, before, 6)

	touch(t, filepath.Join(root, "KOG", "20170611-20170713", "20170713-b.shp"), "changed")
	after, err := c.Stamps("KOG", "20170611-20170713")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestCaptureDate(t *testing.T) {
	tests := map[string]string{
		"20170611-iceberg3.shp":           "20170611",
		"/data/KOG/x/20170713-a-b.shp":    "20170713",
		"nodash.shp":                      "nodash",
		"20170611_KOG_iceberg-12.shp":     "20170611_KOG_iceberg",
		filepath.Join("a", "b", "x-y.shp"): "x",
	}
	for in, want := range tests {
		assert.Equal(t, want, CaptureDate(in), in)
	}
}

func TestDateRangePeriod(t *testing.T) {
	r, err := ParseDateRange("20170611-20170713")
	require.NoError(t, err)
	assert.Equal(t, "early", r.Period("20170611-a.shp"))
	assert.Equal(t, "later", r.Period("20170713-a.shp"))
	assert.Equal(t, "", r.Period("20190101-a.shp"))
}

func TestLoadShapeSet(t *testing.T) {
	root := newTree(t)
	var closed atomic.Int32
	c := NewCatalog(root)
	c.Concurrency = 2
	c.Open = fakeOpener(map[string][]geom.Geom{
		"20170611-a.shp": {square(0, 0, 10)},
		"20170713-b.shp": {square(0, 0, 5), nil, square(100, 100, 5)},
	}, &closed)

	set, err := c.LoadShapeSet(context.Background(), "KOG", "20170611-20170713", nil)
	require.NoError(t, err)
	require.Len(t, set.Shapes, 3)
	assert.Equal(t, "KOG", set.Site)
	assert.Equal(t, "20170611-20170713", set.DateRange)

	a := set.Shapes[0]
	assert.Equal(t, "20170611-a.shp", a.ID)
	assert.Equal(t, "20170611", a.CaptureDate)
	assert.Equal(t, testPRJ, a.CRS)
	assert.Equal(t, square(0, 0, 10), a.Geometry)

	b := set.Shapes[1]
	assert.Empty(t, b.CRS, "no .prj means undefined CRS")
	mp, ok := b.Geometry.(geom.MultiPolygon)
	require.True(t, ok, "records are combined, got %T", b.Geometry)
	assert.Len(t, mp, 2)

	c3 := set.Shapes[2]
	assert.Equal(t, "20170713-c.shp", c3.ID)
	assert.Nil(t, c3.Geometry)
	require.Len(t, set.Warnings, 1)
	assert.Equal(t, "20170713-c.shp", set.Warnings[0].ShapeID)
	assert.Equal(t, string(errors.ErrCodeInvalidInput), set.Warnings[0].Code)

	assert.Equal(t, int32(2), closed.Load())
}

func TestLoadShapeSetFilter(t *testing.T) {
	var closed atomic.Int32
	c := NewCatalog(newTree(t))
	c.Open = fakeOpener(map[string][]geom.Geom{
		"20170611-a.shp": {square(0, 0, 10)},
		"20170713-b.shp": {square(0, 0, 5)},
		"20170713-c.shp": {square(0, 0, 7)},
	}, &closed)

	set, err := c.LoadShapeSet(context.Background(), "KOG", "20170611-20170713", []string{"20170713-c.shp", "20170611-a.shp"})
	require.NoError(t, err)
	require.Len(t, set.Shapes, 2)
	assert.Equal(t, "20170611-a.shp", set.Shapes[0].ID)
	assert.Equal(t, "20170713-c.shp", set.Shapes[1].ID)

	_, err = c.LoadShapeSet(context.Background(), "KOG", "20170611-20170713", []string{"20170611-zz.shp"})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)

	_, err = c.LoadShapeSet(context.Background(), "KOG", "20170611-20170713", []string{"../secret.shp"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestLoadShapeSetEmptyAndNonPolygon(t *testing.T) {
	var closed atomic.Int32
	c := NewCatalog(newTree(t))
	c.Open = fakeOpener(map[string][]geom.Geom{
		"20170611-a.shp": {},
		"20170713-b.shp": {geom.Point{X: 1, Y: 2}},
		"20170713-c.shp": {square(0, 0, 1)},
	}, &closed)

	set, err := c.LoadShapeSet(context.Background(), "KOG", "20170611-20170713", nil)
	require.NoError(t, err)
	assert.Equal(t, geom.Polygon{}, set.Shapes[0].Geometry)
	assert.Nil(t, set.Shapes[1].Geometry)
	require.Len(t, set.Warnings, 1)
	assert.Equal(t, string(errors.ErrCodeInvalidGeometry), set.Warnings[0].Code)
}

func TestLoadShapeSetCanceled(t *testing.T) {
	var closed atomic.Int32
	c := NewCatalog(newTree(t))
	c.Open = fakeOpener(map[string][]geom.Geom{}, &closed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.LoadShapeSet(ctx, "KOG", "20170611-20170713", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
