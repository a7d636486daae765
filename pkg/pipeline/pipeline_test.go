package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"

	"github.com/matzehuels/icebergviz/pkg/cache"
	"github.com/matzehuels/icebergviz/pkg/config"
	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
	"github.com/matzehuels/icebergviz/pkg/source"
)

const testRange = "20170611-20170713"

// =============================================================================
// Fixtures
// =============================================================================

type stubReader struct {
	records []geom.Geom
}

func (r *stubReader) Next() (geom.Geom, bool) {
	if len(r.records) == 0 {
		return nil, false
	}
	g := r.records[0]
	r.records = r.records[1:]
	return g, true
}

func (r *stubReader) Err() error { return nil }
func (r *stubReader) Close()     {}

func square(x0, y0, side float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x0 + side, Y: y0}, {X: x0 + side, Y: y0 + side}, {X: x0, Y: y0 + side}, {X: x0, Y: y0},
	}}
}

// sides are the square side lengths of the test icebergs, keyed by file.
var sides = map[string]float64{
	"20170611-a.shp": 10,
	"20170611-b.shp": 20,
	"20170713-c.shp": 30,
	"20170713-d.shp": 40,
	"20170713-e.shp": 50,
}

// newCatalog lays out empty shapefiles under a temporary root and serves
// square polygons for them.
func newCatalog(t *testing.T) *source.Catalog {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "KOG", testRange)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name := range sides {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c := source.NewCatalog(root)
	c.Open = func(path string) (source.RecordReader, error) {
		side := sides[filepath.Base(path)]
		return &stubReader{records: []geom.Geom{square(-200000, -2200000, side)}}, nil
	}
	return c
}

func newNormalizer(t *testing.T) *iceberg.Normalizer {
	t.Helper()
	n, err := iceberg.NewNormalizer("EPSG:3413", "EPSG:3413", "", nil)
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

// =============================================================================
// Options
// =============================================================================

func TestValidateView(t *testing.T) {
	for _, v := range Views {
		if err := ValidateView(v); err != nil {
			t.Errorf("ValidateView(%q) = %v", v, err)
		}
	}
	err := ValidateView("tower")
	if !errors.Is(err, errors.ErrCodeInvalidView) {
		t.Errorf("ValidateView(tower) = %v, want INVALID_VIEW", err)
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		view    string
		format  string
		wantErr bool
	}{
		{ViewGallery, "svg", false},
		{ViewQuartiles, "pdf", false},
		{ViewQuartiles, "csv", true},
		{ViewMap, "geojson", false},
		{ViewMap, "svg", true},
		{ViewTable, "csv", false},
		{ViewTable, "SVG", true},
		{ViewTable, "", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.view, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q, %q) error = %v, wantErr %v", tt.view, tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q, %q) code = %s", tt.view, tt.format, errors.GetCode(err))
		}
	}

	if err := ValidateFormats(ViewGallery, nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Site: "KOG", DateRange: testRange, Formats: []string{" SVG", "svg", "json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.View != DefaultView {
		t.Errorf("View = %q, want %q", opts.View, DefaultView)
	}
	if opts.Mode != string(iceberg.DefaultMode) {
		t.Errorf("Mode = %q", opts.Mode)
	}
	if strings.Join(opts.Formats, ",") != "svg,json" {
		t.Errorf("Formats = %v, want deduped [svg json]", opts.Formats)
	}
	if opts.Dates().Early != "20170611" || opts.Dates().Later != "20170713" {
		t.Errorf("Dates = %+v", opts.Dates())
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if !opts.IsPanelView() {
		t.Error("quartiles is a panel view")
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestOptionsDefaultFormatPerView(t *testing.T) {
	for view, formats := range ViewFormats {
		opts := Options{Site: "KOG", DateRange: testRange, View: view}
		if err := opts.ValidateAndSetDefaults(); err != nil {
			t.Fatalf("%s: %v", view, err)
		}
		if len(opts.Formats) != 1 || opts.Formats[0] != formats[0] {
			t.Errorf("%s: Formats = %v, want [%s]", view, opts.Formats, formats[0])
		}
	}
}

func TestOptionsModeAliases(t *testing.T) {
	opts := Options{Site: "KOG", DateRange: testRange, Mode: "rotated"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.Mode != string(iceberg.ModeRotatedAndTranslated) {
		t.Errorf("Mode = %q", opts.Mode)
	}
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"bad site", Options{Site: "../KOG", DateRange: testRange}, errors.ErrCodeInvalidSite},
		{"bad range", Options{Site: "KOG", DateRange: "20170611"}, errors.ErrCodeInvalidDateRange},
		{"bad view", Options{Site: "KOG", DateRange: testRange, View: "tower"}, errors.ErrCodeInvalidView},
		{"bad mode", Options{Site: "KOG", DateRange: testRange, Mode: "spin"}, errors.ErrCodeInvalidMode},
		{"bad format", Options{Site: "KOG", DateRange: testRange, View: ViewMap, Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
		{"bad id", Options{Site: "KOG", DateRange: testRange, IDs: []string{"../x.shp"}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestArtifactKeyOptsDistinguishFormats(t *testing.T) {
	opts := Options{Site: "KOG", DateRange: testRange}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	k := cache.NewDefaultKeyer()
	a := k.ArtifactKey("h", opts.ArtifactKeyOpts("svg", "circular"))
	b := k.ArtifactKey("h", opts.ArtifactKeyOpts("png", "circular"))
	c := k.ArtifactKey("h", opts.ArtifactKeyOpts("svg", "arithmetic"))
	if a == b || a == c {
		t.Errorf("keys should differ: %s %s %s", a, b, c)
	}
}

// =============================================================================
// Runner
// =============================================================================

func TestRunnerQuartiles(t *testing.T) {
	r := NewRunner(newCatalog(t), newNormalizer(t), nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Site:      "KOG",
		DateRange: testRange,
		View:      ViewQuartiles,
		Formats:   []string{"svg", "json"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Stats.ShapeCount != 5 || res.Stats.MeasuredCount != 5 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if want := 100.0 + 400 + 900 + 1600 + 2500; res.Stats.TotalArea < want-1e-6 || res.Stats.TotalArea > want+1e-6 {
		t.Errorf("TotalArea = %v, want %v", res.Stats.TotalArea, want)
	}
	counts := iceberg.QuartileCounts(res.Set)
	for _, q := range iceberg.Quartiles {
		if counts[q] == 0 {
			t.Errorf("quartile %s is empty: %v", q, counts)
		}
	}
	if len(res.Overlay.Shapes) != 5 {
		t.Errorf("overlay shapes = %d, want 5", len(res.Overlay.Shapes))
	}
	if res.Overlay.MaxWidth < 50-1e-6 || res.Overlay.MaxHeight < 50-1e-6 {
		t.Errorf("overlay extent = %v x %v", res.Overlay.MaxWidth, res.Overlay.MaxHeight)
	}

	svg := string(res.Artifacts["svg"])
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, `id="quartile-Q4"`) {
		t.Errorf("svg artifact looks wrong: %.120s", svg)
	}

	var summary OverlaySummary
	if err := json.Unmarshal(res.Artifacts["json"], &summary); err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if summary.Mode != string(iceberg.DefaultMode) || len(summary.Shapes) != 5 {
		t.Errorf("summary = %+v", summary)
	}
	total := 0
	for _, n := range summary.Counts {
		total += n
	}
	if total != 5 {
		t.Errorf("summary counts = %v", summary.Counts)
	}
}

func TestRunnerMapDisplayCRS(t *testing.T) {
	r := NewRunner(newCatalog(t), newNormalizer(t), nil, nil, nil)
	opts := Options{Site: "KOG", DateRange: testRange, View: ViewMap}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	var fc struct {
		Features []struct {
			Geometry struct {
				Coordinates [][][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(res.Artifacts["geojson"], &fc); err != nil {
		t.Fatalf("geojson artifact: %v", err)
	}
	if len(fc.Features) != 5 {
		t.Fatalf("features = %d, want 5", len(fc.Features))
	}
	for _, pt := range fc.Features[0].Geometry.Coordinates[0] {
		if pt[1] < 60 || pt[1] > 90 {
			t.Errorf("latitude %v outside Greenland", pt[1])
		}
	}

	r.DisplayCRS = "EPSG:3413"
	if _, err := r.Execute(context.Background(), opts); err == nil {
		t.Error("Execute with projected display CRS should fail")
	}
}

func TestRunnerTableSubset(t *testing.T) {
	r := NewRunner(newCatalog(t), newNormalizer(t), nil, nil, nil)
	res, err := r.Execute(context.Background(), Options{
		Site:      "KOG",
		DateRange: testRange,
		View:      ViewTable,
		IDs:       []string{"20170611-a.shp", "20170713-e.shp"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(res.Artifacts["csv"])), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d, want header + 2:\n%s", len(lines), res.Artifacts["csv"])
	}
	if !strings.HasPrefix(lines[1], "20170611-a.shp,") {
		t.Errorf("first row = %q", lines[1])
	}
	// Two shapes are too few to group; the table renders them ungrouped.
	for _, s := range res.Set.Shapes {
		if s.Quartile != "" {
			t.Errorf("%s got quartile %s", s.ID, s.Quartile)
		}
	}
}

func TestRunnerQuartilesInsufficientData(t *testing.T) {
	r := NewRunner(newCatalog(t), newNormalizer(t), nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{
		Site:      "KOG",
		DateRange: testRange,
		View:      ViewQuartiles,
		IDs:       []string{"20170611-a.shp"},
	})
	if !errors.Is(err, errors.ErrCodeInsufficientData) {
		t.Errorf("err = %v, want INSUFFICIENT_DATA", err)
	}
}

func TestRunnerUnknownRange(t *testing.T) {
	r := NewRunner(newCatalog(t), newNormalizer(t), nil, nil, nil)
	_, err := r.Execute(context.Background(), Options{Site: "KOG", DateRange: "20200101-20200202"})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRunnerCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(newCatalog(t), newNormalizer(t), fc, nil, nil)
	ctx := context.Background()
	opts := Options{Site: "KOG", DateRange: testRange, View: ViewGallery, Formats: []string{"svg"}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first run should miss")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit")
	}
	if string(second.Artifacts["svg"]) != string(first.Artifacts["svg"]) {
		t.Error("cached artifact differs")
	}
	if second.CacheInfo.Fingerprint != first.CacheInfo.Fingerprint {
		t.Error("fingerprint changed between identical runs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}

	// A different angle mean is a different artifact.
	fourth, err := r.Execute(ctx, Options{Site: "KOG", DateRange: testRange, View: ViewGallery, AngleMean: "arithmetic"})
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.RenderHit {
		t.Error("arithmetic angle mean should miss")
	}
}

func TestRunnerCacheInvalidatedByInputChange(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	catalog := newCatalog(t)
	r := NewRunner(catalog, newNormalizer(t), fc, nil, nil)
	ctx := context.Background()
	opts := Options{Site: "KOG", DateRange: testRange, View: ViewTable}

	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}
	extra := filepath.Join(catalog.Root, "KOG", testRange, "20170611-a.prj")
	if err := os.WriteFile(extra, []byte("EPSG:3413"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("new sidecar should change the fingerprint")
	}
}

func TestSummarize(t *testing.T) {
	ov := iceberg.Overlay{
		Mode:      iceberg.ModeTranslatedOnly,
		MaxWidth:  12,
		MaxHeight: 8,
		Shapes: []iceberg.Placed{
			{ID: "a", Quartile: iceberg.Q1, Area: 4, Width: 2, Height: 2},
			{ID: "b", Quartile: iceberg.Q4, Area: 96, Rotation: 15, Width: 12, Height: 8},
		},
		Skipped: []string{"c"},
	}
	s := Summarize(ov)
	if s.Mode != "overlay_translated_only" {
		t.Errorf("Mode = %q", s.Mode)
	}
	if s.Counts["Q1"] != 1 || s.Counts["Q2"] != 0 || s.Counts["Q4"] != 1 {
		t.Errorf("Counts = %v", s.Counts)
	}
	if len(s.Shapes) != 2 || s.Shapes[1].Rotation != 15 || s.Shapes[1].Quartile != "Q4" {
		t.Errorf("Shapes = %+v", s.Shapes)
	}
	if len(s.Skipped) != 1 {
		t.Errorf("Skipped = %v", s.Skipped)
	}
}

// =============================================================================
// Figures
// =============================================================================

func newFigures(t *testing.T) *Figures {
	t.Helper()
	base := t.TempDir()
	paths := config.Paths{
		BaseMeltRatePath:     filepath.Join(base, "melt"),
		GlacierLocationsPath: filepath.Join(base, "sites.csv"),
		DatePairingsPath:     filepath.Join(base, "pairs.csv"),
	}
	write := func(path, body string) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(paths.GlacierLocationsPath, "Glacier_ID,Official_n,LAT,LON,Region\nKOG,Kangerlussuup,71.5,-52.2,CW\nNOG,Nioghalvfjerdsbrae,79.5,-22.0,NE\n")
	write(paths.DatePairingsPath, "Official_n,Corresponding icebergs\nKangerlussuup,12\nNioghalvfjerdsbrae,3\n")
	write(filepath.Join(paths.BaseMeltRatePath, "KOG", testRange, "KOG_"+testRange+"_iceberg_meltinfo.csv"),
		"X_i,Y_i,MeltRate,Draft,Area\n1,2,0.1,100,5\n1,2,0.2,200,9\n1,2,0.3,300,4\n1,2,0.4,400,7\n")

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewFigures(paths, fc, nil, nil)
}

func TestFiguresMeltRates(t *testing.T) {
	f := newFigures(t)
	table, err := f.MeltRates("KOG", testRange)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(table.Columns, ","); got != "MeltRate,Draft,Area" {
		t.Errorf("Columns = %s", got)
	}
	if len(table.Rows) != 4 {
		t.Errorf("Rows = %d", len(table.Rows))
	}

	_, err = f.MeltRates("NOG", testRange)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing table err = %v", err)
	}
}

func TestFiguresCorrelogram(t *testing.T) {
	f := newFigures(t)
	ctx := context.Background()
	svg, err := f.Correlogram(ctx, "KOG", testRange, "svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "MeltRate") || !strings.Contains(string(svg), "1.00") {
		t.Errorf("correlogram missing labels: %.200s", svg)
	}

	again, err := f.Correlogram(ctx, "KOG", testRange, "svg")
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != string(svg) {
		t.Error("cached correlogram differs")
	}

	if _, err := f.Correlogram(ctx, "KOG", testRange, "csv"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("csv format err = %v", err)
	}
	if _, err := f.Correlogram(ctx, "KOG", "bad", "svg"); !errors.Is(err, errors.ErrCodeInvalidDateRange) {
		t.Errorf("bad range err = %v", err)
	}
}

func TestFiguresCoverage(t *testing.T) {
	f := newFigures(t)
	svg, err := f.Coverage(context.Background(), "svg")
	if err != nil {
		t.Fatal(err)
	}
	s := string(svg)
	if strings.Index(s, `data-name="Nioghalvfjerdsbrae"`) > strings.Index(s, `data-name="Kangerlussuup"`) {
		t.Error("bars should be sorted ascending by count")
	}
}

func TestFiguresSiteMap(t *testing.T) {
	f := newFigures(t)
	data, err := f.SiteMap("NOG")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"selected":true`) {
		t.Errorf("selected site not flagged: %s", data)
	}
	if _, err := f.SiteMap("XYZ"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown site err = %v", err)
	}
}
