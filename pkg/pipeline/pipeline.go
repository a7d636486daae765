// Package pipeline provides the iceberg visualization pipeline shared by
// the CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Decode the shapefiles of one site and date range
//  2. Normalize: Project into the working CRS, measure area and angle
//  3. Group: Assign area quartiles and build the overlay
//  4. Render: Generate output for one view in several formats
//
// Rendered artifacts are cached under a key built from the input file
// stamps and the options, so a modified shapefile is picked up on the
// next run without an explicit refresh.
//
// # Usage
//
//	runner := pipeline.NewRunner(catalog, normalizer, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Site:      "KOG",
//	    DateRange: "20170611-20170713",
//	    View:      pipeline.ViewQuartiles,
//	    Formats:   []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/icebergviz/pkg/cache"
	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultView is the view rendered when none is requested.
	DefaultView = ViewQuartiles

	// DefaultPNGScale is the rasterization factor for PNG output.
	DefaultPNGScale = 2.0
)

// Views.
const (
	ViewGallery   = "gallery"
	ViewQuartiles = "quartiles"
	ViewMap       = "map"
	ViewTable     = "table"
)

// Views lists every view in display order.
var Views = []string{ViewGallery, ViewQuartiles, ViewMap, ViewTable}

// Format constants for output formats.
const (
	FormatSVG     = "svg"
	FormatPNG     = "png"
	FormatPDF     = "pdf"
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatGeoJSON = "geojson"
)

// ViewFormats lists the formats each view can produce. The first one is
// the default.
var ViewFormats = map[string][]string{
	ViewGallery:   {FormatSVG, FormatPNG, FormatPDF, FormatJSON},
	ViewQuartiles: {FormatSVG, FormatPNG, FormatPDF, FormatJSON},
	ViewMap:       {FormatGeoJSON, FormatJSON},
	ViewTable:     {FormatCSV, FormatJSON},
}

// ContentTypes maps formats to MIME types.
var ContentTypes = map[string]string{
	FormatSVG:     "image/svg+xml",
	FormatPNG:     "image/png",
	FormatPDF:     "application/pdf",
	FormatJSON:    "application/json",
	FormatCSV:     "text/csv; charset=utf-8",
	FormatGeoJSON: "application/geo+json",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Site      string   `json:"site"`
	DateRange string   `json:"date_range"`
	View      string   `json:"view,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	Formats   []string `json:"formats,omitempty"`
	AngleMean string   `json:"angle_mean,omitempty"`
	IDs       []string `json:"ids,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	dates     source.DateRange
	validated bool
}

// Result contains the outputs of a pipeline run. Set and Overlay are
// empty when every artifact came from the cache.
type Result struct {
	// Set is the normalized shape set with quartile labels.
	Set iceberg.ShapeSet

	// Overlay holds the aligned shapes for panel views.
	Overlay iceberg.Overlay

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the artifacts came from the cache.
	CacheInfo CacheInfo

	// Warnings lists per-shape problems that did not stop the run.
	Warnings []iceberg.Warning
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ShapeCount    int
	MeasuredCount int
	TotalArea     float64
	LoadTime      time.Duration
	NormalizeTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache use for a run.
type CacheInfo struct {
	Fingerprint string // Hash of the input file stamps
	RenderHit   bool   // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateView checks that a view is valid.
func ValidateView(view string) error {
	if _, ok := ViewFormats[view]; !ok {
		return errors.New(errors.ErrCodeInvalidView, "invalid view: %q (must be one of: %s)", view, strings.Join(Views, ", "))
	}
	return nil
}

// ValidateFormat checks that view can produce format.
func ValidateFormat(view, format string) error {
	allowed := ViewFormats[view]
	if !slices.Contains(allowed, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q for view %s (must be one of: %s)", format, view, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid for view.
func ValidateFormats(view string, formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(view, f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateSiteID(o.Site); err != nil {
		return err
	}
	dr, err := source.ParseDateRange(o.DateRange)
	if err != nil {
		return err
	}
	o.dates = dr

	if o.View == "" {
		o.View = DefaultView
	}
	if err := ValidateView(o.View); err != nil {
		return err
	}
	mode, err := iceberg.ParseMode(o.Mode)
	if err != nil {
		return err
	}
	o.Mode = string(mode)
	if o.AngleMean != "" {
		m, err := iceberg.ParseAngleMean(o.AngleMean)
		if err != nil {
			return err
		}
		o.AngleMean = string(m)
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{ViewFormats[o.View][0]}
	}
	o.Formats = dedupe(o.Formats)
	if err := ValidateFormats(o.View, o.Formats); err != nil {
		return err
	}
	for _, id := range o.IDs {
		if err := errors.ValidateShapefileName(id); err != nil {
			return err
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Dates returns the parsed date range. Valid after ValidateAndSetDefaults.
func (o *Options) Dates() source.DateRange { return o.dates }

// IsPanelView reports whether the view draws the overlay.
func (o *Options) IsPanelView() bool {
	return o.View == ViewGallery || o.View == ViewQuartiles
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format, angleMean string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Site:      o.Site,
		DateRange: o.DateRange,
		View:      o.View,
		Mode:      o.Mode,
		Format:    format,
		AngleMean: angleMean,
		IDs:       o.IDs,
	}
}

// Title is the figure title for the run.
func (o *Options) Title() string {
	return fmt.Sprintf("%s %s", o.Site, o.DateRange)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
