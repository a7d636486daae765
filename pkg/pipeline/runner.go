package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/icebergviz/pkg/cache"
	"github.com/matzehuels/icebergviz/pkg/crs"
	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
	"github.com/matzehuels/icebergviz/pkg/observability"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// DefaultArtifactTTL is used when the runner has no TTL set.
const DefaultArtifactTTL = 7 * 24 * time.Hour

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache      cache.Cache
	Keyer      cache.Keyer
	Logger     *log.Logger
	Catalog    *source.Catalog
	Normalizer *iceberg.Normalizer
	TTL        time.Duration

	// DisplayCRS is the geographic CRS map output is written in. Empty
	// means WGS84.
	DisplayCRS string
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(catalog *source.Catalog, n *iceberg.Normalizer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:      c,
		Keyer:      keyer,
		Logger:     logger,
		Catalog:    catalog,
		Normalizer: n,
		TTL:        DefaultArtifactTTL,
	}
}

// Execute runs the complete load → normalize → group → render pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.Logger.With("site", opts.Site, "range", opts.DateRange)
	normalizer := r.Normalizer.WithAngleMean(iceberg.AngleMean(opts.AngleMean))

	result := &Result{Artifacts: make(map[string][]byte)}

	stamps, err := r.Catalog.Stamps(opts.Site, opts.DateRange)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.CacheInfo.Fingerprint = cache.Fingerprint(stamps)

	// Try to get all formats from cache
	if !opts.Refresh {
		if artifacts, ok := r.cachedArtifacts(ctx, result.CacheInfo.Fingerprint, opts, string(normalizer.AngleMean)); ok {
			result.Artifacts = artifacts
			result.CacheInfo.RenderHit = true
			logger.Info("served from cache", "view", opts.View, "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.Site, opts.DateRange)
	set, err := r.Catalog.LoadShapeSet(ctx, opts.Site, opts.DateRange, opts.IDs)
	result.Stats.LoadTime = time.Since(loadStart)
	observability.Pipeline().OnLoadComplete(ctx, opts.Site, opts.DateRange, len(set.Shapes), result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	logger.Info("loaded shapefiles",
		"shapes", len(set.Shapes),
		"duration", result.Stats.LoadTime)

	// Stage 2: Normalize and group
	normStart := time.Now()
	observability.Pipeline().OnNormalizeStart(ctx, len(set.Shapes))
	set, err = r.normalize(normalizer, set, opts, logger)
	result.Stats.NormalizeTime = time.Since(normStart)
	observability.Pipeline().OnNormalizeComplete(ctx, len(set.Measured()), len(set.Warnings), result.Stats.NormalizeTime, err)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	result.Set = set
	result.Warnings = set.Warnings
	result.Stats.ShapeCount = len(set.Shapes)
	result.Stats.MeasuredCount = len(set.Measured())
	result.Stats.TotalArea = set.TotalArea()
	for _, w := range set.Warnings {
		logger.Warn("shape skipped", "shape", w.ShapeID, "code", w.Code, "reason", w.Message)
	}
	logger.Info("normalized shapes",
		"measured", result.Stats.MeasuredCount,
		"warnings", len(set.Warnings),
		"angle_mean", normalizer.AngleMean,
		"duration", result.Stats.NormalizeTime)

	if opts.IsPanelView() {
		ov, err := iceberg.BuildOverlay(set, iceberg.Mode(opts.Mode))
		if err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
		result.Overlay = ov
		logger.Debug("built overlay",
			"mode", ov.Mode,
			"max_width", ov.MaxWidth,
			"max_height", ov.MaxHeight,
			"skipped", len(ov.Skipped))
	}

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.View, opts.Formats)
	artifacts, err := Render(ctx, result, opts, normalizer, r.DisplayCRS)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.View, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	logger.Info("rendered outputs",
		"view", opts.View,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	for format, data := range artifacts {
		key := r.artifactKey(result.CacheInfo.Fingerprint, opts, format, string(normalizer.AngleMean))
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			logger.Warn("cache write failed", "format", format, "error", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return result, nil
}

// normalize projects and measures set, then assigns quartiles. Only the
// quartile view requires enough shapes to group; the other views render
// ungrouped shapes.
func (r *Runner) normalize(n *iceberg.Normalizer, set iceberg.ShapeSet, opts Options, logger *log.Logger) (iceberg.ShapeSet, error) {
	prepared, err := n.Prepare(set)
	if err != nil {
		return set, err
	}
	grouped, err := iceberg.AssignQuartiles(prepared)
	if err != nil {
		if opts.View == ViewQuartiles || !errors.Is(err, errors.ErrCodeInsufficientData) {
			return prepared, err
		}
		logger.Debug("quartiles not assigned", "reason", errors.UserMessage(err))
		return prepared, nil
	}
	return grouped, nil
}

// cachedArtifacts returns every requested format from the cache, or false
// if any is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, fingerprint string, opts Options, angleMean string) (map[string][]byte, bool) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.artifactKey(fingerprint, opts, format, angleMean)
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "artifact")
			return nil, false
		}
		observability.Cache().OnCacheHit(ctx, "artifact")
		artifacts[format] = data
	}
	return artifacts, true
}

// artifactKey keys one rendered format. Map output also depends on the
// display CRS.
func (r *Runner) artifactKey(fingerprint string, opts Options, format, angleMean string) string {
	ko := opts.ArtifactKeyOpts(format, angleMean)
	if opts.View == ViewMap {
		ko.DisplayCRS = crs.Canonical(r.DisplayCRS)
	}
	return r.Keyer.ArtifactKey(fingerprint, ko)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
