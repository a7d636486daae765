package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/icebergviz/pkg/cache"
	"github.com/matzehuels/icebergviz/pkg/config"
	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/meltrate"
	"github.com/matzehuels/icebergviz/pkg/observability"
	"github.com/matzehuels/icebergviz/pkg/render"
	"github.com/matzehuels/icebergviz/pkg/render/chart"
	"github.com/matzehuels/icebergviz/pkg/render/flow"
	"github.com/matzehuels/icebergviz/pkg/render/geo"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// FigureFormats lists the formats of the chart figures (correlogram,
// coverage, methods).
var FigureFormats = []string{FormatSVG, FormatPNG, FormatPDF}

// Figures builds the figures that do not depend on a shape set: site
// map, coverage chart, melt-rate tables and the methods flowchart.
type Figures struct {
	Paths  config.Paths
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewFigures creates a Figures reading from paths. Nil collaborators get
// the same defaults as NewRunner.
func NewFigures(paths config.Paths, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Figures {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Figures{
		Paths:  paths,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultArtifactTTL,
	}
}

// Sites loads the glacier site table.
func (f *Figures) Sites() ([]source.GlacierSite, error) {
	return source.LoadGlacierSites(f.Paths.GlacierLocationsPath)
}

// SiteMap encodes every glacier site as GeoJSON, flagging selected.
func (f *Figures) SiteMap(selected string) ([]byte, error) {
	sites, err := f.Sites()
	if err != nil {
		return nil, err
	}
	if selected != "" {
		if _, err := source.FindSite(sites, selected); err != nil {
			return nil, err
		}
	}
	return geo.Sites(sites, selected)
}

// MeltRates loads the melt-rate table of site and rangeID without the
// bookkeeping columns.
func (f *Figures) MeltRates(site, rangeID string) (*meltrate.Table, error) {
	t, err := meltrate.Load(f.Paths.BaseMeltRatePath, site, rangeID)
	if err != nil {
		return nil, err
	}
	return t.Drop(meltrate.UnwantedColumns...), nil
}

// Correlogram renders the correlation heatmap of the melt-rate table in
// format. Results are cached by the table file's stamp.
func (f *Figures) Correlogram(ctx context.Context, site, rangeID, format string) ([]byte, error) {
	if err := validateFigureFormat(format); err != nil {
		return nil, err
	}
	dr, err := source.ParseDateRange(rangeID)
	if err != nil {
		return nil, err
	}
	stamp, err := stampFile(meltrate.Path(f.Paths.BaseMeltRatePath, site, dr.Early, dr.Later))
	if err != nil {
		return nil, err
	}
	key := f.Keyer.TableKey(cache.Fingerprint(stamp), cache.TableKeyOpts{
		Kind: "correlogram." + format, Site: site, DateRange: rangeID,
	})
	return cached(ctx, f.Cache, "table", key, f.TTL, func() ([]byte, error) {
		t, err := f.MeltRates(site, rangeID)
		if err != nil {
			return nil, err
		}
		m, err := meltrate.Correlate(t)
		if err != nil {
			return nil, err
		}
		f.Logger.Debug("correlated melt rates", "site", site, "range", rangeID, "columns", len(m.Labels))
		svg := chart.Correlogram(m, chart.WithTitle(fmt.Sprintf("%s %s", site, rangeID)))
		return convert(ctx, svg, format)
	})
}

// Coverage renders the icebergs-per-site bar chart in format.
func (f *Figures) Coverage(ctx context.Context, format string) ([]byte, error) {
	if err := validateFigureFormat(format); err != nil {
		return nil, err
	}
	stamp, err := stampFile(f.Paths.DatePairingsPath)
	if err != nil {
		return nil, err
	}
	key := f.Keyer.TableKey(cache.Fingerprint(stamp), cache.TableKeyOpts{Kind: "coverage." + format})
	return cached(ctx, f.Cache, "table", key, f.TTL, func() ([]byte, error) {
		pairs, err := source.LoadDatePairings(f.Paths.DatePairingsPath)
		if err != nil {
			return nil, err
		}
		return convert(ctx, chart.Coverage(pairs), format)
	})
}

// Methods renders the research-method flowchart in format.
func (f *Figures) Methods(ctx context.Context, format string) ([]byte, error) {
	if err := validateFigureFormat(format); err != nil {
		return nil, err
	}
	key := f.Keyer.ResponseKey("methods", format)
	return cached(ctx, f.Cache, "response", key, f.TTL, func() ([]byte, error) {
		svg, err := flow.MethodsSVG(ctx, flow.Options{})
		if err != nil {
			return nil, err
		}
		return convert(ctx, svg, format)
	})
}

// Close releases the cache.
func (f *Figures) Close() error {
	if f.Cache != nil {
		return f.Cache.Close()
	}
	return nil
}

func validateFigureFormat(format string) error {
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "invalid format %q (must be one of: svg, png, pdf)", format)
}

func convert(ctx context.Context, svg []byte, format string) ([]byte, error) {
	switch format {
	case FormatPNG:
		return render.ToPNG(ctx, svg, DefaultPNGScale)
	case FormatPDF:
		return render.ToPDF(ctx, svg)
	}
	return svg, nil
}

func stampFile(path string) (source.FileStamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return source.FileStamp{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return source.FileStamp{}, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", path)
	}
	return source.FileStamp{Name: path, Size: info.Size(), ModTime: info.ModTime().UTC()}, nil
}

// cached returns the entry under key or builds, stores and returns it.
// Cache failures never fail the build.
func cached(ctx context.Context, c cache.Cache, keyType, key string, ttl time.Duration, build func() ([]byte, error)) ([]byte, error) {
	if data, hit, err := c.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	data, err := build()
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
	return data, nil
}
