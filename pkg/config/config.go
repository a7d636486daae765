// Package config holds the injected settings shared by the CLI, the
// pipeline and the HTTP server.
//
// Settings are layered: [Default] gives the dashboard's historical layout
// relative to the working directory, an optional TOML file overrides it,
// and ICEBERGVIZ_* environment variables override both. [Load] applies the
// layers in that order and validates the result.
//
// Example file:
//
//	[paths]
//	base_shapefile_path = "/data/Iceberg-shapefiles"
//	base_melt_rate_path = "/data/Melt-rates"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/icebergviz/pkg/crs"
	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ICEBERGVIZ_"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheMongo = "mongo"
	CacheNone  = "none"
)

// CacheBackends lists the accepted cache backend names.
var CacheBackends = []string{CacheFile, CacheRedis, CacheMongo, CacheNone}

// Config is the complete application configuration.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Projection Projection `toml:"projection"`
	Normalize  Normalize  `toml:"normalize"`
	Cache      Cache      `toml:"cache"`
	Server     Server     `toml:"server"`
	Defaults   Defaults   `toml:"defaults"`
}

// Paths locates the input data.
type Paths struct {
	// BaseShapefilePath contains <SITE>/<early>-<later>/*.shp.
	BaseShapefilePath string `toml:"base_shapefile_path"`

	// BaseMeltRatePath contains <SITE>/<early>-<later>/<SITE>_<range>_iceberg_meltinfo.csv.
	BaseMeltRatePath string `toml:"base_melt_rate_path"`

	// GlacierLocationsPath is the CSV of glacier sites and coordinates.
	GlacierLocationsPath string `toml:"glacier_locations_path"`

	// DatePairingsPath is the CSV of icebergs observed per site.
	DatePairingsPath string `toml:"date_pairings_path"`
}

// Projection configures coordinate systems.
type Projection struct {
	// DefaultCRS is assigned to shapefiles without a .prj sidecar.
	DefaultCRS string `toml:"default_crs"`

	// WorkingCRS is the projected CRS areas and angles are measured in.
	WorkingCRS string `toml:"working_crs"`

	// DisplayCRS is the geographic CRS map output is written in.
	DisplayCRS string `toml:"display_crs"`
}

// Normalize configures shape normalization.
type Normalize struct {
	// AngleMean is "circular" or "arithmetic".
	AngleMean string `toml:"angle_mean"`
}

// Cache configures the artifact cache.
type Cache struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	TTL           Duration `toml:"ttl"`
}

// Server configures the HTTP server.
type Server struct {
	Addr           string   `toml:"addr"`
	RateLimit      int      `toml:"rate_limit"`
	RateWindow     Duration `toml:"rate_window"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Defaults are the selections used when a request names none.
type Defaults struct {
	Site      string `toml:"site"`
	DateRange string `toml:"date_range"`
	MapSite   string `toml:"map_site"`
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration matching the dashboard's original
// directory layout.
func Default() *Config {
	return &Config{
		Paths: Paths{
			BaseShapefilePath:    "Iceberg-shapefiles",
			BaseMeltRatePath:     "Melt-rates",
			GlacierLocationsPath: "Glacier-Locations.csv",
			DatePairingsPath:     "abbreviations-datepairings.csv",
		},
		Projection: Projection{
			DefaultCRS: crs.PolarStereographicNorth,
			WorkingCRS: crs.PolarStereographicNorth,
			DisplayCRS: crs.WGS84,
		},
		Normalize: Normalize{AngleMean: string(iceberg.DefaultAngleMean)},
		Cache: Cache{
			Backend:       CacheFile,
			MongoDatabase: "icebergviz",
			TTL:           Duration{7 * 24 * time.Hour},
		},
		Server: Server{
			Addr:           ":8080",
			RateLimit:      120,
			RateWindow:     Duration{time.Minute},
			AllowedOrigins: []string{"*"},
		},
		Defaults: Defaults{
			Site:      "KOG",
			DateRange: "20170611-20170713",
			MapSite:   "NOG",
		},
	}
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overrides fields from environment variables found by lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"SHAPEFILE_PATH", &c.Paths.BaseShapefilePath},
		{"MELT_RATE_PATH", &c.Paths.BaseMeltRatePath},
		{"GLACIER_LOCATIONS_PATH", &c.Paths.GlacierLocationsPath},
		{"DATE_PAIRINGS_PATH", &c.Paths.DatePairingsPath},
		{"DEFAULT_CRS", &c.Projection.DefaultCRS},
		{"WORKING_CRS", &c.Projection.WorkingCRS},
		{"DISPLAY_CRS", &c.Projection.DisplayCRS},
		{"ANGLE_MEAN", &c.Normalize.AngleMean},
		{"CACHE_BACKEND", &c.Cache.Backend},
		{"CACHE_DIR", &c.Cache.Dir},
		{"REDIS_ADDR", &c.Cache.RedisAddr},
		{"MONGO_URI", &c.Cache.MongoURI},
		{"MONGO_DATABASE", &c.Cache.MongoDatabase},
		{"ADDR", &c.Server.Addr},
		{"DEFAULT_SITE", &c.Defaults.Site},
		{"DEFAULT_DATE_RANGE", &c.Defaults.DateRange},
		{"MAP_SITE", &c.Defaults.MapSite},
	}
	for _, s := range strs {
		if v, ok := lookup(EnvPrefix + s.name); ok {
			*s.dst = v
		}
	}

	durs := []struct {
		name string
		dst  *Duration
	}{
		{"CACHE_TTL", &c.Cache.TTL},
		{"RATE_WINDOW", &c.Server.RateWindow},
	}
	for _, d := range durs {
		if v, ok := lookup(EnvPrefix + d.name); ok {
			if err := d.dst.UnmarshalText([]byte(v)); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, d.name)
			}
		}
	}

	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%sRATE_LIMIT", EnvPrefix)
		}
		c.Server.RateLimit = n
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"paths.base_shapefile_path", c.Paths.BaseShapefilePath},
		{"paths.base_melt_rate_path", c.Paths.BaseMeltRatePath},
		{"paths.glacier_locations_path", c.Paths.GlacierLocationsPath},
		{"paths.date_pairings_path", c.Paths.DatePairingsPath},
		{"projection.working_crs", c.Projection.WorkingCRS},
		{"projection.display_crs", c.Projection.DisplayCRS},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "%s is required", r.name)
		}
	}

	for _, ref := range []string{c.Projection.DefaultCRS, c.Projection.WorkingCRS, c.Projection.DisplayCRS} {
		if ref == "" {
			continue
		}
		if _, err := crs.Parse(ref); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "projection")
		}
	}
	if geo, _ := crs.Geographic(c.Projection.WorkingCRS); geo {
		return errors.New(errors.ErrCodeInvalidConfig, "projection.working_crs %s is geographic; areas need a projected CRS", c.Projection.WorkingCRS)
	}
	if geo, _ := crs.Geographic(c.Projection.DisplayCRS); !geo {
		return errors.New(errors.ErrCodeInvalidConfig, "projection.display_crs %s is projected; map output needs longitude/latitude", c.Projection.DisplayCRS)
	}
	if _, err := iceberg.ParseAngleMean(c.Normalize.AngleMean); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "normalize.angle_mean")
	}

	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	case CacheMongo:
		if c.Cache.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.mongo_uri is required for the mongo backend")
		}
		if c.Cache.MongoDatabase == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.mongo_database is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend: %q (must be one of: %s)",
			c.Cache.Backend, strings.Join(CacheBackends, ", "))
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}

	if c.Server.RateLimit < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "server.rate_window must be positive when rate_limit is set")
	}

	if err := errors.ValidateSiteID(c.Defaults.Site); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "defaults.site")
	}
	if err := errors.ValidateSiteID(c.Defaults.MapSite); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "defaults.map_site")
	}
	if _, _, err := errors.ValidateDateRange(c.Defaults.DateRange); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "defaults.date_range")
	}
	return nil
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
