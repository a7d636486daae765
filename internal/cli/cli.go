package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/icebergviz/pkg/buildinfo"
	"github.com/matzehuels/icebergviz/pkg/cache"
	"github.com/matzehuels/icebergviz/pkg/config"
	"github.com/matzehuels/icebergviz/pkg/iceberg"
	"github.com/matzehuels/icebergviz/pkg/pipeline"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "icebergviz"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output that is not logging (tables, paths,
	// artifacts written to stdout).
	Out io.Writer

	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Icebergviz compares Greenland iceberg outlines by size",
		Long: `Icebergviz loads iceberg outline shapefiles per glacier site and date range,
normalizes them into a common projected frame and renders them grouped
by area quartile, along with maps and melt-rate figures.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "TOML config file (ICEBERGVIZ_* environment variables override it)")

	root.AddCommand(c.sitesCommand())
	root.AddCommand(c.rangesCommand())
	root.AddCommand(c.areasCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.mapCommand())
	root.AddCommand(c.meltRatesCommand())
	root.AddCommand(c.coverageCommand())
	root.AddCommand(c.methodsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Config loads the configuration once per process.
func (c *CLI) Config() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
	c.config = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// openCache opens the configured cache backend, or a NullCache when
// caching is disabled.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	cc, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Cache.Backend, err)
	}
	return cc, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return c.runnerWithCache(cc)
}

// runnerWithCache creates a pipeline runner that stores artifacts in cc.
func (c *CLI) runnerWithCache(cc cache.Cache) (*pipeline.Runner, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	n, err := iceberg.NewNormalizer(cfg.Projection.DefaultCRS, cfg.Projection.WorkingCRS,
		iceberg.AngleMean(cfg.Normalize.AngleMean), nil)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(source.NewCatalog(cfg.Paths.BaseShapefilePath), n, cc, nil, c.Logger)
	r.DisplayCRS = cfg.Projection.DisplayCRS
	if cfg.Cache.TTL.Duration > 0 {
		r.TTL = cfg.Cache.TTL.Duration
	}
	return r, nil
}

// newFigures creates the side-figure builder for CLI use.
func (c *CLI) newFigures(ctx context.Context, noCache bool) (*pipeline.Figures, error) {
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return c.figuresWithCache(cc)
}

// figuresWithCache creates the side-figure builder on cc.
func (c *CLI) figuresWithCache(cc cache.Cache) (*pipeline.Figures, error) {
	cfg, err := c.Config()
	if err != nil {
		return nil, err
	}
	f := pipeline.NewFigures(cfg.Paths, cc, nil, c.Logger)
	if cfg.Cache.TTL.Duration > 0 {
		f.TTL = cfg.Cache.TTL.Duration
	}
	return f, nil
}

// siteAndRange resolves the optional <site> <range> arguments against the
// configured defaults.
func (c *CLI) siteAndRange(args []string) (site, rangeID string, err error) {
	cfg, err := c.Config()
	if err != nil {
		return "", "", err
	}
	site, rangeID = cfg.Defaults.Site, cfg.Defaults.DateRange
	if len(args) > 0 {
		site = args[0]
	}
	if len(args) > 1 {
		rangeID = args[1]
	}
	return site, rangeID, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseList splits a comma-separated flag value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// outputPath picks the file for one artifact. An explicit output is used
// as is for a single format and as a base path for several; otherwise the
// name is derived from base.
func outputPath(output, base, format string, multiple bool) string {
	if output == "" {
		return base + "." + format
	}
	if !multiple {
		return output
	}
	ext := filepath.Ext(output)
	if _, ok := pipeline.ContentTypes[strings.TrimPrefix(ext, ".")]; ok {
		output = strings.TrimSuffix(output, ext)
	}
	return output + "." + format
}

// writeArtifact writes data to path, or to c.Out when path is "-".
func (c *CLI) writeArtifact(path string, data []byte) error {
	if path == "-" {
		_, err := c.Out.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
