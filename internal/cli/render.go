package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/icebergviz/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	view      string // gallery, quartiles, map or table
	mode      string // overlay mode for panel views
	formats   string // comma-separated output formats
	output    string // output file (single format) or base path (several)
	angleMean string // circular or arithmetic
	ids       string // comma-separated shapefile names
	noCache   bool   // bypass the artifact cache entirely
	refresh   bool   // re-render and overwrite cached artifacts
}

// renderCommand creates the render command.
//
// Defaults:
//   - view: quartiles
//   - mode: overlay_translated_only
//   - format: the view's first format (svg for panel views)
//   - output: <site>_<range>_<view>.<format> in the working directory
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{view: pipeline.DefaultView}

	cmd := &cobra.Command{
		Use:   "render [site] [range]",
		Short: "Render the icebergs of a site and date range",
		Long: `Render the iceberg outlines of one site and date range.

Views:
  gallery    one panel per iceberg, colored by capture date
  quartiles  four panels overlaying the icebergs of each area quartile
  map        GeoJSON of the outlines in WGS84
  table      per-iceberg area table

Site and range default to the configured defaults.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateView(opts.view); err != nil {
				return err
			}
			site, rangeID, err := c.siteAndRange(args)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), site, rangeID, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.view, "view", opts.view, "view: gallery, quartiles (default), map, table")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "overlay mode: overlay_translated_only (default), overlay_rotated_and_translated")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s), comma-separated (svg, png, pdf, json, csv, geojson)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, base path for several formats, or - for stdout")
	cmd.Flags().StringVar(&opts.angleMean, "angle-mean", "", "angle averaging: circular (default), arithmetic")
	cmd.Flags().StringVar(&opts.ids, "ids", "", "comma-separated shapefile names to include")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")

	return cmd
}

// runRender executes the pipeline and writes every artifact.
func (c *CLI) runRender(ctx context.Context, site, rangeID string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Site:      site,
		DateRange: rangeID,
		View:      opts.view,
		Mode:      opts.mode,
		Formats:   parseList(opts.formats),
		AngleMean: opts.angleMean,
		IDs:       parseList(opts.ids),
		Refresh:   opts.refresh,
		Logger:    logger,
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if opts.output == "-" && len(popts.Formats) > 1 {
		return fmt.Errorf("--output - needs exactly one format, got %d", len(popts.Formats))
	}

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s %s (%s)", site, rangeID, popts.View))
	spinner.Start()
	res, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("rendered", "view", popts.View, "formats", popts.Formats, "cached", res.CacheInfo.RenderHit)

	base := fmt.Sprintf("%s_%s_%s", site, rangeID, popts.View)
	var written []string
	for _, format := range popts.Formats {
		path := outputPath(opts.output, base, format, len(popts.Formats) > 1)
		if err := c.writeArtifact(path, res.Artifacts[format]); err != nil {
			return err
		}
		written = append(written, path)
	}
	if opts.output == "-" {
		return nil
	}

	printSuccess("Rendered %s %s", StyleHighlight.Render(site), rangeID)
	printStats(res.Stats.ShapeCount, res.Stats.MeasuredCount, len(res.Warnings), res.CacheInfo.RenderHit)
	printWarnings(res.Warnings)
	for _, path := range written {
		printFile(path)
	}
	return nil
}
