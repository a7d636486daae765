package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/icebergviz/pkg/pipeline"
	"github.com/matzehuels/icebergviz/pkg/render/flow"
)

// figureFlags are shared by the chart commands.
type figureFlags struct {
	format  string
	output  string
	noCache bool
}

func (f *figureFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", pipeline.FormatSVG, "output format: svg, png, pdf")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file or - for stdout")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// writeFigure stores one figure and reports where it went.
func (c *CLI) writeFigure(f figureFlags, base string, data []byte) error {
	path := outputPath(f.output, base, f.format, false)
	if err := c.writeArtifact(path, data); err != nil {
		return err
	}
	if path != "-" {
		printFile(path)
	}
	return nil
}

// =============================================================================
// map
// =============================================================================

func (c *CLI) mapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Write GeoJSON maps of glacier sites or iceberg outlines",
	}
	cmd.AddCommand(c.mapSitesCommand())
	cmd.AddCommand(c.mapIcebergsCommand())
	return cmd
}

func (c *CLI) mapSitesCommand() *cobra.Command {
	var output, selected string
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Map every glacier site, highlighting one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			if selected == "" {
				selected = cfg.Defaults.MapSite
			}
			figures := pipeline.NewFigures(cfg.Paths, nil, nil, c.Logger)
			data, err := figures.SiteMap(selected)
			if err != nil {
				return err
			}
			path := outputPath(output, "glacier_sites", pipeline.FormatGeoJSON, false)
			if err := c.writeArtifact(path, data); err != nil {
				return err
			}
			if path != "-" {
				printSuccess("Mapped glacier sites (selected %s)", StyleHighlight.Render(selected))
				printFile(path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&selected, "site", "", "site to highlight (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or - for stdout")
	return cmd
}

func (c *CLI) mapIcebergsCommand() *cobra.Command {
	opts := renderOpts{view: pipeline.ViewMap, formats: pipeline.FormatGeoJSON}
	cmd := &cobra.Command{
		Use:   "icebergs [site] [range]",
		Short: "Map the iceberg outlines of a site and date range",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, rangeID, err := c.siteAndRange(args)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), site, rangeID, &opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or - for stdout")
	cmd.Flags().StringVar(&opts.ids, "ids", "", "comma-separated shapefile names to include")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	return cmd
}

// =============================================================================
// meltrates
// =============================================================================

func (c *CLI) meltRatesCommand() *cobra.Command {
	var flags figureFlags
	var correlogram bool
	cmd := &cobra.Command{
		Use:   "meltrates [site] [range]",
		Short: "Export the melt-rate table or its correlogram",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, rangeID, err := c.siteAndRange(args)
			if err != nil {
				return err
			}
			figures, err := c.newFigures(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer figures.Close()

			base := fmt.Sprintf("%s_%s_meltrates", site, rangeID)
			if correlogram {
				data, err := figures.Correlogram(cmd.Context(), site, rangeID, flags.format)
				if err != nil {
					return err
				}
				return c.writeFigure(flags, base+"_correlogram", data)
			}

			t, err := figures.MeltRates(site, rangeID)
			if err != nil {
				return err
			}
			data, err := t.CSV()
			if err != nil {
				return fmt.Errorf("encode melt rates: %w", err)
			}
			csvFlags := flags
			csvFlags.format = pipeline.FormatCSV
			if flags.output == "" {
				csvFlags.output = "-"
			}
			printInfo("%d rows, columns: %s", len(t.Rows), strings.Join(t.Columns, ", "))
			return c.writeFigure(csvFlags, base, data)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&correlogram, "correlogram", false, "render the correlation heatmap instead of the table")
	return cmd
}

// =============================================================================
// coverage
// =============================================================================

func (c *CLI) coverageCommand() *cobra.Command {
	var flags figureFlags
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Chart how many icebergs were observed per site",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			figures, err := c.newFigures(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer figures.Close()
			data, err := figures.Coverage(cmd.Context(), flags.format)
			if err != nil {
				return err
			}
			return c.writeFigure(flags, "coverage", data)
		},
	}
	flags.register(cmd)
	return cmd
}

// =============================================================================
// methods
// =============================================================================

func (c *CLI) methodsCommand() *cobra.Command {
	var flags figureFlags
	var list bool
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "Render the research method flowchart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				fmt.Fprintln(c.Out, flow.Labels(flow.Methods))
				return nil
			}
			figures, err := c.newFigures(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer figures.Close()
			data, err := figures.Methods(cmd.Context(), flags.format)
			if err != nil {
				return err
			}
			return c.writeFigure(flags, "methods", data)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&list, "list", false, "print the steps as text instead of rendering")
	return cmd
}
