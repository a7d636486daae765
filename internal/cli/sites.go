package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	areaio "github.com/matzehuels/icebergviz/pkg/io"
	"github.com/matzehuels/icebergviz/pkg/pipeline"
	"github.com/matzehuels/icebergviz/pkg/render"
	"github.com/matzehuels/icebergviz/pkg/source"
)

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
const headerRow = -1

// newTable returns a table in the CLI's border style.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// sitesCommand lists the sites that have shapefiles.
func (c *CLI) sitesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List glacier sites with iceberg shapefiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			catalog := source.NewCatalog(cfg.Paths.BaseShapefilePath)
			ids, err := catalog.Sites()
			if err != nil {
				return err
			}
			glaciers, err := source.LoadGlacierSites(cfg.Paths.GlacierLocationsPath)
			if err != nil {
				c.Logger.Warn("glacier locations unavailable", "error", err)
			}

			t := newTable("Site", "Name", "Region", "Lat", "Lon", "Ranges")
			for _, id := range ids {
				ranges, err := catalog.DateRanges(id)
				if err != nil {
					return err
				}
				row := []string{id, "", "", "", "", strconv.Itoa(len(ranges))}
				if g, err := source.FindSite(glaciers, id); err == nil {
					row[1], row[2] = g.Name, g.Region
					row[3], row[4] = fmt.Sprintf("%.3f", g.Lat), fmt.Sprintf("%.3f", g.Lon)
				}
				t.Row(row...)
			}
			t.StyleFunc(func(row, col int) lipgloss.Style {
				if row == headerRow {
					return tableHeaderStyle
				}
				if col == 0 {
					return StyleHighlight
				}
				return lipgloss.NewStyle()
			})
			fmt.Fprintln(c.Out, t.Render())
			if len(ids) > 0 {
				printNextStep("List date ranges", appName+" ranges "+ids[0])
			}
			return nil
		},
	}
}

// rangesCommand lists the date ranges of one site.
func (c *CLI) rangesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ranges <site>",
		Short: "List the date ranges of a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			catalog := source.NewCatalog(cfg.Paths.BaseShapefilePath)
			ranges, err := catalog.DateRanges(args[0])
			if err != nil {
				return err
			}
			if len(ranges) == 0 {
				printWarning("No date ranges for %s", args[0])
				return nil
			}

			t := newTable("Range", "Early", "Later", "Shapefiles")
			for _, r := range ranges {
				names, err := catalog.Shapefiles(args[0], r.ID)
				if err != nil {
					return err
				}
				t.Row(r.ID, r.Early, r.Later, strconv.Itoa(len(names)))
			}
			t.StyleFunc(func(row, col int) lipgloss.Style {
				if row == headerRow {
					return tableHeaderStyle
				}
				return lipgloss.NewStyle()
			})
			fmt.Fprintln(c.Out, t.Render())
			printNextStep("Show iceberg areas", fmt.Sprintf("%s areas %s %s", appName, args[0], ranges[0].ID))
			return nil
		},
	}
}

// areasOpts holds the flags of the areas command.
type areasOpts struct {
	csv       string
	ids       string
	angleMean string
	noCache   bool
}

// areasCommand prints the per-iceberg area table.
func (c *CLI) areasCommand() *cobra.Command {
	var opts areasOpts
	cmd := &cobra.Command{
		Use:   "areas [site] [range]",
		Short: "Show iceberg areas, sizes and quartiles",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, rangeID, err := c.siteAndRange(args)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), opts.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Execute(cmd.Context(), pipeline.Options{
				Site:      site,
				DateRange: rangeID,
				View:      pipeline.ViewTable,
				Formats:   []string{pipeline.FormatJSON, pipeline.FormatCSV},
				AngleMean: opts.angleMean,
				IDs:       parseList(opts.ids),
			})
			if err != nil {
				return err
			}

			var rows []areaio.Row
			if err := json.Unmarshal(res.Artifacts[pipeline.FormatJSON], &rows); err != nil {
				return fmt.Errorf("decode area table: %w", err)
			}
			fmt.Fprintln(c.Out, areaTable(rows))
			printWarnings(res.Warnings)

			if opts.csv != "" {
				if err := c.writeArtifact(opts.csv, res.Artifacts[pipeline.FormatCSV]); err != nil {
					return err
				}
				if opts.csv != "-" {
					printFile(opts.csv)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.csv, "csv", "", "also write the table as CSV to this file (- for stdout)")
	cmd.Flags().StringVar(&opts.ids, "ids", "", "comma-separated shapefile names to include")
	cmd.Flags().StringVar(&opts.angleMean, "angle-mean", "", "angle averaging: circular (default), arithmetic")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	return cmd
}

// areaTable renders area rows with quartile-colored labels.
func areaTable(rows []areaio.Row) string {
	t := newTable("Iceberg", "Date", "Quartile", "Area", "Width (m)", "Height (m)", "Angle (°)")
	for _, r := range rows {
		area := "-"
		if r.Area != nil {
			area = render.FormatArea(*r.Area)
		}
		t.Row(r.ID, r.CaptureDate, r.Quartile, area, num(r.Width), num(r.Height), num(r.DominantAngle))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == headerRow {
			return tableHeaderStyle
		}
		if col == 2 && row < len(rows) {
			return quartileStyle(rows[row].Quartile)
		}
		if col >= 3 {
			return StyleNumber
		}
		return lipgloss.NewStyle()
	})
	return t.Render()
}

func num(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
