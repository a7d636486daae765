package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/icebergviz/pkg/pipeline"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// browseCommand picks a site and date range interactively, then renders
// the quartile view.
func (c *CLI) browseCommand() *cobra.Command {
	opts := renderOpts{view: pipeline.ViewQuartiles}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Pick a site and date range interactively and render its quartiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			catalog := source.NewCatalog(cfg.Paths.BaseShapefilePath)
			items, err := siteItems(catalog, cfg.Paths.GlacierLocationsPath)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				printWarning("No sites under %s", cfg.Paths.BaseShapefilePath)
				return nil
			}

			final, err := tea.NewProgram(NewSiteListModel(items)).Run()
			if err != nil {
				return err
			}
			sm, ok := final.(SiteListModel)
			if !ok || sm.Selected == nil {
				printDetail("No selection made")
				return nil
			}
			site := sm.Selected.ID

			ranges, err := catalog.DateRanges(site)
			if err != nil {
				return err
			}
			rangeID := ranges[0].ID
			if len(ranges) > 1 {
				final, err := tea.NewProgram(NewRangeListModel(site, ranges)).Run()
				if err != nil {
					return err
				}
				rm, ok := final.(RangeListModel)
				if !ok || rm.Selected == nil {
					printDetail("No date range selected")
					return nil
				}
				rangeID = rm.Selected.ID
			}

			printInfo("Selected %s %s", StyleHighlight.Render(site), rangeID)
			return c.runRender(cmd.Context(), site, rangeID, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", "", "overlay mode: overlay_translated_only (default), overlay_rotated_and_translated")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s), comma-separated (svg, png, pdf, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	return cmd
}

// siteItems lists catalog sites with their glacier metadata. A missing
// glacier table only drops the metadata.
func siteItems(catalog *source.Catalog, glacierPath string) ([]SiteItem, error) {
	ids, err := catalog.Sites()
	if err != nil {
		return nil, err
	}
	glaciers, _ := source.LoadGlacierSites(glacierPath)

	items := make([]SiteItem, 0, len(ids))
	for _, id := range ids {
		ranges, err := catalog.DateRanges(id)
		if err != nil {
			return nil, fmt.Errorf("list ranges of %s: %w", id, err)
		}
		item := SiteItem{ID: id, Ranges: len(ranges)}
		if g, err := source.FindSite(glaciers, id); err == nil {
			item.Name, item.Region = g.Name, g.Region
		}
		items = append(items, item)
	}
	return items, nil
}
