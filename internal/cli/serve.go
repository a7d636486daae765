package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/icebergviz/internal/server"
	"github.com/matzehuels/icebergviz/pkg/observability"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the renderer over HTTP",
		Long: `Serve the iceberg views, maps and figures over HTTP.

The listen address, rate limit and CORS origins come from the [server]
section of the config. Prometheus metrics are exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.Config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewPrometheus(reg)
			observability.SetPipelineHooks(metrics)
			observability.SetCacheHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			cc, err := c.openCache(ctx, noCache)
			if err != nil {
				return err
			}
			runner, err := c.runnerWithCache(cc)
			if err != nil {
				cc.Close()
				return err
			}
			defer runner.Close()
			figures, err := c.figuresWithCache(cc)
			if err != nil {
				return err
			}

			printInfo("Serving on %s", StyleHighlight.Render(cfg.Server.Addr))
			printDetail("Cache: %s", cfg.Cache.Backend)
			return server.New(cfg, runner, figures, c.Logger, reg).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
