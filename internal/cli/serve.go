package cli

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/neighbour"
	"github.com/hupe1980/neighbour/metric"
	"github.com/hupe1980/neighbour/web"
)

func newServeCmd(a *app) *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lookup form and JSON API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			logger := cfg.Logger()

			var (
				mc      neighbour.MetricsCollector
				webOpts []func(o *web.Options)
			)
			if cfg.Server.Metrics {
				reg := registry()
				mc = metric.NewPrometheusCollector(reg)
				webOpts = append(webOpts, func(o *web.Options) {
					o.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
				})
			}

			eng, err := newEngine(ctx, cfg, logger, mc)
			if err != nil {
				return err
			}

			if warm {
				// Failures are reported per request; the server still starts.
				if err := eng.Warm(ctx); err != nil {
					logger.WarnContext(ctx, "initial load failed", "message", neighbour.UserMessage(err))
				}
			}

			webOpts = append(webOpts, func(o *web.Options) {
				o.Logger = logger.Logger
				o.RequestsPerSecond = cfg.Server.RequestsPerSecond
				o.Burst = cfg.Server.Burst
			})

			return web.New(eng, webOpts...).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().Float64("rate", 0, "max search requests per second (0 = unlimited)")
	cmd.Flags().BoolVar(&warm, "warm", true, "load artifacts before accepting requests")
	bind(a.v, "server.addr", cmd.Flags().Lookup("addr"))
	bind(a.v, "server.requests_per_second", cmd.Flags().Lookup("rate"))

	return cmd
}
