package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/AeroNyxNetwork/nodeboard/internal/watcher"
	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/config"
	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/monitoring"
	"github.com/AeroNyxNetwork/nodeboard/pkg/server"
	"github.com/AeroNyxNetwork/nodeboard/pkg/version"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration
	var listen string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll nodes unattended, exposing health and metrics endpoints",
		Long: `Watch runs a headless poller for unattended monitoring: it refreshes
the node and registration-code lists on an interval, logs node state
transitions, and serves /health and /metrics (Prometheus) on the listen
address. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLoggerWithComponent("watch")
			config.LoadEnv(logger)
			if !cmd.Flags().Changed("interval") {
				interval = config.GetEnvDuration("NODEBOARD_WATCH_INTERVAL", interval)
			}

			// The collector exists before the app so cache traffic feeds
			// Prometheus from the first request.
			mc := monitoring.NewMetricsCollector("nodeboard_watch", version.Version, version.GitCommit)
			cacheMetrics := mc.CreateCacheMetrics()

			a, err := newAuthedAppWith(appOptions{
				logger:         logger,
				cacheHooks:     cacheMetrics.Hooks(),
				circuitBreaker: true,
			})
			if err != nil {
				return err
			}

			hc := monitoring.NewHealthChecker("nodeboard-watch", version.Version)
			hc.AddCheck("credentials", monitoring.CredentialsHealthCheck(a.auth))
			hc.AddCheck("aeronyx_api", monitoring.APIReachabilityCheck("AeroNyx API", func(ctx context.Context) error {
				_, err := a.client.GetNodes(ctx, api.NodesQuery{})
				return err
			}))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			poller := watcher.NewPoller(a.fetcher, a.logger, interval, mc.CreateWatchMetrics())
			go poller.Start(ctx)

			router := server.SetupServiceRouter(a.logger, "nodeboard-watch", hc, mc)
			return server.Start(ctx, server.Config{
				Port:         listen,
				ServiceName:  "nodeboard-watch",
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
			}, router, a.logger)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "poll interval")
	cmd.Flags().StringVar(&listen, "listen", ":18099", "health/metrics listen address")
	return cmd
}
