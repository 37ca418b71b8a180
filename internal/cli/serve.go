package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orbital-fleet-economics/internal/logging"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/observability"
	"github.com/signalsfoundry/orbital-fleet-economics/internal/query"
	"github.com/signalsfoundry/orbital-fleet-economics/model"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		rf          rangeFlags
		addr        string
		metricsAddr string
		archivePath string
		warm        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gRPC query API",
		Long: `Serve fleetsim.query.v1.QueryService over gRPC, with the standard health
service and Prometheus metrics on a separate HTTP listener.

When an archive is configured, archived scenarios are loaded at start-up and
the store is archived again on shutdown.

Examples:
  fleetsim serve
  fleetsim serve --addr :50061 --metrics-addr :9464 --warm
  fleetsim serve --archive fleetsim.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr == "" {
				addr = a.cfg.Query.Address
			}
			if metricsAddr == "" && a.cfg.Metrics.Enabled {
				metricsAddr = a.cfg.Metrics.Address
			}
			base, err := rf.baseConfig()
			if err != nil {
				return err
			}

			store := a.newStore()
			runner := a.newRunner(store)

			arc, err := a.archive(archivePath)
			if err != nil {
				return err
			}
			if arc != nil {
				defer arc.Close()
				keys, err := arc.LoadInto(ctx, store)
				if err != nil {
					return err
				}
				a.log.Info(ctx, "restored archived scenarios", logging.Int("scenarios", len(keys)))
			}
			if warm {
				if _, err := runner.RunAll(ctx, base, model.AllScenarios...); err != nil {
					return err
				}
			}

			collector, err := observability.NewQueryCollector(a.registry)
			if err != nil {
				return fmt.Errorf("failed to initialise query metrics: %w", err)
			}
			srv := query.NewServer(runner, a.catalog, a.log,
				query.WithBaseConfig(base),
				query.WithForecastDefaults(query.ForecastDefaults{
					Replicates: a.cfg.Forecast.Replicates,
					Jitter:     a.cfg.Forecast.Jitter,
					Seed:       a.cfg.Forecast.Seed,
					Workers:    a.cfg.Forecast.Workers,
				}),
				query.WithForecastMetrics(a.metrics),
			)
			server := query.NewGRPCServer(srv, a.log, collector)

			metricsSrv := serveMetrics(ctx, metricsAddr, a.metrics, a.log)

			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", addr, err)
			}
			a.log.Info(ctx, "starting query gRPC server", logging.String("addr", lis.Addr().String()))

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- server.Serve(lis)
			}()

			select {
			case <-ctx.Done():
				a.log.Info(context.Background(), "shutting down query server")
				server.GracefulStop()
			case err = <-serveErr:
				a.log.Error(context.Background(), "gRPC server exited", logging.Err(err))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if metricsSrv != nil {
				_ = metricsSrv.Shutdown(shutdownCtx)
			}
			if arc != nil {
				if saveErr := arc.SaveStore(shutdownCtx, store, "serve"); saveErr != nil {
					a.log.Warn(shutdownCtx, "failed to archive store", logging.Err(saveErr))
				}
			}
			return err
		},
	}

	rf.register(cmd, nil)
	cmd.Flags().StringVar(&addr, "addr", "", "gRPC listen address (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "HTTP address for /metrics (default from config when enabled)")
	cmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive to restore from and save to (default from config)")
	cmd.Flags().BoolVar(&warm, "warm", false, "Run every scenario before serving")

	return cmd
}

func serveMetrics(ctx context.Context, addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(ctx, "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(ctx, "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
