package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/Rincaro/cascading.utils/internal/coordinator/api/grpc"
	"github.com/Rincaro/cascading.utils/internal/coordinator/api/rest"
	"github.com/Rincaro/cascading.utils/internal/coordinator/core"
	"github.com/Rincaro/cascading.utils/internal/coordinator/service"
	"github.com/Rincaro/cascading.utils/internal/coordinator/storage"
	"github.com/Rincaro/cascading.utils/internal/metrics"
	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/cluster/natskv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadCoordinator(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinatorMetrics := metrics.NewCoordinator(prometheus.DefaultRegisterer)
	workerService := service.NewWorkerService(storage.NewInMemoryWorkerStore(), coordinatorMetrics, logger)
	healthChecker := service.NewWorkerHealthChecker(cfg.Health.CheckInterval, cfg.Health.StaleTimeout, workerService, logger)

	var controller *core.ClusterController
	opts := []core.ControllerOption{
		core.WithStatusObserver(coordinatorMetrics),
		// Status notifies the observer, which refreshes the gauges.
		core.WithStateListener(func(cluster.ControllerState) {
			if _, err := controller.Status(context.Background()); err != nil {
				logger.Warn("Failed to refresh cluster status", "error", err)
			}
		}),
	}
	var statePublisher *natskv.StatePublisher
	if cfg.NATS.Enabled {
		nc, kv, err := natskv.Connect(ctx, cfg.NATS.URL, cfg.NATS.Bucket, cfg.NATS.HeartbeatTTL, nats.Name("cascading-coordinator"))
		if err != nil {
			logger.Fatal("Failed to open NATS bucket", "error", err)
		}
		defer nc.Close()

		statePublisher = natskv.NewStatePublisher(kv,
			func() cluster.ControllerState { return controller.State() },
			natskv.StateRefreshInterval(cfg.NATS.HeartbeatTTL),
			logger,
		)
		opts = append(opts, core.WithStateListener(statePublisher.OnStateChange))
	}
	controller = core.NewClusterController(workerService, cfg.Cluster.StartupGrace, logger, opts...)

	grpcServer := grpc.NewServer(cfg.GRPC, workerService, controller, logger)
	restServer := rest.NewServer(cfg.REST, rest.NewAPI(controller, workerService, logger), prometheus.DefaultGatherer, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return controller.Run(ctx)
	})
	g.Go(func() error {
		return healthChecker.Run(ctx)
	})
	if statePublisher != nil {
		g.Go(func() error {
			return statePublisher.Run(ctx)
		})
	}
	g.Go(func() error {
		return grpcServer.Start()
	})
	g.Go(func() error {
		logger.Info("Starting REST server", "addr", cfg.REST.Addr)
		if err := restServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down coordinator")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.Stop()
		return restServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("Coordinator stopped with error", "error", err)
	}
	logger.Info("Coordinator stopped")
}
