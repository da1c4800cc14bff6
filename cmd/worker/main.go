package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/internal/worker/api/grpc"
	"github.com/Rincaro/cascading.utils/internal/worker/service"
	"github.com/Rincaro/cascading.utils/pkg/cluster/natskv"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadWorker(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	workerID := uuid.New()

	client, err := grpc.NewCoordinatorClient(cfg.Coordinator.Addr, cfg.Coordinator.GRPC, workerID)
	if err != nil {
		logger.Fatal("Failed to create coordinator client", "error", err)
	}
	defer client.Close()

	regCtx, regCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer regCancel()

	heartbeatInterval, err := client.RegisterWorker(regCtx, cfg.Server.Addr, cfg.Server.ReduceSlots)
	if err != nil {
		logger.Fatal("Failed to register worker", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerService := service.NewWorkerService(client, cfg.Server.Addr, cfg.Server.ReduceSlots, heartbeatInterval, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return workerService.Run(ctx)
	})

	if cfg.NATS.Enabled {
		nc, kv, err := natskv.Connect(ctx, cfg.NATS.URL, cfg.NATS.Bucket, cfg.NATS.HeartbeatTTL, nats.Name("cascading-worker-"+workerID.String()))
		if err != nil {
			logger.Fatal("Failed to open NATS bucket", "error", err)
		}
		defer nc.Close()

		publisher := natskv.NewPublisher(kv, cfg.NATS.KeyPrefix, workerID.String(), cfg.Server.ReduceSlots, heartbeatInterval, logger)
		g.Go(func() error {
			return publisher.Run(ctx)
		})
	}

	logger.Info("Worker started",
		"worker_id", workerID.String(),
		"reduce_slots", cfg.Server.ReduceSlots,
		"heartbeat", heartbeatInterval.String(),
		"nats", cfg.NATS.Enabled,
	)

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "worker_id", workerID.String(), "error", err)
		os.Exit(1)
	}

	logger.Info("Shutting down worker", "worker_id", workerID.String())
}
