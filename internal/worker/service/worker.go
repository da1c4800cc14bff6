package service

import (
	"context"
	"errors"
	"time"

	"github.com/Rincaro/cascading.utils/internal/worker/core"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

const defaultHeartbeatInterval = 15 * time.Second

type workerService struct {
	client            core.CoordinatorClient
	addr              string
	reduceSlots       int
	heartbeatInterval time.Duration
	logger            logging.Logger
}

// NewWorkerService keeps the worker registered: it heartbeats every
// heartbeatInterval and registers again when the coordinator has forgotten it.
func NewWorkerService(
	client core.CoordinatorClient,
	addr string,
	reduceSlots int,
	heartbeatInterval time.Duration,
	logger logging.Logger,
) core.WorkerService {
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatInterval
	}
	return &workerService{
		client:            client,
		addr:              addr,
		reduceSlots:       reduceSlots,
		heartbeatInterval: heartbeatInterval,
		logger:            logger,
	}
}

// Run blocks until ctx is done.
func (w *workerService) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if interval := w.heartbeat(ctx); interval > 0 && interval != w.heartbeatInterval {
				w.logger.Info("Heartbeat interval changed",
					"from", w.heartbeatInterval.String(),
					"to", interval.String(),
				)
				w.heartbeatInterval = interval
				ticker.Reset(interval)
			}
		}
	}
}

// heartbeat returns the interval handed out by a new registration, or zero.
func (w *workerService) heartbeat(ctx context.Context) time.Duration {
	err := w.client.SendHeartbeat(ctx)
	switch {
	case err == nil:
		w.logger.Trace("Heartbeat sent successfully")
	case errors.Is(err, core.ErrNotRegistered):
		w.logger.Warn("Coordinator does not know this worker, registering again")
		interval, regErr := w.client.RegisterWorker(ctx, w.addr, w.reduceSlots)
		if regErr != nil {
			w.logger.Error("Failed to register worker", "error", regErr)
			return 0
		}
		w.logger.Info("Worker registered again")
		return interval
	case ctx.Err() != nil:
	default:
		w.logger.Error("Failed to send heartbeat", "error", err)
	}
	return 0
}
