package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rincaro/cascading.utils/internal/coordinator/core"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

// WorkerHealthChecker evicts workers that stopped heartbeating, so that the
// cluster status stops counting them.
type WorkerHealthChecker struct {
	checkInterval time.Duration
	staleTimeout  time.Duration
	workerService core.WorkerService
	logger        logging.Logger
}

func NewWorkerHealthChecker(
	checkInterval time.Duration,
	staleTimeout time.Duration,
	workerService core.WorkerService,
	logger logging.Logger,
) *WorkerHealthChecker {
	return &WorkerHealthChecker{
		checkInterval: checkInterval,
		staleTimeout:  staleTimeout,
		workerService: workerService,
		logger:        logger,
	}
}

// Run sweeps every check interval until ctx is done.
func (h *WorkerHealthChecker) Run(ctx context.Context) error {
	if h.checkInterval <= 0 {
		return fmt.Errorf("health check interval must be greater than 0, got %s", h.checkInterval)
	}

	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := h.Sweep(); err != nil {
				h.logger.Error("Health check failed", "error", err)
			}
		}
	}
}

// Sweep evicts every stale worker once and returns how many were evicted.
// A failed eviction does not stop the others.
func (h *WorkerHealthChecker) Sweep() (int, error) {
	stale, err := h.workerService.GetStaleWorkers(h.staleTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to get stale workers: %w", err)
	}

	var (
		evicted int
		errs    []error
	)
	for _, worker := range stale {
		if err := h.workerService.RemoveWorker(worker.ID); err != nil {
			errs = append(errs, fmt.Errorf("worker %s: %w", worker.ID, err))
			continue
		}
		evicted++
		h.logger.Info("Evicted stale worker",
			"worker_id", worker.ID,
			"address", worker.Address,
			"last_heartbeat", worker.LastHeartbeatAt,
		)
	}

	if evicted > 0 {
		h.logger.Debug("Health check evicted workers", "evicted", evicted, "stale", len(stale))
	}
	return evicted, errors.Join(errs...)
}
