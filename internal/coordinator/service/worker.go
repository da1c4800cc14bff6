package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Rincaro/cascading.utils/internal/coordinator/core"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

var ErrInvalidReduceSlots = errors.New("reduce slots must not be negative")

// MembershipMetrics receives worker membership events.
type MembershipMetrics interface {
	WorkerRegistered()
	Heartbeat(known bool)
	WorkersEvicted(n int)
}

type nopMembershipMetrics struct{}

func (nopMembershipMetrics) WorkerRegistered()  {}
func (nopMembershipMetrics) Heartbeat(bool)     {}
func (nopMembershipMetrics) WorkersEvicted(int) {}

type workerService struct {
	workerStore core.WorkerStore
	metrics     MembershipMetrics
	logger      logging.Logger
	now         func() time.Time
}

func NewWorkerService(workerStore core.WorkerStore, metrics MembershipMetrics, logger logging.Logger) core.WorkerService {
	if metrics == nil {
		metrics = nopMembershipMetrics{}
	}
	return &workerService{
		workerStore: workerStore,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *workerService) RegisterWorker(worker *core.Worker) error {
	if worker.ReduceSlots < 0 {
		return ErrInvalidReduceSlots
	}
	s.logger.Debug("Registering worker",
		"worker_id", worker.ID,
		"address", worker.Address,
		"reduce_slots", worker.ReduceSlots,
	)
	now := s.now()
	worker.Status = core.WorkerStatusActive
	worker.RegisteredAt = now
	worker.LastHeartbeatAt = now
	if err := s.workerStore.AddWorker(worker); err != nil {
		return err
	}
	s.metrics.WorkerRegistered()
	return nil
}

func (s *workerService) RecordHeartbeat(workerID uuid.UUID) error {
	err := s.workerStore.UpdateWorkerHeartbeat(workerID, s.now())
	s.metrics.Heartbeat(err == nil)
	return err
}

func (s *workerService) RemoveWorker(workerID uuid.UUID) error {
	if err := s.workerStore.RemoveWorker(workerID); err != nil {
		return err
	}
	s.metrics.WorkersEvicted(1)
	return nil
}

func (s *workerService) GetStaleWorkers(timeout time.Duration) ([]*core.Worker, error) {
	threshold := s.now().Add(-timeout)
	return s.workerStore.GetStaleWorkers(threshold)
}

func (s *workerService) GetActiveWorkers() ([]*core.Worker, error) {
	workers, err := s.workerStore.GetAllWorkers()
	if err != nil {
		return nil, err
	}
	active := make([]*core.Worker, 0, len(workers))
	for _, w := range workers {
		if w.IsActive() {
			active = append(active, w)
		}
	}
	return active, nil
}
