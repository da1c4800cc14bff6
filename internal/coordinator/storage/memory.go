package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/Rincaro/cascading.utils/internal/coordinator/core"
)

// InMemoryWorkerStore keeps workers in a concurrent map. Stored workers are
// copied on the way in and out so callers never share a pointer with the store.
type InMemoryWorkerStore struct {
	workers *xsync.Map[uuid.UUID, core.Worker]
}

var _ core.WorkerStore = (*InMemoryWorkerStore)(nil)

func NewInMemoryWorkerStore() *InMemoryWorkerStore {
	return &InMemoryWorkerStore{
		workers: xsync.NewMap[uuid.UUID, core.Worker](),
	}
}

func (s *InMemoryWorkerStore) AddWorker(worker *core.Worker) error {
	s.workers.Store(worker.ID, *worker)
	return nil
}

func (s *InMemoryWorkerStore) GetWorkerByID(id uuid.UUID) (*core.Worker, error) {
	worker, ok := s.workers.Load(id)
	if !ok {
		return nil, core.ErrWorkerNotFound
	}
	return &worker, nil
}

func (s *InMemoryWorkerStore) GetAllWorkers() ([]*core.Worker, error) {
	workers := make([]*core.Worker, 0, s.workers.Size())
	s.workers.Range(func(_ uuid.UUID, worker core.Worker) bool {
		workers = append(workers, &worker)
		return true
	})
	return workers, nil
}

func (s *InMemoryWorkerStore) UpdateWorkerHeartbeat(id uuid.UUID, timestamp time.Time) error {
	found := false
	s.workers.Compute(id, func(worker core.Worker, loaded bool) (core.Worker, xsync.ComputeOp) {
		if !loaded {
			return worker, xsync.CancelOp
		}
		found = true
		worker.LastHeartbeatAt = timestamp
		worker.Status = core.WorkerStatusActive
		return worker, xsync.UpdateOp
	})
	if !found {
		return core.ErrWorkerNotFound
	}
	return nil
}

func (s *InMemoryWorkerStore) RemoveWorker(id uuid.UUID) error {
	if _, loaded := s.workers.LoadAndDelete(id); !loaded {
		return core.ErrWorkerNotFound
	}
	return nil
}

// GetStaleWorkers returns the workers whose last heartbeat is before threshold.
func (s *InMemoryWorkerStore) GetStaleWorkers(threshold time.Time) ([]*core.Worker, error) {
	var stale []*core.Worker
	s.workers.Range(func(_ uuid.UUID, worker core.Worker) bool {
		if worker.LastHeartbeatAt.Before(threshold) {
			stale = append(stale, &worker)
		}
		return true
	})
	return stale, nil
}
