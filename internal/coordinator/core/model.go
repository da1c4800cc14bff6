package core

import (
	"time"

	"github.com/google/uuid"
)

type WorkerStatus string

const (
	WorkerStatusActive   WorkerStatus = "ACTIVE"
	WorkerStatusInactive WorkerStatus = "INACTIVE"
)

// Worker is one member of the cluster. ReduceSlots is the number of reduce
// tasks it can run at the same time.
type Worker struct {
	ID              uuid.UUID
	Address         string
	ReduceSlots     int
	Status          WorkerStatus
	RegisteredAt    time.Time
	LastHeartbeatAt time.Time
}

func (w *Worker) IsActive() bool {
	return w.Status == WorkerStatusActive
}
