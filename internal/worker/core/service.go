package core

import (
	"context"
	"errors"
	"time"
)

// ErrNotRegistered is returned by SendHeartbeat when the coordinator no
// longer knows the worker, e.g. after an eviction or a coordinator restart.
var ErrNotRegistered = errors.New("worker is not registered with the coordinator")

type CoordinatorClient interface {
	RegisterWorker(ctx context.Context, addr string, reduceSlots int) (time.Duration, error)
	SendHeartbeat(ctx context.Context) error
	Close() error
}

type WorkerService interface {
	Run(ctx context.Context) error
}
