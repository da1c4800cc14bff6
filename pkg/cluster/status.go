// Package cluster detects when a cluster's worker membership has settled so
// that a job's parallelism can be sized from it.
package cluster

import (
	"context"
	"fmt"
	"strings"
)

// ControllerState is the state reported by the cluster controller.
type ControllerState int

const (
	ControllerStarting ControllerState = iota
	ControllerRunning
	ControllerStopped
)

func (s ControllerState) String() string {
	switch s {
	case ControllerStarting:
		return "STARTING"
	case ControllerRunning:
		return "RUNNING"
	case ControllerStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// ParseControllerState is the inverse of String (case-insensitive).
func ParseControllerState(s string) (ControllerState, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STARTING":
		return ControllerStarting, nil
	case "RUNNING":
		return ControllerRunning, nil
	case "STOPPED":
		return ControllerStopped, nil
	default:
		return ControllerStarting, fmt.Errorf("%w: unknown controller state %q", ErrInvalidStatus, s)
	}
}

// Status is a read-only snapshot of the cluster as reported by the controller.
type Status struct {
	ControllerState ControllerState
	// WorkerCount is the number of workers that have reported in.
	WorkerCount int
	// MaxReduceTasks is the number of reduce slots across all workers.
	MaxReduceTasks int
}

func (s Status) String() string {
	return fmt.Sprintf("%s workers=%d reduce_slots=%d", s.ControllerState, s.WorkerCount, s.MaxReduceTasks)
}

// StatusProvider reports the current cluster status. Each call is a fresh poll.
type StatusProvider interface {
	Status(ctx context.Context) (Status, error)
}

// StatusProviderFunc adapts a function to StatusProvider.
type StatusProviderFunc func(ctx context.Context) (Status, error)

func (f StatusProviderFunc) Status(ctx context.Context) (Status, error) {
	return f(ctx)
}
