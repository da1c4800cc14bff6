package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

// StatusObserver is notified of every status the controller reports.
type StatusObserver interface {
	ClusterStatus(status cluster.Status)
}

type ControllerOption func(*ClusterController)

// WithStatusObserver registers o for every reported status.
func WithStatusObserver(o StatusObserver) ControllerOption {
	return func(c *ClusterController) { c.observer = o }
}

// WithStateListener calls fn after every controller state change.
func WithStateListener(fn func(cluster.ControllerState)) ControllerOption {
	return func(c *ClusterController) { c.listeners = append(c.listeners, fn) }
}

// ClusterController tracks the controller state and reports the cluster
// status computed from the active workers. It stays STARTING for the startup
// grace period so that workers have time to register before anyone sizes a
// job from the worker count.
type ClusterController struct {
	workers      WorkerService
	startupGrace time.Duration
	logger       logging.Logger
	observer     StatusObserver
	listeners    []func(cluster.ControllerState)

	mu    sync.RWMutex
	state cluster.ControllerState
}

var _ cluster.StatusProvider = (*ClusterController)(nil)

func NewClusterController(
	workers WorkerService,
	startupGrace time.Duration,
	logger logging.Logger,
	opts ...ControllerOption,
) *ClusterController {
	c := &ClusterController{
		workers:      workers,
		startupGrace: startupGrace,
		logger:       logger,
		state:        cluster.ControllerStarting,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run moves the controller to RUNNING after the startup grace period and to
// STOPPED once ctx is done.
func (c *ClusterController) Run(ctx context.Context) error {
	c.setState(cluster.ControllerStarting)

	timer := time.NewTimer(c.startupGrace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.setState(cluster.ControllerStopped)
		return nil
	case <-timer.C:
		c.setState(cluster.ControllerRunning)
	}

	<-ctx.Done()
	c.setState(cluster.ControllerStopped)
	return nil
}

func (c *ClusterController) State() cluster.ControllerState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *ClusterController) setState(state cluster.ControllerState) {
	c.mu.Lock()
	previous := c.state
	c.state = state
	c.mu.Unlock()

	if previous != state {
		c.logger.Info("Controller state changed", "from", previous.String(), "to", state.String())
	}
	for _, fn := range c.listeners {
		fn(state)
	}
}

// Status counts active workers and sums their reduce slots.
func (c *ClusterController) Status(ctx context.Context) (cluster.Status, error) {
	if err := ctx.Err(); err != nil {
		return cluster.Status{}, err
	}

	workers, err := c.workers.GetActiveWorkers()
	if err != nil {
		return cluster.Status{}, fmt.Errorf("failed to list workers: %w", err)
	}

	status := cluster.Status{ControllerState: c.State()}
	for _, w := range workers {
		status.WorkerCount++
		status.MaxReduceTasks += w.ReduceSlots
	}

	if c.observer != nil {
		c.observer.ClusterStatus(status)
	}
	return status, nil
}
