package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/Rincaro/cascading.utils/pkg/logging"
)

// DefaultPollInterval is the wait between two polls of a live cluster.
const DefaultPollInterval = 10 * time.Second

// Detector polls a StatusProvider until the reported worker count is the same
// in two consecutive observations.
//
// Detect blocks with no upper bound on the number of polls. Bound it with a
// context deadline. A Detector holds no state between calls, so it may be
// shared by concurrent callers.
type Detector struct {
	provider     StatusProvider
	pollInterval time.Duration
	requireLive  bool
	clock        Clock
	logger       logging.Logger
	metrics      Metrics
}

type Option func(*Detector)

func WithPollInterval(d time.Duration) Option {
	return func(det *Detector) { det.pollInterval = d }
}

// WithRequireLiveCluster set to false accepts the first RUNNING observation
// without waiting, which is correct for local single-process execution.
func WithRequireLiveCluster(require bool) Option {
	return func(det *Detector) { det.requireLive = require }
}

func WithClock(c Clock) Option {
	return func(det *Detector) { det.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(det *Detector) { det.logger = l }
}

func WithMetrics(m Metrics) Option {
	return func(det *Detector) { det.metrics = m }
}

func NewDetector(provider StatusProvider, opts ...Option) *Detector {
	d := &Detector{
		provider:     provider,
		pollInterval: DefaultPollInterval,
		requireLive:  true,
		clock:        RealClock{},
		logger:       logging.NewNop(),
		metrics:      NopMetrics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectStableWorkerCount polls provider every pollInterval until two
// consecutive RUNNING observations agree and returns that worker count.
// With requireLiveCluster false the first RUNNING observation is returned
// without any wait.
func DetectStableWorkerCount(
	ctx context.Context,
	provider StatusProvider,
	pollInterval time.Duration,
	requireLiveCluster bool,
	opts ...Option,
) (int, error) {
	opts = append([]Option{
		WithPollInterval(pollInterval),
		WithRequireLiveCluster(requireLiveCluster),
	}, opts...)
	return NewDetector(provider, opts...).StableWorkerCount(ctx)
}

// Detect returns the status accepted as stable.
func (d *Detector) Detect(ctx context.Context) (Status, error) {
	if d.provider == nil {
		return Status{}, ErrNilProvider
	}
	if d.requireLive && d.pollInterval <= 0 {
		return Status{}, fmt.Errorf("%w: got %s", ErrInvalidPollInterval, d.pollInterval)
	}

	tracker := NewTracker(!d.requireLive)

	for {
		if err := ctx.Err(); err != nil {
			return Status{}, err
		}

		status, err := d.provider.Status(ctx)
		if err != nil {
			d.metrics.PollCompleted(status.ControllerState, err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Status{}, ctxErr
			}
			return Status{}, fmt.Errorf("%w: %w", ErrProviderFailure, err)
		}
		d.metrics.PollCompleted(status.ControllerState, nil)

		obs := tracker.Observe(status)
		switch {
		case obs.Phase == PhaseStable:
			d.logger.Debug("Cluster status is stable",
				"controller_state", status.ControllerState.String(),
				"worker_count", status.WorkerCount,
				"max_reduce_tasks", status.MaxReduceTasks,
				"polls", tracker.Polls(),
			)
			d.metrics.Stabilized(status, tracker.Polls())
			return status, nil
		case !obs.Accepted:
			d.logger.Trace("Controller not running, ignoring status",
				"controller_state", status.ControllerState.String(),
			)
		case obs.Changed:
			d.logger.Trace("Got incremental update to number of workers",
				"from", obs.Previous,
				"to", obs.Current,
			)
			d.metrics.WorkerCountChanged(obs.Previous, obs.Current)
		}

		if !d.requireLive {
			continue
		}

		d.logger.Trace("Sleeping during status check", "interval", d.pollInterval.String())
		select {
		case <-ctx.Done():
			return Status{}, ctx.Err()
		case <-d.clock.After(d.pollInterval):
		}
	}
}

// StableWorkerCount returns the worker count of the stable status.
func (d *Detector) StableWorkerCount(ctx context.Context) (int, error) {
	status, err := d.Detect(ctx)
	if err != nil {
		return 0, err
	}
	return status.WorkerCount, nil
}

// StableReduceSlots returns the reduce slot count of the stable status, which
// is the maximum number of reduce tasks that can run in parallel.
func (d *Detector) StableReduceSlots(ctx context.Context) (int, error) {
	status, err := d.Detect(ctx)
	if err != nil {
		return 0, err
	}
	return status.MaxReduceTasks, nil
}
