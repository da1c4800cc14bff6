// Package service builds job configurations sized from the cluster.
package service

import (
	"context"
	"fmt"

	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/jobconf"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

// Planner sizes jobs from the cluster. A local tracker is sized from the
// first RUNNING reading with no wait; any other tracker polls until the
// worker count is stable.
type Planner struct {
	detector *cluster.Detector
	detect   config.DetectorConfig
	job      config.JobConfig
	logger   logging.Logger
}

func NewPlanner(
	provider cluster.StatusProvider,
	detect config.DetectorConfig,
	job config.JobConfig,
	metrics cluster.Metrics,
	logger logging.Logger,
) *Planner {
	if metrics == nil {
		metrics = cluster.NopMetrics{}
	}
	return &Planner{
		detector: cluster.NewDetector(provider,
			cluster.WithPollInterval(detect.PollInterval),
			cluster.WithRequireLiveCluster(!jobconf.IsLocal(job.Tracker)),
			cluster.WithLogger(logger),
			cluster.WithMetrics(metrics),
		),
		detect: detect,
		job:    job,
		logger: logger,
	}
}

func (p *Planner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.detect.Timeout > 0 {
		return context.WithTimeout(ctx, p.detect.Timeout)
	}
	return context.WithCancel(ctx)
}

// Detect waits for the cluster to settle, bounded by the configured timeout.
func (p *Planner) Detect(ctx context.Context) (cluster.Status, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.detector.Detect(ctx)
}

// Plan returns the job configuration for the configured tracker, with the
// default properties for the configured debug mode merged in.
func (p *Planner) Plan(ctx context.Context) (*jobconf.JobConf, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	opts := []jobconf.Option{jobconf.WithTracker(p.job.Tracker)}
	if p.job.StackSizeKB != 0 {
		opts = append(opts, jobconf.WithStackSizeKB(p.job.StackSizeKB))
	}

	conf, err := jobconf.New(ctx, p.detector, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to plan job: %w", err)
	}
	conf.Merge(jobconf.DefaultProperties(p.job.Debug))

	p.logger.Info("Job planned",
		"tracker", conf.Tracker,
		"local", conf.IsLocal(),
		"reduce_tasks", conf.NumReduceTasks,
	)
	return conf, nil
}
