package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	plannergrpc "github.com/Rincaro/cascading.utils/internal/planner/api/grpc"
	plannerrest "github.com/Rincaro/cascading.utils/internal/planner/api/rest"
	"github.com/Rincaro/cascading.utils/internal/shared/config"
	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/cluster/natskv"
	"github.com/Rincaro/cascading.utils/pkg/jobconf"
)

// newStatusProvider returns the provider for the configured transport. A
// local tracker needs no coordinator.
func newStatusProvider(ctx context.Context, cfg *config.PlannerConfig) (cluster.StatusProvider, func(), error) {
	if jobconf.IsLocal(cfg.Job.Tracker) {
		return localProvider, func() {}, nil
	}

	switch cfg.Coordinator.Transport {
	case config.TransportGRPC:
		client, err := plannergrpc.NewStatusClient(cfg.Coordinator.Addr, cfg.Coordinator.GRPC)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil

	case config.TransportREST:
		client, err := plannerrest.NewStatusClient(cfg.Coordinator.RESTURL, nil)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil

	case config.TransportNATS:
		nc, kv, err := natskv.Connect(ctx, cfg.NATS.URL, cfg.NATS.Bucket, cfg.NATS.HeartbeatTTL, nats.Name("cascading-planner"))
		if err != nil {
			return nil, nil, err
		}
		return natskv.NewProvider(kv, cfg.NATS.KeyPrefix), nc.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown coordinator transport %q", cfg.Coordinator.Transport)
	}
}

// localProvider reports a single-process cluster that is always RUNNING.
var localProvider = cluster.StatusProviderFunc(func(ctx context.Context) (cluster.Status, error) {
	return cluster.Status{ControllerState: cluster.ControllerRunning, WorkerCount: 1, MaxReduceTasks: 1}, nil
})
