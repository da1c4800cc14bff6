package natskv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Rincaro/cascading.utils/pkg/cluster"
	"github.com/Rincaro/cascading.utils/pkg/logging"
)

// DefaultStateRefresh is used when the bucket has no TTL.
const DefaultStateRefresh = 15 * time.Second

// StateRefreshInterval returns how often the controller key must be
// rewritten to outlive a bucket TTL of ttl.
func StateRefreshInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultStateRefresh
	}
	return ttl / 3
}

// StatePublisher keeps the controller key alive. The bucket TTL applies to
// every key, so the state is rewritten on an interval and not only when it
// changes.
type StatePublisher struct {
	kv       jetstream.KeyValue
	state    func() cluster.ControllerState
	interval time.Duration
	logger   logging.Logger

	// serializes reading the state with writing it, so a periodic rewrite
	// never lands after a newer state change
	mu sync.Mutex
}

func NewStatePublisher(kv jetstream.KeyValue, state func() cluster.ControllerState, interval time.Duration, logger logging.Logger) *StatePublisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StatePublisher{kv: kv, state: state, interval: interval, logger: logger}
}

// Publish writes the current state.
func (p *StatePublisher) Publish(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return SetControllerState(ctx, p.kv, p.state())
}

// OnStateChange publishes right away. It fits core.WithStateListener.
func (p *StatePublisher) OnStateChange(state cluster.ControllerState) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Publish(ctx); err != nil {
		p.logger.Warn("Failed to publish controller state", "state", state.String(), "error", err)
	}
}

// Run publishes the state immediately and then every interval until ctx is done.
func (p *StatePublisher) Run(ctx context.Context) error {
	if p.interval <= 0 {
		return fmt.Errorf("state refresh interval must be positive, got %s", p.interval)
	}
	if err := p.Publish(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Publish(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("Failed to refresh controller state", "error", err)
			}
		}
	}
}
