package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Rincaro/cascading.utils/pkg/logging"
)

var ErrNoWorkerID = errors.New("worker ID not set")

// Publisher keeps one worker's heartbeat key alive.
type Publisher struct {
	kv          jetstream.KeyValue
	prefix      string
	workerID    string
	reduceSlots int
	interval    time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewPublisher(kv jetstream.KeyValue, prefix, workerID string, reduceSlots int, interval time.Duration, logger logging.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultHeartbeatPrefix
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		kv:          kv,
		prefix:      prefix,
		workerID:    workerID,
		reduceSlots: reduceSlots,
		interval:    interval,
		logger:      logger,
		now:         time.Now,
	}
}

func (p *Publisher) Key() string {
	return p.prefix + "." + p.workerID
}

// Publish writes one heartbeat.
func (p *Publisher) Publish(ctx context.Context) error {
	if p.workerID == "" {
		return ErrNoWorkerID
	}
	data, err := json.Marshal(Heartbeat{
		WorkerID:    p.workerID,
		ReduceSlots: p.reduceSlots,
		Timestamp:   p.now().UTC(),
	})
	if err != nil {
		return err
	}
	if _, err := p.kv.Put(ctx, p.Key(), data); err != nil {
		return fmt.Errorf("failed to publish heartbeat: %w", err)
	}
	return nil
}

// Run publishes the first heartbeat immediately and then every interval
// until ctx is done. On exit the key is deleted so the worker disappears
// without waiting for the TTL.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.Publish(ctx); err != nil {
		return fmt.Errorf("failed to publish initial heartbeat: %w", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := p.kv.Delete(cleanupCtx, p.Key()); err != nil {
				p.logger.Warn("Failed to delete heartbeat", "key", p.Key(), "error", err)
			}
			return nil
		case <-ticker.C:
			if err := p.Publish(ctx); err != nil && ctx.Err() == nil {
				p.logger.Error("Heartbeat failed", "key", p.Key(), "error", err)
			}
		}
	}
}
