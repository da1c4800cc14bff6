// Package natskv reports cluster status from a NATS JetStream key-value bucket.
//
// Every worker keeps a heartbeat key "<prefix>.<workerID>" alive; the bucket
// TTL removes the keys of crashed workers. The controller writes its state to
// a single key. A Provider counts live heartbeat keys on every poll, so it can
// be handed to cluster.NewDetector directly.
package natskv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Rincaro/cascading.utils/pkg/cluster"
)

const (
	DefaultBucket          = "cascading-cluster"
	DefaultHeartbeatPrefix = "worker"
	ControllerKey          = "controller.state"
)

var ErrInvalidHeartbeat = errors.New("invalid heartbeat entry")

// Heartbeat is the value stored under a worker's heartbeat key.
type Heartbeat struct {
	WorkerID    string    `json:"worker_id"`
	ReduceSlots int       `json:"reduce_slots"`
	Timestamp   time.Time `json:"timestamp"`
}

// EnsureBucket creates the bucket or updates its configuration. ttl should be
// a few heartbeat intervals.
func EnsureBucket(ctx context.Context, js jetstream.JetStream, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	cfg := jetstream.KeyValueConfig{
		Bucket:  bucket,
		History: 1,
		TTL:     ttl,
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create/open KV bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// Connect dials url and opens the bucket. The caller closes the connection.
func Connect(ctx context.Context, url, bucket string, ttl time.Duration, opts ...nats.Option) (*nats.Conn, jetstream.KeyValue, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := EnsureBucket(ctx, js, bucket, ttl)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, kv, nil
}

// SetControllerState publishes the controller state.
func SetControllerState(ctx context.Context, kv jetstream.KeyValue, state cluster.ControllerState) error {
	if _, err := kv.PutString(ctx, ControllerKey, state.String()); err != nil {
		return fmt.Errorf("failed to publish controller state: %w", err)
	}
	return nil
}

// Provider implements cluster.StatusProvider.
type Provider struct {
	kv     jetstream.KeyValue
	prefix string
}

var _ cluster.StatusProvider = (*Provider)(nil)

func NewProvider(kv jetstream.KeyValue, prefix string) *Provider {
	if prefix == "" {
		prefix = DefaultHeartbeatPrefix
	}
	return &Provider{kv: kv, prefix: prefix}
}

// Status reads the controller state and the live heartbeats. A missing
// controller key reads as STARTING.
func (p *Provider) Status(ctx context.Context) (cluster.Status, error) {
	state, err := p.controllerState(ctx)
	if err != nil {
		return cluster.Status{}, err
	}

	keys, err := p.kv.Keys(ctx)
	if err != nil && !errors.Is(err, jetstream.ErrNoKeysFound) {
		return cluster.Status{}, fmt.Errorf("failed to list heartbeat keys: %w", err)
	}

	status := cluster.Status{ControllerState: state}
	for _, key := range keys {
		if !strings.HasPrefix(key, p.prefix+".") {
			continue
		}
		hb, err := p.heartbeat(ctx, key)
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			// expired between list and get
			continue
		}
		if err != nil {
			return cluster.Status{}, err
		}
		status.WorkerCount++
		status.MaxReduceTasks += hb.ReduceSlots
	}
	return status, nil
}

func (p *Provider) controllerState(ctx context.Context) (cluster.ControllerState, error) {
	entry, err := p.kv.Get(ctx, ControllerKey)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return cluster.ControllerStarting, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read controller state: %w", err)
	}
	state, err := cluster.ParseControllerState(string(entry.Value()))
	if err != nil {
		return 0, err
	}
	return state, nil
}

func (p *Provider) heartbeat(ctx context.Context, key string) (Heartbeat, error) {
	entry, err := p.kv.Get(ctx, key)
	if err != nil {
		return Heartbeat{}, fmt.Errorf("failed to read %s: %w", key, err)
	}
	var hb Heartbeat
	if err := json.Unmarshal(entry.Value(), &hb); err != nil {
		return Heartbeat{}, fmt.Errorf("%w: %s: %w", ErrInvalidHeartbeat, key, err)
	}
	return hb, nil
}
