package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type WorkerConfig struct {
	Server      ServerConfig          `mapstructure:"server"`
	Coordinator CoordinatorConnConfig `mapstructure:"coordinator"`
	NATS        NATSConfig            `mapstructure:"nats"`
	Logging     LoggingConfig         `mapstructure:"logging"`
}

// ServerConfig describes what the worker advertises to the coordinator.
type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	ReduceSlots int    `mapstructure:"reduce_slots"`
}

// CoordinatorConnConfig is where the worker registers and heartbeats.
type CoordinatorConnConfig struct {
	Addr string           `mapstructure:"addr"`
	GRPC ClientGRPCConfig `mapstructure:"grpc"`
}

// ClientGRPCConfig is shared by the worker and the planner status client.
type ClientGRPCConfig struct {
	KeepaliveTime    time.Duration `mapstructure:"keepalive_time"`
	KeepaliveTimeout time.Duration `mapstructure:"keepalive_timeout"`
}

func setClientDefaults(v *viper.Viper) {
	v.SetDefault("coordinator.addr", "localhost:9090")
	v.SetDefault("coordinator.grpc.keepalive_time", 30*time.Second)
	v.SetDefault("coordinator.grpc.keepalive_timeout", 5*time.Second)
}

func (c *WorkerConfig) Validate() error {
	var errs []error
	if c.Server.ReduceSlots < 1 {
		errs = append(errs, fmt.Errorf("server.reduce_slots must be at least 1, got %d", c.Server.ReduceSlots))
	}
	if c.Coordinator.Addr == "" {
		errs = append(errs, errors.New("coordinator.addr is required"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoadWorker reads worker.yaml and CASCADING_WORKER_ overrides.
func LoadWorker(configPath string) (*WorkerConfig, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":50051")
	v.SetDefault("server.reduce_slots", 2)
	setClientDefaults(v)
	setNATSDefaults(v)
	setLoggingDefaults(v)

	var cfg WorkerConfig
	if err := load(v, "worker", configPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
