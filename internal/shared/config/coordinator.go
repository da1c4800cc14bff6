package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type CoordinatorConfig struct {
	REST    RESTConfig    `mapstructure:"rest"`
	GRPC    GRPCConfig    `mapstructure:"grpc"`
	Health  HealthConfig  `mapstructure:"health"`
	Cluster ClusterConfig `mapstructure:"cluster"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RESTConfig serves cluster status, worker listing, health and metrics.
type RESTConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// GRPCConfig serves worker registration, heartbeats and cluster status.
// HeartbeatInterval is handed to every worker on registration.
type GRPCConfig struct {
	Addr              string        `mapstructure:"addr"`
	EnableReflection  bool          `mapstructure:"enable_reflection"`
	KeepaliveMinTime  time.Duration `mapstructure:"keepalive_min_time"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// HealthConfig controls stale worker eviction.
type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	StaleTimeout  time.Duration `mapstructure:"stale_timeout"`
}

type ClusterConfig struct {
	// StartupGrace is how long the controller reports STARTING.
	StartupGrace time.Duration `mapstructure:"startup_grace"`
}

var coordinatorDefaults = map[string]any{
	"rest.addr":               ":8080",
	"rest.read_timeout":       15 * time.Second,
	"rest.write_timeout":      15 * time.Second,
	"rest.idle_timeout":       60 * time.Second,
	"grpc.addr":               ":9090",
	"grpc.enable_reflection":  true,
	"grpc.keepalive_min_time": 10 * time.Second,
	"grpc.heartbeat_interval": 15 * time.Second,
	"health.check_interval":   5 * time.Second,
	"health.stale_timeout":    45 * time.Second,
	"cluster.startup_grace":   10 * time.Second,
}

// Validate rejects settings the coordinator cannot run with. A worker must be
// allowed to miss at least one heartbeat before it is evicted.
func (c *CoordinatorConfig) Validate() error {
	var errs []error
	if c.GRPC.HeartbeatInterval <= 0 {
		errs = append(errs, fmt.Errorf("grpc.heartbeat_interval must be positive, got %s", c.GRPC.HeartbeatInterval))
	}
	if c.Health.CheckInterval <= 0 {
		errs = append(errs, fmt.Errorf("health.check_interval must be positive, got %s", c.Health.CheckInterval))
	}
	if c.Health.StaleTimeout <= c.GRPC.HeartbeatInterval {
		errs = append(errs, fmt.Errorf("health.stale_timeout %s must exceed grpc.heartbeat_interval %s",
			c.Health.StaleTimeout, c.GRPC.HeartbeatInterval))
	}
	if c.Cluster.StartupGrace < 0 {
		errs = append(errs, fmt.Errorf("cluster.startup_grace must not be negative, got %s", c.Cluster.StartupGrace))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// LoadCoordinator reads coordinator.yaml and CASCADING_COORDINATOR_ overrides.
func LoadCoordinator(configPath string) (*CoordinatorConfig, error) {
	v := viper.New()
	for key, value := range coordinatorDefaults {
		v.SetDefault(key, value)
	}
	setNATSDefaults(v)
	setLoggingDefaults(v)

	var cfg CoordinatorConfig
	if err := load(v, "coordinator", configPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
