package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	TransportGRPC = "grpc"
	TransportREST = "rest"
	TransportNATS = "nats"
)

// PlannerConfig configures the job planner, which sizes jobs from the
// cluster status.
type PlannerConfig struct {
	Coordinator PlannerCoordinatorConfig `mapstructure:"coordinator"`
	Detector    DetectorConfig           `mapstructure:"detector"`
	Job         JobConfig                `mapstructure:"job"`
	NATS        NATSConfig               `mapstructure:"nats"`
	Metrics     MetricsPushConfig        `mapstructure:"metrics"`
	Logging     LoggingConfig            `mapstructure:"logging"`
}

// PlannerCoordinatorConfig selects how the cluster status is read: over
// gRPC, over the REST API, or from the NATS key-value bucket.
type PlannerCoordinatorConfig struct {
	Transport string           `mapstructure:"transport"`
	Addr      string           `mapstructure:"addr"`
	RESTURL   string           `mapstructure:"rest_url"`
	GRPC      ClientGRPCConfig `mapstructure:"grpc"`
}

// DetectorConfig tunes cluster detection. Whether detection waits for a
// live cluster follows from the job tracker: a local tracker never waits.
type DetectorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type JobConfig struct {
	Tracker     string `mapstructure:"tracker"`
	StackSizeKB int    `mapstructure:"stack_size_kb"`
	Debug       bool   `mapstructure:"debug"`
}

// LoadPlanner loads the planner configuration from the given path.
// If configPath is empty, it looks for planner.yaml in the config/ directory.
// Environment variables with CASCADING_PLANNER_ prefix override config file values.
func LoadPlanner(configPath string) (*PlannerConfig, error) {
	v := viper.New()

	v.SetDefault("coordinator.transport", TransportGRPC)
	v.SetDefault("coordinator.rest_url", "http://localhost:8080")
	setClientDefaults(v)
	v.SetDefault("detector.poll_interval", time.Second)
	v.SetDefault("detector.timeout", 5*time.Minute)
	v.SetDefault("job.tracker", "local")
	v.SetDefault("job.stack_size_kb", 512)
	v.SetDefault("job.debug", false)
	v.SetDefault("metrics.push_url", "")
	v.SetDefault("metrics.job", "cascading_planner")
	setNATSDefaults(v)
	setLoggingDefaults(v)

	var cfg PlannerConfig
	if err := load(v, "planner", configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
