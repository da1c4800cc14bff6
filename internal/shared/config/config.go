// Package config loads the coordinator, worker and planner configuration with
// viper. Values come from defaults, then an optional YAML file, then
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Rincaro/cascading.utils/pkg/logging"
)

// EnvPrefix is the common prefix of every environment override.
const EnvPrefix = "CASCADING"

// LoggingConfig contains logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NewLogger builds a logger for this configuration. An unknown level falls
// back to info.
func (c LoggingConfig) NewLogger(w io.Writer) logging.Logger {
	level, _ := logging.ParseLevel(c.Level)
	return logging.New(w, c.Format, level)
}

// NATSConfig points at the JetStream key-value bucket used to share cluster
// membership.
type NATSConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URL          string        `mapstructure:"url"`
	Bucket       string        `mapstructure:"bucket"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	HeartbeatTTL time.Duration `mapstructure:"heartbeat_ttl"`
}

// MetricsPushConfig is for commands that exit before anything could scrape
// them. An empty PushURL disables pushing.
type MetricsPushConfig struct {
	PushURL string `mapstructure:"push_url"`
	Job     string `mapstructure:"job"`
}

func setLoggingDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func setNATSDefaults(v *viper.Viper) {
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.bucket", "cascading-cluster")
	v.SetDefault("nats.key_prefix", "worker")
	v.SetDefault("nats.heartbeat_ttl", 45*time.Second)
}

// load reads configPath, or <name>.yaml from ./config or the working
// directory, and applies CASCADING_<COMPONENT>_ environment overrides.
func load(v *viper.Viper, name, configPath string, out any) error {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(name)
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix + "_" + strings.ToUpper(name))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return nil
}
