// Package config loads viewembed settings from defaults, an optional YAML file
// and VIEWEMBED_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "VIEWEMBED"

// Region names used when none is configured.
const (
	WindowsRegionName = `Local\ViewEmbedSharedTable`
	PosixRegionName   = "viewembed-shared-table"
)

// Config holds all controller configuration. Environment variables are
// VIEWEMBED_ followed by the upper-cased field path, e.g. VIEWEMBED_LOG_LEVEL.
type Config struct {
	Region string       `yaml:"region"`
	Log    LogConfig    `yaml:"log"`
	Viewer ViewerConfig `yaml:"viewer"`
	Watch  WatchConfig  `yaml:"watch"`
	Health HealthConfig `yaml:"health"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
	Stdout      bool   `yaml:"stdout"`
}

// ViewerConfig holds the flags passed to the viewer before the document path.
type ViewerConfig struct {
	Flags []string `yaml:"flags"`
}

// WatchConfig controls the capture watcher.
type WatchConfig struct {
	Enabled         bool          `yaml:"enabled"`
	InitialInterval time.Duration `yaml:"initialInterval" split_words:"true"`
	MaxInterval     time.Duration `yaml:"maxInterval" split_words:"true"`
	// Timeout bounds one watch; zero waits until shutdown.
	Timeout   time.Duration `yaml:"timeout"`
	PoolSize  int           `yaml:"poolSize" split_words:"true"`
	QueueSize int           `yaml:"queueSize" split_words:"true"`
}

// HealthConfig holds the embedctl serve listener.
type HealthConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultRegionName returns the region name for the running platform.
func DefaultRegionName() string {
	if runtime.GOOS == "windows" {
		return WindowsRegionName
	}
	return PosixRegionName
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Region: DefaultRegionName(),
		Log: LogConfig{
			Level: "warn",
			File:  "viewembed.log",
		},
		Viewer: ViewerConfig{
			Flags: []string{"/F", "/S"},
		},
		Watch: WatchConfig{
			Enabled:         true,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			Timeout:         2 * time.Minute,
			PoolSize:        4,
			QueueSize:       64,
		},
		Health: HealthConfig{
			Addr: "127.0.0.1:8086",
		},
	}
}

// Load applies environment overrides to the defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, cfg.Verify()
}

// LoadFile applies a YAML file and then environment overrides to the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, cfg.Verify()
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Verify checks that the configuration is usable.
func (c *Config) Verify() error {
	var errs []error
	if c.Region == "" {
		errs = append(errs, errors.New("region name is empty"))
	}
	if c.Watch.InitialInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch initial interval %v must be positive", c.Watch.InitialInterval))
	}
	if c.Watch.MaxInterval < c.Watch.InitialInterval {
		errs = append(errs, fmt.Errorf("watch max interval %v is below initial interval %v",
			c.Watch.MaxInterval, c.Watch.InitialInterval))
	}
	if c.Watch.Timeout < 0 {
		errs = append(errs, fmt.Errorf("watch timeout %v is negative", c.Watch.Timeout))
	}
	if c.Watch.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("watch pool size %d must be positive", c.Watch.PoolSize))
	}
	if c.Watch.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("watch queue size %d must be positive", c.Watch.QueueSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
