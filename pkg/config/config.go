// Package config loads the fleetwatch server configuration from a YAML file
// overlaid on built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so intervals can be written as "30s" or "2m"
// in the config file
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the server process settings
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`

	Monitor struct {
		KeepSamples        int     `yaml:"keep_samples"`
		HighUsageThreshold float64 `yaml:"high_usage_threshold"`
	} `yaml:"monitor"`

	Reconciler struct {
		Interval       Duration `yaml:"interval"`
		OfflineTimeout Duration `yaml:"offline_timeout"`
	} `yaml:"reconciler"`

	Retention struct {
		HistoryDays      int `yaml:"history_days"`
		NotificationDays int `yaml:"notification_days"`
	} `yaml:"retention"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{
		ListenAddr: ":8080",
		DataDir:    "./data",
	}
	cfg.Log.Level = "info"
	cfg.Monitor.KeepSamples = 100
	cfg.Monitor.HighUsageThreshold = 85
	cfg.Reconciler.Interval = Duration(30 * time.Second)
	cfg.Reconciler.OfflineTimeout = Duration(2 * time.Minute)
	cfg.Retention.HistoryDays = 365
	cfg.Retention.NotificationDays = 90
	return cfg
}

// Load reads and parses a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.Monitor.HighUsageThreshold < 0 || c.Monitor.HighUsageThreshold > 100 {
		return fmt.Errorf("monitor.high_usage_threshold must be in [0,100]")
	}
	if c.Reconciler.Interval.Std() < time.Second {
		return fmt.Errorf("reconciler.interval must be at least 1s")
	}
	if c.Reconciler.OfflineTimeout < c.Reconciler.Interval {
		return fmt.Errorf("reconciler.offline_timeout must not be shorter than the sweep interval")
	}
	return nil
}
