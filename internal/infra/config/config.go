// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Source  SourceConfig  `yaml:"source"`
	Poll    PollConfig    `yaml:"poll"`
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Output string `yaml:"output" default:"stdout"`
}

// SourceConfig represents the memory source configuration.
type SourceConfig struct {
	Type     string         `yaml:"type" default:"procmem" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// PollConfig represents poll loop configuration.
type PollConfig struct {
	IntervalMs int `yaml:"interval_ms" default:"30" validate:"gte=1,lte=1000"`
}

// ServerConfig represents the websocket feed configuration.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" default:":8750"`
}

// CatalogConfig represents the song catalog configuration.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Load loads configuration from a YAML file. Environment variables take
// precedence over file values for host-targeting fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("BGMSCOPE_PROCESS"); v != "" {
		c.setSourceSetting("process", v)
	}
	if v := os.Getenv("BGMSCOPE_ADDRESS"); v != "" {
		c.setSourceSetting("address", v)
	}
}

func (c *Config) setSourceSetting(key, value string) {
	if c.Source.Settings == nil {
		c.Source.Settings = make(map[string]any)
	}
	c.Source.Settings[key] = value
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMs) * time.Millisecond
}
