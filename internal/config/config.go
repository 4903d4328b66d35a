// Package config loads gatekit settings from an optional file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/store"
)

// ToleranceConfig holds the SoftCompare tolerances.
type ToleranceConfig struct {
	RTol float64 `mapstructure:"rtol" yaml:"rtol"`
	ATol float64 `mapstructure:"atol" yaml:"atol"`
}

// Config is the resolved gatekit configuration.
type Config struct {
	DB        string          `mapstructure:"db" yaml:"db"`               // Path of the operation library; ":memory:" keeps it in memory
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"` // debug, info, warn or error
	Tolerance ToleranceConfig `mapstructure:"tolerance" yaml:"tolerance"`
	Scenarios string          `mapstructure:"scenarios" yaml:"scenarios"` // Default scenario directory for check
}

var defaults = map[string]any{
	"db":             store.MemoryPath,
	"log_level":      "info",
	"tolerance.rtol": op.DefaultRTol,
	"tolerance.atol": op.DefaultATol,
	"scenarios":      "testdata/scenarios",
}

// envBindings maps config keys to the environment variables that can set them.
// The first name is preferred; later names are accepted for compatibility.
var envBindings = map[string][]string{
	"db":             {"GATEKIT_DB"},
	"log_level":      {"GATEKIT_LOG_LEVEL"},
	"tolerance.rtol": {"GATEKIT_RTOL"},
	"tolerance.atol": {"GATEKIT_ATOL"},
	"scenarios":      {"GATEKIT_SCENARIOS"},
}

// Load reads the config file at filePath when it exists and applies
// environment overrides on top. An empty filePath uses defaults and the
// environment only.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", filePath, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs binds the environment variables to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)
		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks tolerances and the log level.
func (c *Config) Validate() error {
	if c.Tolerance.RTol < 0 || c.Tolerance.ATol < 0 {
		return fmt.Errorf("tolerances must be non-negative, got rtol=%g atol=%g", c.Tolerance.RTol, c.Tolerance.ATol)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return level, nil
}

// CompareOptions returns the SoftCompare options for the configured tolerances.
func (c *Config) CompareOptions() []op.CompareOption {
	return []op.CompareOption{op.WithTolerance(c.Tolerance.RTol, c.Tolerance.ATol)}
}
