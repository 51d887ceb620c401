// Package config loads the options an evaluation session is created with.
package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"jscore/pkg/features"
)

const (
	// MinOptimizationLevel interprets every function without cached plans.
	MinOptimizationLevel = -1
	// MaxOptimizationLevel is the highest accepted level.
	MaxOptimizationLevel = 9
)

// Config holds session options. The zero value is not valid; start from
// Default.
type Config struct {
	Features features.Set `yaml:"features"`
	// OptimizationLevel: -1 recomputes declaration plans on every function
	// entry, 0 and above cache parsed programs and plans. Results never
	// depend on the level.
	OptimizationLevel int `yaml:"optimizationLevel"`
	// FailOnNonConfigurableDelete makes delete of a non-configurable
	// property raise a TypeError instead of evaluating to false.
	FailOnNonConfigurableDelete bool `yaml:"failOnNonConfigurableDelete"`
	// MaxSteps bounds the statements executed by one Evaluate call. Zero
	// means unbounded.
	MaxSteps int64 `yaml:"maxSteps"`
	// MaxCallDepth bounds nested script calls.
	MaxCallDepth int `yaml:"maxCallDepth"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
}

// Default returns the configuration used when the host supplies none.
func Default() Config {
	return Config{
		Features:          features.Default(),
		OptimizationLevel: 0,
		MaxCallDepth:      1000,
		LogLevel:          "warn",
	}
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates YAML configuration data.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option ranges.
func (c Config) Validate() error {
	if c.OptimizationLevel < MinOptimizationLevel || c.OptimizationLevel > MaxOptimizationLevel {
		return errors.Errorf("optimization level %d out of range [%d, %d]",
			c.OptimizationLevel, MinOptimizationLevel, MaxOptimizationLevel)
	}
	if c.MaxSteps < 0 {
		return errors.Errorf("maxSteps must not be negative, got %d", c.MaxSteps)
	}
	if c.MaxCallDepth < 0 {
		return errors.Errorf("maxCallDepth must not be negative, got %d", c.MaxCallDepth)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Interpreted reports whether declaration plans are recomputed on each
// function entry.
func (c Config) Interpreted() bool { return c.OptimizationLevel < 0 }

// ParseLevel maps a log level name to its slog level. The empty string
// means warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.Errorf("unknown log level %q", name)
}
