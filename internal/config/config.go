// Package config provides unified configuration loading for washout.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvandessel/washout/internal/constants"
	"gopkg.in/yaml.v3"
)

// WashoutConfig contains all washout configuration settings.
type WashoutConfig struct {
	// Simulation holds defaults for run and trials.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Chart holds defaults for plot.
	Chart ChartConfig `json:"chart" yaml:"chart"`

	// Logging contains settings for operational and step logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig sets defaults used when a command does not override them.
type SimulationConfig struct {
	// Reps overrides the scenario's reps when positive.
	Reps int `json:"reps" yaml:"reps"`

	// Trials is the number of independent runs for `washout trials`.
	Trials int `json:"trials" yaml:"trials"`

	// Seed, when non-nil, replaces the scenario seed.
	Seed *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Threshold is the final credence counted as washed out.
	// Range: 0.0 to 1.0 (exclusive)
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// ChartConfig sets chart output defaults.
type ChartConfig struct {
	Format string  `json:"format" yaml:"format"`
	Width  float64 `json:"width" yaml:"width"`   // inches
	Height float64 `json:"height" yaml:"height"` // inches
	Legend bool    `json:"legend" yaml:"legend"`
}

// LoggingConfig configures washout's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables step logging to TraceDir/steps.jsonl.
	// "trace" additionally records the full posterior matrix per step.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where step logs are written. Empty means ~/.washout/traces.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// Default returns a WashoutConfig with sensible defaults.
func Default() *WashoutConfig {
	return &WashoutConfig{
		Simulation: SimulationConfig{
			Trials:    constants.DefaultTrials,
			Threshold: constants.DefaultConvergenceThreshold,
		},
		Chart: ChartConfig{
			Format: "png",
			Width:  constants.DefaultChartWidth,
			Height: constants.DefaultChartHeight,
			Legend: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns ~/.washout.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(homeDir, ".washout"), nil
}

// DefaultPath returns ~/.washout/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.washout/config.yaml -> environment variables
func Load() (*WashoutConfig, error) {
	config := Default()

	// Try to load from default config file
	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*WashoutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)

	return config, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *WashoutConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *WashoutConfig) Validate() error {
	if c.Simulation.Reps < 0 || c.Simulation.Reps > constants.MaxReps {
		return fmt.Errorf("simulation.reps must be between 0 and %d, got %d", constants.MaxReps, c.Simulation.Reps)
	}
	if c.Simulation.Trials < 1 || c.Simulation.Trials > constants.MaxTrials {
		return fmt.Errorf("simulation.trials must be between 1 and %d, got %d", constants.MaxTrials, c.Simulation.Trials)
	}
	if c.Simulation.Threshold < 0 || c.Simulation.Threshold >= 1 {
		return fmt.Errorf("simulation.threshold must be in [0, 1), got %f", c.Simulation.Threshold)
	}

	validFormats := map[string]bool{"png": true, "svg": true, "html": true, "json": true}
	if !validFormats[c.Chart.Format] {
		return fmt.Errorf("invalid chart format: %s (valid: png, svg, html, json)", c.Chart.Format)
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart size must be positive, got %gx%g", c.Chart.Width, c.Chart.Height)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// TraceDir returns the directory for step logs.
func (c *WashoutConfig) TraceDir() (string, error) {
	if c.Logging.TraceDir != "" {
		return c.Logging.TraceDir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "traces"), nil
}

// Keys lists every dot-notation key Get and Set understand.
func Keys() []string {
	keys := make([]string, 0, len(accessors))
	for k := range accessors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type accessor struct {
	get func(c *WashoutConfig) interface{}
	set func(c *WashoutConfig, v string) error
}

var accessors = map[string]accessor{
	"simulation.reps": {
		get: func(c *WashoutConfig) interface{} { return c.Simulation.Reps },
		set: func(c *WashoutConfig, v string) error { return setInt(&c.Simulation.Reps, v) },
	},
	"simulation.trials": {
		get: func(c *WashoutConfig) interface{} { return c.Simulation.Trials },
		set: func(c *WashoutConfig, v string) error { return setInt(&c.Simulation.Trials, v) },
	},
	"simulation.seed": {
		get: func(c *WashoutConfig) interface{} {
			if c.Simulation.Seed == nil {
				return ""
			}
			return *c.Simulation.Seed
		},
		set: func(c *WashoutConfig, v string) error {
			if v == "" || v == "none" {
				c.Simulation.Seed = nil
				return nil
			}
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed %q: %w", v, err)
			}
			c.Simulation.Seed = &n
			return nil
		},
	},
	"simulation.threshold": {
		get: func(c *WashoutConfig) interface{} { return c.Simulation.Threshold },
		set: func(c *WashoutConfig, v string) error { return setFloat(&c.Simulation.Threshold, v) },
	},
	"chart.format": {
		get: func(c *WashoutConfig) interface{} { return c.Chart.Format },
		set: func(c *WashoutConfig, v string) error { c.Chart.Format = strings.ToLower(v); return nil },
	},
	"chart.width": {
		get: func(c *WashoutConfig) interface{} { return c.Chart.Width },
		set: func(c *WashoutConfig, v string) error { return setFloat(&c.Chart.Width, v) },
	},
	"chart.height": {
		get: func(c *WashoutConfig) interface{} { return c.Chart.Height },
		set: func(c *WashoutConfig, v string) error { return setFloat(&c.Chart.Height, v) },
	},
	"chart.legend": {
		get: func(c *WashoutConfig) interface{} { return c.Chart.Legend },
		set: func(c *WashoutConfig, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			c.Chart.Legend = b
			return nil
		},
	},
	"logging.level": {
		get: func(c *WashoutConfig) interface{} { return c.Logging.Level },
		set: func(c *WashoutConfig, v string) error { c.Logging.Level = v; return nil },
	},
	"logging.trace_dir": {
		get: func(c *WashoutConfig) interface{} { return c.Logging.TraceDir },
		set: func(c *WashoutConfig, v string) error { c.Logging.TraceDir = v; return nil },
	},
}

// Get retrieves a configuration value by dot-notation key.
func (c *WashoutConfig) Get(key string) (interface{}, bool) {
	a, ok := accessors[key]
	if !ok {
		return nil, false
	}
	return a.get(c), true
}

// Set parses value into the setting named by key and re-validates.
// On error c is left unchanged.
func (c *WashoutConfig) Set(key, value string) error {
	a, ok := accessors[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	next := *c
	if c.Simulation.Seed != nil {
		seed := *c.Simulation.Seed
		next.Simulation.Seed = &seed
	}
	if err := a.set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer %q", v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", v)
	}
	*dst = f
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *WashoutConfig) {
	if v := os.Getenv("WASHOUT_REPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Reps = n
		}
	}

	if v := os.Getenv("WASHOUT_TRIALS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Simulation.Trials = n
		}
	}

	if v := os.Getenv("WASHOUT_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = &n
		}
	}

	if v := os.Getenv("WASHOUT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			config.Simulation.Threshold = f
		}
	}

	if v := os.Getenv("WASHOUT_CHART_FORMAT"); v != "" {
		config.Chart.Format = strings.ToLower(v)
	}

	if v := os.Getenv("WASHOUT_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("WASHOUT_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
