// Package config loads run configuration.
//
// Priority: defaults, then the YAML file, then TASKALLOC_* environment
// variables:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("taskalloc.yaml").
//	    Load()
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete run configuration.
type Config struct {
	Instance InstanceConfig `yaml:"instance" env:"INSTANCE"`
	Search   SearchConfig   `yaml:"search" env:"SEARCH"`
	Log      LogConfig      `yaml:"log" env:"LOG"`
	Metrics  MetricsConfig  `yaml:"metrics" env:"METRICS"`
}

// InstanceConfig describes a generated grid instance.
type InstanceConfig struct {
	// Input loads the instance from a JSON file instead of generating it.
	Input  string `yaml:"input" env:"INPUT"`
	Agents int    `yaml:"agents" env:"AGENTS"`
	Tasks  int    `yaml:"tasks" env:"TASKS"`
	// Grid is the side length of the square grid.
	Grid int   `yaml:"grid" env:"GRID"`
	Seed int64 `yaml:"seed" env:"SEED"`
}

// SearchConfig tunes the exhaustive search.
type SearchConfig struct {
	Workers        int  `yaml:"workers" env:"WORKERS"`
	BranchAndBound bool `yaml:"branch_and_bound" env:"BRANCH_AND_BOUND"`
	Trace          bool `yaml:"trace" env:"TRACE"`
	KeepTree       bool `yaml:"keep_tree" env:"KEEP_TREE"`
	// RestrictFactor vetoes deadheads above factor*grid/agents. 0 disables.
	RestrictFactor float64 `yaml:"restrict_factor" env:"RESTRICT_FACTOR"`
	// Timeout bounds one search. 0 means no limit.
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// json, console
	Format      string   `yaml:"format" env:"FORMAT"`
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	// File receives the registry in text exposition format. Empty disables.
	File string `yaml:"file" env:"FILE"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Instance: InstanceConfig{
			Agents: 2,
			Tasks:  5,
			Grid:   10,
			Seed:   42,
		},
		Search: SearchConfig{
			Workers: 1,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			OutputPaths: []string{"stderr"},
		},
	}
}

// Loader loads a Config.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the TASKALLOC environment prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "TASKALLOC"}
}

// WithConfigPath sets the YAML file. A missing file is not an error.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a validator run after loading.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load builds the configuration and runs Validate and every added validator.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// setFieldsFromEnv walks v and sets every field whose PREFIX_TAG variable is
// present. Nested structs extend the prefix with their own tag.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// Validate checks ranges. All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Instance.Input == "" {
		if c.Instance.Agents <= 0 {
			errs = append(errs, "instance.agents must be positive")
		}
		if c.Instance.Tasks < 0 {
			errs = append(errs, "instance.tasks must not be negative")
		}
		if c.Instance.Grid <= 0 {
			errs = append(errs, "instance.grid must be positive")
		}
	}
	if c.Search.Workers < 1 {
		errs = append(errs, "search.workers must be at least 1")
	}
	if c.Search.RestrictFactor < 0 {
		errs = append(errs, "search.restrict_factor must not be negative")
	}
	if c.Search.Timeout < 0 {
		errs = append(errs, "search.timeout must not be negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log.level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("unknown log.format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RestrictLimit returns the deadhead veto threshold for the configured
// instance, or 0 when restriction is disabled.
func (s SearchConfig) RestrictLimit(grid, agents int) float64 {
	if s.RestrictFactor <= 0 || agents <= 0 {
		return 0
	}
	return s.RestrictFactor * float64(grid) / float64(agents)
}
