package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskalloc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Search.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoader_File(t *testing.T) {
	path := writeFile(t, `
instance:
  agents: 3
  tasks: 7
  grid: 20
  seed: 7
search:
  workers: 4
  branch_and_bound: true
  restrict_factor: 0.5
  timeout: 30s
log:
  level: debug
  format: json
metrics:
  file: out.prom
`)

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, InstanceConfig{Agents: 3, Tasks: 7, Grid: 20, Seed: 7}, cfg.Instance)
	assert.Equal(t, 4, cfg.Search.Workers)
	assert.True(t, cfg.Search.BranchAndBound)
	assert.Equal(t, 0.5, cfg.Search.RestrictFactor)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Log.OutputPaths, "unset keys keep defaults")
	assert.Equal(t, "out.prom", cfg.Metrics.File)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "instance:\n  agents: 3\nsearch:\n  workers: 2\n")
	t.Setenv("TASKALLOC_INSTANCE_AGENTS", "4")
	t.Setenv("TASKALLOC_SEARCH_KEEP_TREE", "true")
	t.Setenv("TASKALLOC_SEARCH_TIMEOUT", "1m")
	t.Setenv("TASKALLOC_LOG_OUTPUT_PATHS", "stdout, run.log")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Instance.Agents)
	assert.Equal(t, 2, cfg.Search.Workers)
	assert.True(t, cfg.Search.KeepTree)
	assert.Equal(t, time.Minute, cfg.Search.Timeout)
	assert.Equal(t, []string{"stdout", "run.log"}, cfg.Log.OutputPaths)
}

func TestLoader_EnvPrefix(t *testing.T) {
	t.Setenv("BENCH_INSTANCE_TASKS", "7")
	t.Setenv("TASKALLOC_INSTANCE_TASKS", "9")

	cfg, err := NewLoader().WithEnvPrefix("BENCH").Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Instance.Tasks)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := NewLoader().WithConfigPath(writeFile(t, "search: [")).Load()
		assert.Error(t, err)
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("TASKALLOC_SEARCH_WORKERS", "many")
		_, err := NewLoader().Load()
		assert.ErrorContains(t, err, "TASKALLOC_SEARCH_WORKERS")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "search:\n  workers: 0\nlog:\n  level: loud\n")
		_, err := NewLoader().WithConfigPath(path).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search.workers")
		assert.Contains(t, err.Error(), "log.level")
	})

	t.Run("custom validator", func(t *testing.T) {
		sentinel := errors.New("too many tasks")
		_, err := NewLoader().WithValidator(func(c *Config) error {
			if c.Instance.Tasks > 3 {
				return sentinel
			}
			return nil
		}).Load()
		assert.ErrorIs(t, err, sentinel)
	})
}

func TestValidate_InputSkipsGeneratorChecks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Instance = InstanceConfig{Input: "instance.json"}
	assert.NoError(t, cfg.Validate())
}

func TestRestrictLimit(t *testing.T) {
	assert.Equal(t, 0.0, SearchConfig{}.RestrictLimit(10, 2))
	assert.Equal(t, 2.5, SearchConfig{RestrictFactor: 0.5}.RestrictLimit(10, 2))
	assert.Equal(t, 0.0, SearchConfig{RestrictFactor: 0.5}.RestrictLimit(10, 0))
}
