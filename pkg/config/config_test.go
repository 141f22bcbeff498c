package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mappool/mappool/pkg/errors"
)

func TestNewConfigIsValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "objects", cfg.Pool.Name)
	assert.Equal(t, 10000, cfg.Stress.Objects)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty pool name", func(c *Config) { c.Pool.Name = "" }, "pool.name"},
		{"sharded without shards", func(c *Config) { c.Pool.Sharded = true; c.Pool.Shards = 0 }, "pool.shards"},
		{"no workers", func(c *Config) { c.Stress.Workers = 0 }, "stress.workers"},
		{"negative objects", func(c *Config) { c.Stress.Objects = -1 }, "stress.objects"},
		{"no timeout", func(c *Config) { c.Stress.Timeout = 0 }, "stress.timeout"},
		{"bad encoding", func(c *Config) { c.Log.Encoding = "xml" }, "log encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadKeepsDefaultsAndSubstitutesEnv(t *testing.T) {
	t.Setenv("MAPPOOL_TEST_ADDR", ":9191")

	path := filepath.Join(t.TempDir(), "mappool.yaml")
	content := `
pool:
  name: vehicles
  sharded: true
stress:
  workers: 3
  timeout: 5s
metrics:
  enabled: true
  addr: "${MAPPOOL_TEST_ADDR}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := NewConfig()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "vehicles", cfg.Pool.Name)
	assert.True(t, cfg.Pool.Sharded)
	assert.Equal(t, 16, cfg.Pool.Shards, "default kept")
	assert.Equal(t, 3, cfg.Stress.Workers)
	assert.Equal(t, 10000, cfg.Stress.Objects, "default kept")
	assert.Equal(t, 5*time.Second, cfg.Stress.Timeout)
	assert.Equal(t, ":9191", cfg.Metrics.Addr)
	require.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	err := Load(filepath.Join(t.TempDir(), "missing.yaml"), NewConfig())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool: [unclosed"), 0o600))
	err = Load(path, NewConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := NewConfig()
	cfg.Pool.Name = "saved"
	require.NoError(t, Save(path, cfg))

	loaded := &Config{}
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, "saved", loaded.Pool.Name)
	assert.Equal(t, cfg.Stress.Timeout, loaded.Stress.Timeout)
}

func TestSubstituteEnvVarsUnset(t *testing.T) {
	assert.Equal(t, "addr: ", substituteEnvVars("addr: ${MAPPOOL_DEFINITELY_UNSET_VAR}"))
	assert.Equal(t, "no vars", substituteEnvVars("no vars"))
}
