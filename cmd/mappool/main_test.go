package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mappool/mappool/internal/demo"
	"github.com/mappool/mappool/pkg/config"
	"github.com/mappool/mappool/pkg/logger"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := logger.Get()
	t.Cleanup(func() { logger.Set(prev) })

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mappool v"+version)
}

func TestDemoCommand(t *testing.T) {
	for _, args := range [][]string{{"demo"}, {"demo", "--sharded", "--shards", "2"}} {
		out, err := execute(t, args...)
		require.NoError(t, err, args)
		assert.Contains(t, out, "MapPool example started")
		assert.Contains(t, out, "MapPool example finished")
		assert.NotContains(t, out, "FAIL")
	}
}

func TestStressCommand(t *testing.T) {
	out, err := execute(t, "stress", "--workers", "4", "--objects", "400", "--metrics", "--log-level", "warn")
	require.NoError(t, err)

	var result demo.StressResult
	require.NoError(t, gojson.Unmarshal([]byte(out), &result))
	assert.Equal(t, 4, result.Workers)
	assert.Equal(t, 400, result.Objects)
	assert.Equal(t, 400, result.Hits+result.Drained)
	assert.EqualValues(t, 400, result.Stats.Puts)
	assert.EqualValues(t, 400, result.Freed)
}

func TestConfigCommandWritesEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "effective.yaml")
	t.Setenv("MAPPOOL_STRESS_WORKERS", "3")

	out, err := execute(t, "config", "--output", path, "--pool-name", "written")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	loaded := config.NewConfig()
	require.NoError(t, config.Load(path, loaded))
	assert.Equal(t, "written", loaded.Pool.Name)
	assert.Equal(t, 3, loaded.Stress.Workers)
}

func TestInvalidConfigFails(t *testing.T) {
	_, err := execute(t, "stress", "--workers", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stress.workers")
}

func TestLoadConfigLayering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool:\n  name: from-file\nstress:\n  objects: 50\n"), 0o600))
	t.Setenv("MAPPOOL_STRESS_OBJECTS", "75")
	prev := logger.Get()
	t.Cleanup(func() { logger.Set(prev) })

	cfg, err := loadConfig(path, viper.New())
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Pool.Name)
	assert.Equal(t, 75, cfg.Stress.Objects, "environment overrides file")
}

func TestStressWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	_, err := execute(t, "stress", "--workers", "2", "--objects", "100", "--cpuprofile", cpu, "--memprofile", mem)
	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, mem)
}
