package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, time.Second, cfg.Database.WaitInterval)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Empty(t, cfg.Redis.Addr)
	assert.True(t, cfg.InsecureJwtSecret())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("http_port: 9000\ndatabase:\n  driver: sqlite\n  url: \"file::memory:\"\n  wait_interval: 250ms\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("RECIPE_JWT_SECRET", "from-env")
	t.Setenv("RECIPE_REDIS_ADDR", "localhost:6380")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:", cfg.Database.URL)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.WaitInterval)
	assert.Equal(t, "from-env", cfg.JwtSecret)
	assert.False(t, cfg.InsecureJwtSecret())
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
}
