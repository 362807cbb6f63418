package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "parbreak", cfg.Service.Name)
	assert.Equal(t, DefaultListen, cfg.Service.Listen)
	assert.Equal(t, "INFO", cfg.Service.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Service.TakeBackoff)
	assert.Equal(t, 2048, cfg.Service.ReadBuffer)
	assert.False(t, cfg.API.Enabled)
}

func TestLoadAppliesDefaultsOverPartialFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
service:
  listen: ":6000"
  take_backoff: 250ms
api:
  enabled: true
  api_key: sekrit
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":6000", cfg.Service.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.Service.TakeBackoff)
	// Unset fields fall back to defaults.
	assert.Equal(t, "parbreak", cfg.Service.Name)
	assert.Equal(t, 2048, cfg.Service.ReadBuffer)
	assert.True(t, cfg.API.Enabled)
	assert.Equal(t, "127.0.0.1:8600", cfg.API.Listen)
	assert.Equal(t, "sekrit", cfg.API.APIKey)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadListenAddress(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  listen: not-an-address\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestReadCommandFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs.txt")
	data := "echo one\n\n  echo two  \n\necho three"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	commands, err := ReadCommandFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo one", "echo two", "echo three"}, commands)
}

func TestReadCommandFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadCommandFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
