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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "v19.0", cfg.Graph.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.Refresh.RealInterval)
	assert.Equal(t, 3*time.Second, cfg.Refresh.SimulatedInterval)
	assert.Equal(t, 60*time.Second, cfg.Refresh.ChartInterval)
	assert.Equal(t, 13, cfg.Refresh.ChartWindow)
	assert.True(t, cfg.Refresh.AutoRefresh)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adsreporter.yaml")
	content := `
server:
  port: "9000"
graph:
  api_version: v20.0
refresh:
  real_interval: 45s
  auto_refresh: false
storage:
  path: /tmp/reporter.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "k-123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port, "env overrides file")
	assert.Equal(t, "v20.0", cfg.Graph.APIVersion)
	assert.Equal(t, 45*time.Second, cfg.Refresh.RealInterval)
	assert.False(t, cfg.Refresh.AutoRefresh)
	assert.Equal(t, "/tmp/reporter.db", cfg.Storage.Path)
	assert.Equal(t, "k-123", cfg.AI.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Refresh.SimulatedInterval, "unset keys keep defaults")
}

func TestLoadLegacyAPIKeyEnv(t *testing.T) {
	t.Setenv("API_KEY", "legacy")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.AI.APIKey)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load("")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getListEnv("ALLOWED_ORIGINS", nil))
}
