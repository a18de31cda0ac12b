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
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8086", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Session.RevealDelay.Std())
	assert.Equal(t, 4*time.Hour, cfg.Presence.TTL.Std())
	assert.False(t, cfg.Enrichment.Enabled)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9000"
session:
  reveal_delay: 150ms
enrichment:
  enabled: true
  url: http://localhost:9999
  language: nl
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 150*time.Millisecond, cfg.Session.RevealDelay.Std())
	assert.True(t, cfg.Enrichment.Enabled)
	assert.Equal(t, "nl", cfg.Enrichment.Language)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "7001")
	t.Setenv("PRESENCE_TTL", "30m")
	t.Setenv("ENRICHMENT_ENABLED", "true")
	t.Setenv("ENRICHMENT_URL", "http://gen.internal")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7001", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Presence.TTL.Std())
	assert.True(t, cfg.Enrichment.Enabled)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = "not-a-port"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Enrichment.Enabled = true
	cfg.Enrichment.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Enrichment.Language = "fr"
	assert.Error(t, cfg.Validate())

	cfg = defaultConfig()
	cfg.Presence.TTL = 0
	assert.Error(t, cfg.Validate())
}
