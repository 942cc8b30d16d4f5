package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, strings.HasSuffix(cfg.TokenPath, filepath.Join("zchat", "tokens.json")))
	assert.False(t, cfg.ForceSync)
	assert.False(t, cfg.Plain)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ZCHAT_BASE_URL", "https://chat.example.com")
	t.Setenv("ZCHAT_TIMEOUT_MS", "5000")
	t.Setenv("ZCHAT_FORCE_SYNC", "true")
	t.Setenv("ZCHAT_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.ForceSync)
	assert.Equal(t, "debug", cfg.LogLevel)
}
