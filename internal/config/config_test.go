package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "deadonfilm.db", cfg.Store.DatabaseURL)
	assert.True(t, cfg.Enrich.StopOnMatch)
	assert.InDelta(t, 0.8, cfg.Enrich.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 2*time.Second, cfg.Enrich.SubjectDelay)
	assert.Equal(t, time.Second, cfg.Enrich.SourceMinDelay)
	assert.InDelta(t, 0.10, cfg.Limits.PerSubject, 1e-9)
	assert.InDelta(t, 5.00, cfg.Limits.Total, 1e-9)

	// Spending categories default off; only free sources run.
	assert.True(t, cfg.Sources.Toggles.Free)
	assert.False(t, cfg.Sources.Toggles.Paid)
	assert.False(t, cfg.Sources.Toggles.AI)

	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Empty(t, cfg.Anthropic.Key)
	assert.NotEmpty(t, cfg.Pricing.Anthropic, "default model pricing should be filled in")
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEADONFILM_STORE_DRIVER", "postgres")
	t.Setenv("DEADONFILM_LIMITS_TOTAL", "1.25")
	t.Setenv("DEADONFILM_SOURCES_ENABLE_AI", "true")
	t.Setenv("DEADONFILM_ANTHROPIC_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.InDelta(t, 1.25, cfg.Limits.Total, 1e-9)
	assert.True(t, cfg.Sources.Toggles.AI)
	assert.Equal(t, "sk-test", cfg.Anthropic.Key)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nope"}))
}
