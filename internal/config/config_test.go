package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 20, cfg.ReasoningTimeoutSeconds)
	assert.Equal(t, "classic", cfg.Variant)
	assert.Equal(t, 4, cfg.StoreWorkers)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REASONING_TIMEOUT_SECONDS", "5")
	t.Setenv("AGENT_VARIANT", "realtime_screening")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5, cfg.ReasoningTimeoutSeconds)
	assert.Equal(t, "realtime_screening", cfg.Variant)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "70000")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("REASONING_TIMEOUT_SECONDS", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestJWTConfigValidate(t *testing.T) {
	cfg := JWTConfig{Secret: "", ExpirationHours: 24}
	require.Error(t, cfg.Validate())

	cfg.Secret = "secret"
	cfg.ExpirationHours = 0
	require.Error(t, cfg.Validate())

	cfg.ExpirationHours = 12
	require.NoError(t, cfg.Validate())
}
