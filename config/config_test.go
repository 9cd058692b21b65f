package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "billtrack")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "billtrack")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("MOCK_EMAIL", "true")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10, cfg.DB.MaxConns)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, 4, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.True(t, cfg.Mail.MockMode)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadConfigOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_EXPIRES_IN", "1h")
	t.Setenv("LOCKOUT_DURATION", "30m")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "6")
	t.Setenv("DB_POOL_SIZE", "500") // clamped to 100
	t.Setenv("PORT", "3000")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 6, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 100, cfg.DB.MaxConns)
	assert.Equal(t, "3000", cfg.Server.Port)
}

func TestLoadConfigCollectsAllErrors(t *testing.T) {
	// Two independently broken values must both be reported in a single
	// aggregated error, not just the first one found.
	setBaseEnv(t)
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")
	t.Setenv("DB_PORT", "not-a-number")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_EXPIRES_IN")
	assert.Contains(t, err.Error(), "DB_PORT")
}

func TestLoadConfigRequiresSMTPUserUnlessMocked(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("MOCK_EMAIL", "false")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_USER")
}
