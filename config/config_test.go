package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("PLATFORM_FEE_RATE", "")
	t.Setenv("COUNTDOWN_SECONDS", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.True(t, cfg.PlatformFeeRate.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, 10*time.Second, cfg.CountdownDuration)
	assert.Equal(t, 60*time.Second, cfg.CancelCooldown)
	assert.Equal(t, 10*time.Second, cfg.DisconnectAfter)
	assert.Equal(t, 30*time.Second, cfg.AbandonAfter)
	assert.Equal(t, 10*time.Minute, cfg.OpenMatchWindow)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("PLATFORM_FEE_RATE", "0.1")
	t.Setenv("COUNTDOWN_SECONDS", "3")
	t.Setenv("OPEN_MATCH_WINDOW_MINUTES", "2")
	t.Setenv("MAX_STAKE", "500")
	t.Setenv("MATCH_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := load()
	require.NoError(t, err)

	assert.True(t, cfg.PlatformFeeRate.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, 3*time.Second, cfg.CountdownDuration)
	assert.Equal(t, 2*time.Minute, cfg.OpenMatchWindow)
	assert.True(t, cfg.MaxStake.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 900*time.Second, cfg.MatchTimeout)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("fee rate out of range", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "test")
		t.Setenv("PLATFORM_FEE_RATE", "1")
		_, err := load()
		assert.Error(t, err)
	})

	t.Run("disconnect not below abandon", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "test")
		t.Setenv("DISCONNECT_AFTER_SECONDS", "30")
		t.Setenv("ABANDON_AFTER_SECONDS", "30")
		_, err := load()
		assert.Error(t, err)
	})

	t.Run("production requires database and secret", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("DATABASE_URL", "")
		_, err := load()
		assert.Error(t, err)

		t.Setenv("DATABASE_URL", "postgres://localhost:5432")
		t.Setenv("JWT_SECRET", "")
		_, err = load()
		assert.Error(t, err)
	})
}

func TestSetTestConfig(t *testing.T) {
	defer ResetConfig()

	cfg := NewTestConfig()
	cfg.HTTPAddr = ":9999"
	SetTestConfig(cfg)
	assert.Same(t, cfg, Get())

	ResetConfig()
	t.Setenv("ENVIRONMENT", "test")
	assert.NotSame(t, cfg, Get())
}
