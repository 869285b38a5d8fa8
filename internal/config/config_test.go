package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/backoffice")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Development())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Identifier.Issuer.MaxAttempts)
	assert.False(t, cfg.Identifier.Issuer.DisableFallback)
	assert.False(t, cfg.Identifier.Watermarks)
	assert.False(t, cfg.Database.Migrate)
	assert.Equal(t, int32(10), cfg.Database.Pool.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Worker.ReconcileInterval)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/backoffice")
	t.Setenv("APP_ENV", "production")
	t.Setenv("IDENTIFIER_MAX_ATTEMPTS", "5")
	t.Setenv("IDENTIFIER_FALLBACK", "false")
	t.Setenv("IDENTIFIER_WATERMARKS", "true")
	t.Setenv("DB_MAX_CONNS", "20")
	t.Setenv("DB_MIN_CONNS", "0")
	t.Setenv("RECONCILE_INTERVAL", "1m")
	t.Setenv("MIGRATE", "yes") // not a bool: default kept

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.False(t, cfg.Development())
	assert.Equal(t, 5, cfg.Identifier.Issuer.MaxAttempts)
	assert.True(t, cfg.Identifier.Issuer.DisableFallback)
	assert.True(t, cfg.Identifier.Watermarks)
	assert.Equal(t, int32(20), cfg.Database.Pool.MaxConns)
	assert.Equal(t, int32(0), cfg.Database.Pool.MinConns)
	assert.Equal(t, time.Minute, cfg.Worker.ReconcileInterval)
	assert.False(t, cfg.Database.Migrate)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/backoffice")
	t.Setenv("IDENTIFIER_MAX_ATTEMPTS", "0")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "IDENTIFIER_MAX_ATTEMPTS")

	t.Setenv("IDENTIFIER_MAX_ATTEMPTS", "3")
	t.Setenv("DB_MIN_CONNS", "50")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "DB_MIN_CONNS")
}
