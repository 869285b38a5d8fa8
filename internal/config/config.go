// Package config loads process configuration from the environment.
// A .env file in the working directory, if present, is read first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"backoffice/internal/core/identifier"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// Config is the complete application configuration.
type Config struct {
	Env        string
	Log        logger.Config
	Server     ServerConfig
	Database   DatabaseConfig
	Identifier IdentifierConfig
	Worker     WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	IdempotencyTTL time.Duration // 0 disables X-Idempotency-Key replay
	ShutdownGrace  time.Duration
}

// DatabaseConfig holds connection and migration settings.
type DatabaseConfig struct {
	Pool             postgres.PoolConfig
	StatementTimeout time.Duration
	Migrate          bool
}

// IdentifierConfig controls reference generation.
type IdentifierConfig struct {
	Issuer     identifier.IssuerConfig
	Watermarks bool
	Audit      bool
}

// WorkerConfig holds background job settings.
type WorkerConfig struct {
	ReconcileInterval time.Duration
}

// Development reports whether APP_ENV is development.
func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads .env (optional) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env: env,
		Log: logger.Config{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: env == "development",
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			ShutdownGrace:  getEnvDuration("SHUTDOWN_GRACE", 30*time.Second),
		},
		Database: DatabaseConfig{
			Pool:             postgres.DefaultPoolConfig(dsn),
			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 5*time.Second),
			Migrate:          getEnvBool("MIGRATE", false),
		},
		Identifier: IdentifierConfig{
			Issuer: identifier.IssuerConfig{
				MaxAttempts:     getEnvInt("IDENTIFIER_MAX_ATTEMPTS", identifier.DefaultMaxAttempts),
				DisableFallback: !getEnvBool("IDENTIFIER_FALLBACK", true),
			},
			Watermarks: getEnvBool("IDENTIFIER_WATERMARKS", false),
			Audit:      getEnvBool("AUDIT_ENABLED", true),
		},
		Worker: WorkerConfig{
			ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 15*time.Minute),
		},
	}

	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		cfg.Database.Pool.MaxConns = int32(maxConns)
	}
	if minConns := getEnvInt("DB_MIN_CONNS", -1); minConns >= 0 {
		cfg.Database.Pool.MinConns = int32(minConns)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Identifier.Issuer.MaxAttempts < 1 {
		return fmt.Errorf("IDENTIFIER_MAX_ATTEMPTS must be positive, got %d", c.Identifier.Issuer.MaxAttempts)
	}
	if c.Database.Pool.MinConns > c.Database.Pool.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Database.Pool.MinConns, c.Database.Pool.MaxConns)
	}
	if c.Worker.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
