// Package config loads and validates environment-driven configuration for
// the fleet server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/truckwise/fleet-server/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LogLevel observability.LogLevel
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds token and identity cache configuration
type AuthConfig struct {
	// JWTSecret signs and verifies every token. Required.
	JWTSecret string
	// TokenLifetime bounds how long issued tokens are accepted
	TokenLifetime time.Duration
	// CacheTTL bounds how long a cached identity may serve the standard
	// verifier's fallback path
	CacheTTL time.Duration
	// CacheSweepInterval is how often expired cache entries are swept
	CacheSweepInterval time.Duration
	// LoginRateLimit is the max login attempts per IP per window
	LoginRateLimit int
	// LoginRateWindow is the login rate limit window
	LoginRateWindow time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds optional Redis configuration. An empty address disables
// the login rate limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("FLEET_HOST", "0.0.0.0"),
			Port:            getEnv("FLEET_PORT", "8080"),
			ReadTimeout:     getEnvDuration("FLEET_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("FLEET_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("FLEET_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("FLEET_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("FLEET_JWT_SECRET", ""),
			TokenLifetime:      getEnvDuration("FLEET_TOKEN_LIFETIME", 24*time.Hour),
			CacheTTL:           getEnvDuration("FLEET_IDENTITY_CACHE_TTL", 10*time.Minute),
			CacheSweepInterval: getEnvDuration("FLEET_IDENTITY_CACHE_SWEEP_INTERVAL", 5*time.Minute),
			LoginRateLimit:     getEnvInt("FLEET_LOGIN_RATE_LIMIT", 10),
			LoginRateWindow:    getEnvDuration("FLEET_LOGIN_RATE_WINDOW", time.Minute),
		},
		Database: DatabaseConfig{
			URL:             getEnv("FLEET_POSTGRES_URL", ""),
			MaxOpenConns:    getEnvInt("FLEET_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns:    getEnvInt("FLEET_POSTGRES_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("FLEET_POSTGRES_CONN_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("FLEET_REDIS_ADDR", ""),
			Password: getEnv("FLEET_REDIS_PASSWORD", ""),
			DB:       getEnvInt("FLEET_REDIS_DB", 0),
		},
		LogLevel: observability.ParseLevel(getEnv("FLEET_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("FLEET_JWT_SECRET is required")
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if c.Auth.CacheTTL <= 0 {
		return fmt.Errorf("identity cache TTL must be positive")
	}
	if c.Auth.CacheSweepInterval <= 0 {
		return fmt.Errorf("identity cache sweep interval must be positive")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("FLEET_POSTGRES_URL is required")
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
