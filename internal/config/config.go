// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the server.
type Config struct {
	Port           int
	DBDriver       string
	DBPath         string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	SettlementMode string
	LogLevel       string
	MetricsEnabled bool
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:           8080,
		DBDriver:       getEnv("DB_DRIVER", DriverSQLite),
		DBPath:         getEnv("DB_PATH", "./data/ledger.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTL:       24 * time.Hour,
		SettlementMode: getEnv("SETTLEMENT_MODE", "recompute"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		MetricsEnabled: true,
	}

	var errs []string

	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 {
			errs = append(errs, fmt.Sprintf("PORT must be a valid port number, got %q", portStr))
		} else {
			cfg.Port = p
		}
	}

	if ttlStr := os.Getenv("TOKEN_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil || ttl <= 0 {
			errs = append(errs, fmt.Sprintf("TOKEN_TTL must be a positive duration, got %q", ttlStr))
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("METRICS_ENABLED must be a boolean, got %q", v))
		} else {
			cfg.MetricsEnabled = enabled
		}
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// validate checks that all required configuration is present and consistent.
func (c *Config) validate() []string {
	var errs []string

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, "DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DBDriver))
	}

	switch c.SettlementMode {
	case "recompute", "offset":
	default:
		errs = append(errs, fmt.Sprintf("SETTLEMENT_MODE must be \"recompute\" or \"offset\", got %q", c.SettlementMode))
	}

	return errs
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
