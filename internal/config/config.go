package config

import (
	"os"
	"strconv"
	"time"

	"regact/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Scoring   ScoringConfig
	Profiling ProfilingConfig
}

// DatabaseConfig holds result store settings. An empty URL means no durable
// store; the service falls back to in-memory storage.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// Enabled reports whether a durable store is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MaxConcurrentRuns caps simultaneous scoring requests; further
	// requests wait at the gate.
	MaxConcurrentRuns int
}

// ScoringConfig holds the default determinism tuple for runs that do not
// override it per request.
type ScoringConfig struct {
	Seed        int64
	Times       int
	MinSize     int
	Workers     int
	CodeVersion string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("REGACT_DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:              getEnvOrDefault("REGACT_PORT", "8080"),
			ReadTimeout:       getEnvDurationOrDefault("REGACT_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDurationOrDefault("REGACT_WRITE_TIMEOUT", 5*time.Minute),
			ShutdownTimeout:   getEnvDurationOrDefault("REGACT_SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxConcurrentRuns: getEnvIntOrDefault("REGACT_MAX_CONCURRENT_RUNS", 4),
		},
		Scoring: ScoringConfig{
			Seed:        getEnvInt64OrDefault("REGACT_SEED", 42),
			Times:       getEnvIntOrDefault("REGACT_TIMES", 100),
			MinSize:     getEnvIntOrDefault("REGACT_MIN_SIZE", 5),
			Workers:     getEnvIntOrDefault("REGACT_WORKERS", 0),
			CodeVersion: getEnvOrDefault("REGACT_CODE_VERSION", "dev"),
		},
		Profiling: ProfilingConfig{
			Port:    getEnvOrDefault("PPROF_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Server.MaxConcurrentRuns < 1 {
		return errors.ConfigInvalid("REGACT_MAX_CONCURRENT_RUNS must be at least 1")
	}
	if config.Scoring.Times < 2 {
		return errors.ConfigInvalid("REGACT_TIMES must be at least 2")
	}
	if config.Scoring.MinSize < 0 {
		return errors.ConfigInvalid("REGACT_MIN_SIZE must not be negative")
	}
	if config.Scoring.Workers < 0 {
		return errors.ConfigInvalid("REGACT_WORKERS must not be negative")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
