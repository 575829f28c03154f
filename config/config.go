package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPHost = "0.0.0.0"
	defaultHTTPPort = 8080
	defaultLogLevel = "info"
)

// Config keeps the runtime configuration for the service.
type Config struct {
	HTTP     HTTPConfig
	Postgres PostgresConfig
	LogLevel string
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// PostgresConfig stores database connection parameters. An empty DSN selects
// the in-memory store.
type PostgresConfig struct {
	DSN string
}

// Load builds Config from environment variables, reading .env first when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := getInt("SERVER_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse SERVER_PORT: %w", err)
	}

	return &Config{
		HTTP: HTTPConfig{
			Host: getString("SERVER_HOST", defaultHTTPHost),
			Port: port,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("DATABASE_URL"),
		},
		LogLevel: getString("LOG_LEVEL", defaultLogLevel),
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}
