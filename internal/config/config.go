package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       uint16
	Label      string
	QueueLimit int
	StatusAddr string // empty disables the status API
	LogLevel   slog.Level
}

// Load reads the configuration from the environment, after applying an
// optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	port, err := strconv.ParseUint(getEnv("RELAY_PORT", "3001"), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("RELAY_PORT must be a port number: %w", err)
	}

	queueLimit, err := strconv.Atoi(getEnv("QUEUE_LIMIT", "1024"))
	if err != nil {
		return nil, fmt.Errorf("QUEUE_LIMIT must be an integer: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:       uint16(port),
		Label:      getEnv("RELAY_LABEL", "Klyra"),
		QueueLimit: queueLimit,
		StatusAddr: os.Getenv("STATUS_ADDR"),
		LogLevel:   level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return fmt.Errorf("RELAY_LABEL must not be empty")
	}

	if c.QueueLimit < 0 {
		return fmt.Errorf("QUEUE_LIMIT must be 0 (unbounded) or greater")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
