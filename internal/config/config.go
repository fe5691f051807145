package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the runtime configuration, sourced from environment variables.
type Config struct {
	DatabaseURL   string
	Port          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	WebhookSecret string
	CacheEnabled  bool
}

// Load reads configuration from the environment. DATABASE_URL is required;
// everything else has a development default.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          8080,
		RedisAddr:     "localhost:6379",
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       0,
		WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		CacheEnabled:  true,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		db, err := strconv.Atoi(dbStr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", dbStr, err)
		}
		cfg.RedisDB = db
	}
	if os.Getenv("CACHE_ENABLED") == "false" {
		cfg.CacheEnabled = false
	}

	return cfg, nil
}
