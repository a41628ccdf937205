package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database. Empty means the in-memory store (development only).
	DatabaseURL string

	// Redis. Empty means in-memory sessions (development only).
	RedisURL string

	// Relay
	RelayURL     string
	RelayModel   string
	RelayTimeout time.Duration

	// Admin bootstrap: this username gets the admin role at registration.
	AdminUsername string

	// Frontend
	FrontendURL string

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:          getEnvOrDefault("PORT", "8080"),
		Env:           getEnvOrDefault("ENV", "development"),
		DatabaseURL:   getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:      getEnvOrDefault("REDIS_URL", ""),
		RelayURL:      getEnvOrDefault("RELAY_URL", "http://localhost:11434"),
		RelayModel:    getEnvOrDefault("RELAY_MODEL", "llama2:7b"),
		RelayTimeout:  getEnvAsDurationOrDefault("RELAY_TIMEOUT", 30*time.Second),
		AdminUsername: getEnvOrDefault("ADMIN_USERNAME", ""),
		FrontendURL:   getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.Env == "production" {
		if cfg.DatabaseURL == "" {
			panic("DATABASE_URL is required in production")
		}
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
