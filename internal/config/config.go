package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	AppEnv          string
	Port            string
	DiscordToken    string
	RedisURL        string
	LogLevel        string
	LogFormat       string
	TickInterval    time.Duration
	RefreshInterval time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:       getEnv("APP_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		DiscordToken: getEnv("DISCORD_TOKEN", ""),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
	}

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}

	var err error
	if cfg.TickInterval, err = getDuration("POLL_TICK_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDuration("POLL_REFRESH_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.TickInterval <= 0 || cfg.RefreshInterval <= 0 {
		return nil, fmt.Errorf("poll intervals must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
