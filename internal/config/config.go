package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config carries all process configuration, parsed from the environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL" envDefault:"info"`

	// Generative vendor
	VeniceAPIKey    string `env:"VENICE_API_KEY"`
	ModelName       string `env:"MODEL_NAME" envDefault:"llama-3.3-70b"`
	ImageModelName  string `env:"IMAGE_MODEL_NAME" envDefault:"venice-sd35"`
	StageTimeoutRaw string `env:"STAGE_TIMEOUT" envDefault:"60s"`

	// Storage and counters
	RedisURL     string `env:"REDIS_URL" envDefault:"localhost:6379"`
	CounterStore string `env:"COUNTER_STORE" envDefault:"memory"` // memory, redis, sqlite
	CounterDB    string `env:"COUNTER_DB" envDefault:"./data/counters.db"`

	// World content
	RulesPath string `env:"RULES_PATH"`

	LogLevel     slog.Level    `env:"-"`
	StageTimeout time.Duration `env:"-"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)

	timeout, err := time.ParseDuration(cfg.StageTimeoutRaw)
	if err != nil {
		return nil, fmt.Errorf("invalid STAGE_TIMEOUT %q: %w", cfg.StageTimeoutRaw, err)
	}
	cfg.StageTimeout = timeout

	switch cfg.CounterStore {
	case "memory", "redis", "sqlite":
	default:
		return nil, fmt.Errorf("invalid COUNTER_STORE %q: must be memory, redis, or sqlite", cfg.CounterStore)
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
