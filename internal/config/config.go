// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress       = "localhost:8080"
	defaultRedisAddress     = "localhost:6379"
	defaultSessionTTL       = 7 * 24 * time.Hour
	defaultWorkspaceIdleTTL = 30 * time.Minute
)

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress       string        `env:"RUN_ADDRESS"`
	DatabaseURI      string        `env:"DATABASE_URI"`
	RedisAddress     string        `env:"REDIS_ADDRESS"`
	ClientSecret     string        `env:"CLIENT_SECRET"`
	SessionTTL       time.Duration `env:"SESSION_TTL"`
	WorkspaceIdleTTL time.Duration `env:"WORKSPACE_IDLE_TTL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Непустые переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.RedisAddress, "r", defaultRedisAddress, "redis address for sessions")
	flag.StringVar(&cfg.ClientSecret, "s", "", "secret for signing client cookies")
	flag.DurationVar(&cfg.SessionTTL, "t", defaultSessionTTL, "session lifetime")
	flag.DurationVar(&cfg.WorkspaceIdleTTL, "i", defaultWorkspaceIdleTTL, "idle time before a client workspace is evicted")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.RedisAddress != "" {
		cfg.RedisAddress = fromEnv.RedisAddress
	}
	if fromEnv.ClientSecret != "" {
		cfg.ClientSecret = fromEnv.ClientSecret
	}
	if fromEnv.SessionTTL != 0 {
		cfg.SessionTTL = fromEnv.SessionTTL
	}
	if fromEnv.WorkspaceIdleTTL != 0 {
		cfg.WorkspaceIdleTTL = fromEnv.WorkspaceIdleTTL
	}

	cfg.applyDefaults()

	return cfg, nil
}

// FromEnv считывает конфигурацию только из переменных окружения.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RunAddress == "" {
		c.RunAddress = defaultRunAddress
	}
	if c.RedisAddress == "" {
		c.RedisAddress = defaultRedisAddress
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.WorkspaceIdleTTL <= 0 {
		c.WorkspaceIdleTTL = defaultWorkspaceIdleTTL
	}
}
