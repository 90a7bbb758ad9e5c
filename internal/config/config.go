// Package config содержит логику чтения конфигурации движка сессии агромагазина.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации движка сессии.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	GatewayAddress string        `env:"GATEWAY_ADDRESS"`
	DeviceID       string        `env:"DEVICE_ID"`
	GatewayTimeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envGatewayAddress := cfg.GatewayAddress
	envDeviceID := cfg.DeviceID

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8090", "address and port for local API")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for local state, in-memory when empty")
	flag.StringVar(&cfg.GatewayAddress, "g", "localhost:8080", "commerce gateway address")
	flag.StringVar(&cfg.DeviceID, "i", "default", "device id for persisted local state")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envGatewayAddress != "" {
		cfg.GatewayAddress = envGatewayAddress
	}
	if envDeviceID != "" {
		cfg.DeviceID = envDeviceID
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8090"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "default"
	}
	if cfg.GatewayTimeout <= 0 {
		return nil, fmt.Errorf("gateway timeout must be positive, got %s", cfg.GatewayTimeout)
	}

	return cfg, nil
}
