// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Payroll  PayrollConfig
	Sweeper  SweeperConfig
}

type AppConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Path string
}

// PayrollConfig holds business-rule configuration.
type PayrollConfig struct {
	// Timezone is the business timezone all period decisions are made in.
	Timezone string
}

type SweeperConfig struct {
	Enabled  bool
	Interval time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	sweepEnabled, err := strconv.ParseBool(getEnv("SWEEP_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_ENABLED: %w", err)
	}

	return &Config{
		App: AppConfig{
			Port: appPort,
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/payroll.db"),
		},
		Payroll: PayrollConfig{
			Timezone: getEnv("PAYROLL_TZ", "Asia/Kolkata"),
		},
		Sweeper: SweeperConfig{
			Enabled:  sweepEnabled,
			Interval: sweepInterval,
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
