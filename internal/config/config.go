package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds the whole application configuration, populated from the environment.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Voucher  VoucherConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

// VoucherConfig drives the redemption engine and the voucher cache.
type VoucherConfig struct {
	// Timezone is the IANA zone used for the redeemable-days rule.
	Timezone string
	CacheTTL time.Duration
}

type WorkerConfig struct {
	SweepCron   string
	Concurrency int
	HealthAddr  string
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Voucher API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "vouchers"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTTL: getEnvDuration("JWT_ACCESS_TTL", 24*time.Hour),
		},
		Voucher: VoucherConfig{
			Timezone: getEnv("VOUCHER_TIMEZONE", "UTC"),
			CacheTTL: getEnvDuration("VOUCHER_CACHE_TTL", 5*time.Minute),
		},
		Worker: WorkerConfig{
			SweepCron:   getEnv("WORKER_SWEEP_CRON", "@hourly"),
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 5),
			HealthAddr:  getEnv("WORKER_HEALTH_ADDR", ":9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.Voucher.Location(); err != nil {
		return fmt.Errorf("VOUCHER_TIMEZONE: %w", err)
	}
	if c.Voucher.CacheTTL < 0 {
		return fmt.Errorf("VOUCHER_CACHE_TTL must not be negative")
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY must be at least 1")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Location resolves Timezone. An empty zone means UTC.
func (v VoucherConfig) Location() (*time.Location, error) {
	if v.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(v.Timezone)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
