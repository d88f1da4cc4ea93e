// Package config provides application configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration.
type Config struct {
	Server           ServerConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	Frankfurter      FrankfurterConfig      `mapstructure:"frankfurter"`
	ExchangeRateHost ExchangeRateHostConfig `mapstructure:"exchangerate_host"`
	CNB              CNBConfig              `mapstructure:"cnb"`
	Sync             SyncConfig
	Worker           WorkerConfig
	Cache            CacheConfig
	Convert          ConvertConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          int  `mapstructure:"port"`
	ServeSwagger  bool `mapstructure:"serve_swagger"`
	ServeAsynqmon bool `mapstructure:"serve_asynqmon"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	Name               string `mapstructure:"name"`
	SSLMode            string `mapstructure:"sslmode"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSec int    `mapstructure:"conn_max_lifetime_sec"`
	DSN                string
}

// RedisConfig holds connection settings for both Redis instances.
type RedisConfig struct {
	AsynqAddr string `mapstructure:"asynq_addr"` // Redis instance for the Asynq task queue (required).
	CacheAddr string `mapstructure:"cache_addr"` // Redis instance for the application cache (required).
}

// FrankfurterConfig holds settings for the Frankfurter provider.
type FrankfurterConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// ExchangeRateHostConfig holds settings for the exchangerate.host provider.
type ExchangeRateHostConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// CNBConfig holds settings for the Czech National Bank provider.
type CNBConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout_sec"`
}

// SyncConfig holds sync orchestration settings.
type SyncConfig struct {
	FetchTimeoutSec int      `mapstructure:"fetch_timeout_sec"` // per-provider call timeout
	Cron            string   `mapstructure:"cron"`              // schedule for the periodic sync
	Currencies      []string `mapstructure:"currencies"`        // currencies the periodic sync covers
	LookbackDays    int      `mapstructure:"lookback_days"`     // how far back the periodic sync reaches
}

// WorkerConfig holds background worker and task queue settings.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MaxRetry    int `mapstructure:"max_retry"`
	TimeoutSec  int `mapstructure:"timeout_sec"`
}

// CacheConfig holds caching settings.
type CacheConfig struct {
	ProviderCurrenciesTTLSec int `mapstructure:"provider_currencies_ttl_sec"`
}

// ConvertConfig holds conversion engine settings.
type ConvertConfig struct {
	StaleWarnDays int `mapstructure:"stale_warn_days"` // backward-fill distance that triggers a warning log
}

// LoadConfig reads configuration from config files, environment variables, and defaults.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("No .env file found or error loading it: %v\n", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Config search paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("./internal/config")

	viper.SetEnvPrefix("RATESYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.serve_swagger", true)
	viper.SetDefault("server.serve_asynqmon", true)
	viper.SetDefault("database.host", "db")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "ratesdb")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 10)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime_sec", 300)
	viper.SetDefault("redis.asynq_addr", "redis_asynq:6380")
	viper.SetDefault("redis.cache_addr", "redis_cache:6381")
	viper.SetDefault("frankfurter.base_url", "https://api.frankfurter.dev/v1")
	viper.SetDefault("frankfurter.timeout_sec", 10)
	viper.SetDefault("exchangerate_host.base_url", "https://api.exchangerate.host")
	viper.SetDefault("exchangerate_host.api_key", "")
	viper.SetDefault("exchangerate_host.timeout_sec", 10)
	viper.SetDefault("cnb.base_url", "https://www.cnb.cz/en/financial-markets/foreign-exchange-market/central-bank-exchange-rate-fixing/central-bank-exchange-rate-fixing")
	viper.SetDefault("cnb.timeout_sec", 10)
	viper.SetDefault("sync.fetch_timeout_sec", 30)
	viper.SetDefault("sync.cron", "0 18 * * 1-5")
	viper.SetDefault("sync.currencies", []string{"EUR", "USD", "GBP", "CHF", "JPY"})
	viper.SetDefault("sync.lookback_days", 7)
	viper.SetDefault("worker.concurrency", 2)
	viper.SetDefault("worker.max_retry", 3)
	viper.SetDefault("worker.timeout_sec", 300)
	viper.SetDefault("cache.provider_currencies_ttl_sec", 86400)
	viper.SetDefault("convert.stale_warn_days", 7)

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if no config file, we have defaults and env
		fmt.Printf("Config file not found: %v\n", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.Database.DSN = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Name, cfg.Database.SSLMode)

	return &cfg, nil
}

// Validate checks that all required configuration fields are set and valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be positive, got %d", c.Server.Port))
	}

	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}
	if c.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}

	if c.Redis.AsynqAddr == "" {
		errs = append(errs, fmt.Errorf("redis.asynq_addr is required (set RATESYNC_REDIS_ASYNQ_ADDR)"))
	}
	if c.Redis.CacheAddr == "" {
		errs = append(errs, fmt.Errorf("redis.cache_addr is required (set RATESYNC_REDIS_CACHE_ADDR)"))
	}

	if c.Sync.FetchTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("sync.fetch_timeout_sec must be positive, got %d", c.Sync.FetchTimeoutSec))
	}
	if c.Sync.Cron == "" {
		errs = append(errs, fmt.Errorf("sync.cron is required"))
	}
	if c.Sync.LookbackDays < 0 {
		errs = append(errs, fmt.Errorf("sync.lookback_days must be non-negative, got %d", c.Sync.LookbackDays))
	}

	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be positive, got %d", c.Worker.Concurrency))
	}
	if c.Worker.MaxRetry < 0 {
		errs = append(errs, fmt.Errorf("worker.max_retry must be non-negative, got %d", c.Worker.MaxRetry))
	}
	if c.Worker.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("worker.timeout_sec must be positive, got %d", c.Worker.TimeoutSec))
	}

	if c.Cache.ProviderCurrenciesTTLSec <= 0 {
		errs = append(errs, fmt.Errorf("cache.provider_currencies_ttl_sec must be positive, got %d", c.Cache.ProviderCurrenciesTTLSec))
	}
	if c.Convert.StaleWarnDays < 0 {
		errs = append(errs, fmt.Errorf("convert.stale_warn_days must be non-negative, got %d", c.Convert.StaleWarnDays))
	}

	return errors.Join(errs...)
}
