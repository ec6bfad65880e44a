package config

import (
	"fmt"
	"time"

	"github.com/kurtadodoli/sevenfour-sub006/internal/domain"
	pkgconfig "github.com/kurtadodoli/sevenfour-sub006/pkg/config"
	"github.com/kurtadodoli/sevenfour-sub006/pkg/database"
)

// Config holds all configuration for the inventory service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"INVENTORY_HTTP_PORT" envDefault:"8010"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"sevenfour"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"sevenfour_secret"`
	PostgresDB   string `env:"INVENTORY_DB_NAME" envDefault:"inventory_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Redis
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Stock status classification thresholds (units of available stock)
	CriticalStockThreshold int `env:"CRITICAL_STOCK_THRESHOLD" envDefault:"5"`
	LowStockThreshold      int `env:"LOW_STOCK_THRESHOLD" envDefault:"15"`

	// Product summary cache TTL in seconds
	SummaryCacheTTL int `env:"SUMMARY_CACHE_TTL_SECONDS" envDefault:"300"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load inventory config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.CriticalStockThreshold < 0 {
		return fmt.Errorf("CRITICAL_STOCK_THRESHOLD must be >= 0, got %d", c.CriticalStockThreshold)
	}
	if c.LowStockThreshold < c.CriticalStockThreshold {
		return fmt.Errorf("LOW_STOCK_THRESHOLD (%d) must be >= CRITICAL_STOCK_THRESHOLD (%d)",
			c.LowStockThreshold, c.CriticalStockThreshold)
	}
	if c.SummaryCacheTTL <= 0 {
		return fmt.Errorf("SUMMARY_CACHE_TTL_SECONDS must be > 0, got %d", c.SummaryCacheTTL)
	}
	return nil
}

// Postgres returns the database connection configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the Redis connection configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}

// StockThresholds returns the configured classification thresholds.
func (c *Config) StockThresholds() domain.StockThresholds {
	return domain.StockThresholds{
		Critical: c.CriticalStockThreshold,
		Low:      c.LowStockThreshold,
	}
}

// SummaryTTL returns the cache TTL as a duration.
func (c *Config) SummaryTTL() time.Duration {
	return time.Duration(c.SummaryCacheTTL) * time.Second
}
