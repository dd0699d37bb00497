package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Source types accepted by source.type.
const (
	SourceSynthetic  = "synthetic"
	SourceYahoo      = "yahoo"
	SourceAlpaca     = "alpaca"
	SourceClickHouse = "clickhouse"
	SourceSQLite     = "sqlite"
	SourcePostgres   = "postgres"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            struct {
			Enabled bool     `yaml:"enabled"`
			Origins []string `yaml:"origins"`
		} `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logger struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logger"`
	Source struct {
		Type      string        `yaml:"type"`
		Timeout   time.Duration `yaml:"timeout"`
		Synthetic struct {
			Seed uint64 `yaml:"seed"`
		} `yaml:"synthetic"`
		Yahoo struct {
			BaseURL string            `yaml:"base_url"`
			Symbols map[string]string `yaml:"symbols"`
		} `yaml:"yahoo"`
		Alpaca struct {
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
			Feed      string `yaml:"feed"`
		} `yaml:"alpaca"`
		ClickHouse struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port"`
			Database         string        `yaml:"database"`
			User             string        `yaml:"user"`
			Password         string        `yaml:"password"`
			Table            string        `yaml:"table"`
			UseHTTP          bool          `yaml:"use_http"`
			DialTimeout      time.Duration `yaml:"dial_timeout"`
			ReadTimeout      time.Duration `yaml:"read_timeout"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		} `yaml:"clickhouse"`
		SQLite struct {
			Path  string `yaml:"path"`
			Table string `yaml:"table"`
		} `yaml:"sqlite"`
		Postgres struct {
			DSN      string `yaml:"dsn"`
			Table    string `yaml:"table"`
			MaxConns int32  `yaml:"max_conns"`
		} `yaml:"postgres"`
	} `yaml:"source"`
	Forecast struct {
		Model      string        `yaml:"model"`
		Epochs     int           `yaml:"epochs"`
		Seed       uint64        `yaml:"seed"`
		Lookback   int           `yaml:"lookback"`
		MaxHorizon int           `yaml:"max_horizon"`
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"forecast"`
	Cache struct {
		Enabled    bool          `yaml:"enabled"`
		TTL        time.Duration `yaml:"ttl"`
		MemorySize int           `yaml:"memory_size"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled       bool          `yaml:"enabled"`
		Brokers       []string      `yaml:"brokers"`
		Topic         string        `yaml:"topic"`
		ClientID      string        `yaml:"client_id"`
		RequiredAcks  int           `yaml:"required_acks"`
		Compression   string        `yaml:"compression"`
		MaxAttempts   int           `yaml:"max_attempts"`
		WriteTimeout  time.Duration `yaml:"write_timeout"`
		FlushInterval time.Duration `yaml:"flush_interval"`
		FlushCount    int           `yaml:"flush_count"`
	} `yaml:"kafka"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		Burst   float64 `yaml:"burst"`
		PerSec  float64 `yaml:"per_sec"`
	} `yaml:"ratelimit"`
	Prewarm struct {
		Enabled      bool          `yaml:"enabled"`
		Schedule     string        `yaml:"schedule"`
		Tickers      []string      `yaml:"tickers"`
		LookbackDays int           `yaml:"lookback_days"`
		Timeout      time.Duration `yaml:"timeout"`
	} `yaml:"prewarm"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SOURCE_TYPE"); v != "" {
		c.Source.Type = v
	}
	if v := getenv("ALPACA_API_KEY"); v != "" {
		c.Source.Alpaca.APIKey = v
	}
	if v := getenv("ALPACA_API_SECRET"); v != "" {
		c.Source.Alpaca.APISecret = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Source.Postgres.DSN = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("FORECAST_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FORECAST_SEED: %w", err)
		}
		c.Forecast.Seed = seed
	}
	if v := getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logger.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "stdout"
	}
	if c.Source.Type == "" {
		c.Source.Type = SourceSynthetic
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 15 * time.Second
	}
	if c.Source.Alpaca.Feed == "" {
		c.Source.Alpaca.Feed = "iex"
	}
	if c.Source.ClickHouse.Table == "" {
		c.Source.ClickHouse.Table = "daily_prices"
	}
	if c.Source.SQLite.Table == "" {
		c.Source.SQLite.Table = "daily_prices"
	}
	if c.Source.Postgres.Table == "" {
		c.Source.Postgres.Table = "daily_prices"
	}
	if c.Forecast.Epochs == 0 {
		c.Forecast.Epochs = 20
	}
	if c.Forecast.Lookback == 0 {
		c.Forecast.Lookback = 60
	}
	if c.Forecast.MaxHorizon == 0 {
		c.Forecast.MaxHorizon = 30
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	if c.Cache.MemorySize == 0 {
		c.Cache.MemorySize = 1000
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "stockcast"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "stockcast.logs"
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "stockcast"
	}
	if c.Kafka.FlushInterval == 0 {
		c.Kafka.FlushInterval = 30 * time.Second
	}
	if c.Kafka.FlushCount == 0 {
		c.Kafka.FlushCount = 100
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}
	if c.RateLimit.PerSec == 0 {
		c.RateLimit.PerSec = 5
	}
	if c.Prewarm.Schedule == "" {
		c.Prewarm.Schedule = "@every 1h"
	}
	if c.Prewarm.LookbackDays == 0 {
		c.Prewarm.LookbackDays = 365
	}
	if c.Prewarm.Timeout == 0 {
		c.Prewarm.Timeout = 30 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Source.Type {
	case SourceSynthetic, SourceYahoo:
	case SourceAlpaca:
		if c.Source.Alpaca.APIKey == "" || c.Source.Alpaca.APISecret == "" {
			return fmt.Errorf("source.alpaca.api_key and api_secret are required")
		}
	case SourceClickHouse:
		if c.Source.ClickHouse.Host == "" {
			return fmt.Errorf("source.clickhouse.host is required")
		}
	case SourceSQLite:
		if c.Source.SQLite.Path == "" {
			return fmt.Errorf("source.sqlite.path is required")
		}
	case SourcePostgres:
		if c.Source.Postgres.DSN == "" {
			return fmt.Errorf("source.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("source.type must be one of synthetic, yahoo, alpaca, clickhouse, sqlite, postgres, got '%s'", c.Source.Type)
	}
	if c.Forecast.MaxHorizon < 1 || c.Forecast.MaxHorizon > 30 {
		return fmt.Errorf("forecast.max_horizon must be within 1..30, got %d", c.Forecast.MaxHorizon)
	}
	if c.Forecast.Epochs < 0 {
		return fmt.Errorf("forecast.epochs cannot be negative")
	}
	if c.Forecast.Model == "remote" && c.Forecast.ServiceURL == "" {
		return fmt.Errorf("forecast.service_url is required for the remote model")
	}
	if c.Cache.Redis.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Prewarm.Enabled && len(c.Prewarm.Tickers) == 0 {
		return fmt.Errorf("prewarm.tickers cannot be empty when prewarm is enabled")
	}
	return nil
}
