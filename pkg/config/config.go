package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		SignalTopic  string   `yaml:"signal_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Stream struct {
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Sources struct {
		Coins   []string      `yaml:"coins"`
		Timeout time.Duration `yaml:"timeout"`
		CoinGecko struct {
			Enabled  bool    `yaml:"enabled"`
			BaseURL  string  `yaml:"base_url"`
			APIKey   string  `yaml:"api_key"`
			RateRPS  float64 `yaml:"rate_rps"`
		} `yaml:"coingecko"`
		Binance struct {
			Enabled bool    `yaml:"enabled"`
			BaseURL string  `yaml:"base_url"`
			RateRPS float64 `yaml:"rate_rps"`
		} `yaml:"binance"`
		CoinPaprika struct {
			Enabled bool    `yaml:"enabled"`
			BaseURL string  `yaml:"base_url"`
			RateRPS float64 `yaml:"rate_rps"`
		} `yaml:"coinpaprika"`
		CoinCap struct {
			Enabled bool    `yaml:"enabled"`
			BaseURL string  `yaml:"base_url"`
			RateRPS float64 `yaml:"rate_rps"`
		} `yaml:"coincap"`
		Reddit struct {
			Enabled    bool     `yaml:"enabled"`
			BaseURL    string   `yaml:"base_url"`
			UserAgent  string   `yaml:"user_agent"`
			Subreddits []string `yaml:"subreddits"`
			RateRPS    float64  `yaml:"rate_rps"`
		} `yaml:"reddit"`
	} `yaml:"sources"`
	Signals struct {
		DominanceWindow int           `yaml:"dominance_window"`
		TopCoins        int           `yaml:"top_coins"`
		CacheTTL        time.Duration `yaml:"cache_ttl"`
		Redis           struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"signals"`
	Scheduler struct {
		Enabled           bool          `yaml:"enabled"`
		CalculateInterval time.Duration `yaml:"calculate_interval"`
		SummarizeInterval time.Duration `yaml:"summarize_interval"`
		Workers           int           `yaml:"workers"`
		RetryLimit        int           `yaml:"retry_limit"`
		RetryDelay        time.Duration `yaml:"retry_delay"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
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

	// Override with environment variables
	if v := os.Getenv("COINGECKO_API_KEY"); v != "" {
		c.Sources.CoinGecko.APIKey = v
	}
	if v := os.Getenv("COINS"); v != "" {
		c.Sources.Coins = strings.Split(v, ",")
	}
	if v := os.Getenv("STREAM_SYMBOLS"); v != "" {
		c.Stream.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Signals.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Sources.Coins) == 0 {
		return fmt.Errorf("sources.coins cannot be empty")
	}
	if c.Signals.DominanceWindow <= 0 {
		return fmt.Errorf("signals.dominance_window must be positive")
	}
	if c.Signals.TopCoins <= 0 {
		return fmt.Errorf("signals.top_coins must be positive")
	}
	return nil
}
