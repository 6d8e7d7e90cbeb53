package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Feed      FeedConfig      `yaml:"feed" envconfig:"FEED"`
	Query     QueryConfig     `yaml:"query" envconfig:"QUERY"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// FeedConfig describes the published spreadsheet feed the dataset is
// refreshed from.
type FeedConfig struct {
	// Locator is the URL of the published feed's gviz endpoint. Empty is
	// legal at startup; a refresh without a locator fails with a
	// missing-locator error.
	Locator string `yaml:"locator" envconfig:"LOCATOR"`
	// ExamSlots is the canonical ordered exam identifier list. Changing it
	// changes the marks shape of every record and every consumer that
	// expects that exact cardinality and order.
	ExamSlots      []string      `yaml:"exam_slots" envconfig:"EXAM_SLOTS"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	RefreshOnStart bool          `yaml:"refresh_on_start" envconfig:"REFRESH_ON_START" default:"true"`
}

// QueryConfig tunes the query engine.
type QueryConfig struct {
	// Debounce is the quiescence window: rapid submissions to one lane
	// within it coalesce into a single evaluation of the last text.
	Debounce time.Duration `yaml:"debounce" envconfig:"DEBOUNCE" default:"300ms"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/marksheet.log"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables (MARKSHEET_ prefix)
// with an optional YAML file underneath.
func Load() (*Config, error) {
	cfg := Default()

	if path := configFilePath(); path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = fileCfg
	}

	// Environment variables win over the file.
	if err := envconfig.Process("MARKSHEET", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file on top of defaults
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Feed.Locator != "" {
		u, err := url.Parse(c.Feed.Locator)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid feed locator: %q", c.Feed.Locator)
		}
	}

	if len(c.Feed.ExamSlots) == 0 {
		c.Feed.ExamSlots = append([]string(nil), DefaultExamSlots...)
	}
	seen := make(map[string]bool, len(c.Feed.ExamSlots))
	for _, slot := range c.Feed.ExamSlots {
		if slot == "" {
			return fmt.Errorf("exam slots must be non-empty")
		}
		if seen[slot] {
			return fmt.Errorf("duplicate exam slot: %q", slot)
		}
		seen[slot] = true
	}

	if c.Query.Debounce <= 0 {
		return fmt.Errorf("query debounce must be positive")
	}

	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	return nil
}

// configFilePath returns the path to the config file, or "" when none exists
func configFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Feed: FeedConfig{
			ExamSlots:      append([]string(nil), DefaultExamSlots...),
			Timeout:        30 * time.Second,
			RefreshOnStart: true,
		},
		Query: QueryConfig{
			Debounce: 300 * time.Millisecond,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/marksheet.log",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PongWait:        60 * time.Second,
		},
	}
}
