package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// HTTP Server
	Port string `koanf:"PORT"`

	// Storage
	DataBackend  string `koanf:"DATA_BACKEND"`
	StorageKey   string `koanf:"STORAGE_KEY"`
	DataDir      string `koanf:"DATA_DIR"`
	SQLiteDBPath string `koanf:"SQLITE_DB_PATH"`
	PostgresDSN  string `koanf:"POSTGRES_DSN"`

	// AMQP notifications, disabled when AMQPURL is empty
	AMQPURL      string `koanf:"AMQP_URL"`
	AMQPExchange string `koanf:"AMQP_EXCHANGE"`

	// Voice input
	VoiceEnabled bool   `koanf:"VOICE_ENABLED"`
	VoiceLocale  string `koanf:"VOICE_LOCALE"`

	// Connectivity probing, disabled when ConnectivityProbeURL is empty
	ConnectivityProbeURL string        `koanf:"CONNECTIVITY_PROBE_URL"`
	ConnectivityInterval time.Duration `koanf:"CONNECTIVITY_INTERVAL"`

	// HTTP tuning
	CacheSize          int `koanf:"CACHE_SIZE"`
	RateLimitPerMinute int `koanf:"RATE_LIMIT_PER_MINUTE"`

	// Logging
	LogLevel  string `koanf:"LOG_LEVEL"`
	LogFormat string `koanf:"LOG_FORMAT"`
}

var validBackends = []string{"memory", "file", "sqlite", "postgres"}

// Defaults returns the configuration used for every key the environment leaves unset.
func Defaults() Config {
	return Config{
		Port:                 "8081",
		DataBackend:          "file",
		StorageKey:           "expenses",
		DataDir:              "./data",
		SQLiteDBPath:         "./data/fintrack.db",
		AMQPExchange:         "fintrack",
		VoiceEnabled:         true,
		VoiceLocale:          "en-US",
		ConnectivityInterval: 15 * time.Second,
		CacheSize:            64,
		RateLimitPerMinute:   120,
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load reads an optional .env file and then the process environment on top of Defaults.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if strings.TrimSpace(c.StorageKey) == "" {
		errors = append(errors, "storage key cannot be empty")
	}

	switch c.DataBackend {
	case "file":
		if c.DataDir == "" {
			errors = append(errors, "data directory cannot be empty when using file backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.VoiceEnabled && c.VoiceLocale == "" {
		errors = append(errors, "voice locale cannot be empty when voice input is enabled")
	}

	if c.ConnectivityProbeURL != "" {
		if u, err := url.Parse(c.ConnectivityProbeURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid connectivity probe URL '%s': must be http or https", c.ConnectivityProbeURL))
		}
		if c.ConnectivityInterval < time.Second {
			errors = append(errors, fmt.Sprintf("invalid connectivity interval %v: must be at least 1 second", c.ConnectivityInterval))
		} else if c.ConnectivityInterval > time.Hour {
			errors = append(errors, fmt.Sprintf("invalid connectivity interval %v: must be at most 1 hour", c.ConnectivityInterval))
		}
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
