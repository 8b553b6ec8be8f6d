// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config filled with defaults; Load layers file and env on top.
// - Validation errors wrap ErrInvalidConfig, loading errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendSheets   = "sheets"
)

// MaxPostgresConns caps postgres.max_conns well inside the pool's int32 limit.
const MaxPostgresConns = 1000

// Spreadsheet delivery modes.
const (
	DeliverySync  = "sync"
	DeliveryAsync = "async"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShutdownTimeoutMS bounds graceful shutdown of the server and queue.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	CORS     CORSConfig     `koanf:"cors"`
	Storage  StorageConfig  `koanf:"storage"`
	Postgres PostgresConfig `koanf:"postgres"`
	Sheets   SheetsConfig   `koanf:"sheets"`
}

// CORSConfig lists the site origins allowed to post forms.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// StorageConfig picks the single active backend.
type StorageConfig struct {
	Backend string `koanf:"backend"`
}

// PostgresConfig configures the relational backend.
type PostgresConfig struct {
	DSN      string `koanf:"dsn"`
	MaxConns int    `koanf:"max_conns"`
	// Migrate applies the schema at startup.
	Migrate bool `koanf:"migrate"`
}

// SheetsConfig configures the spreadsheet webhook backend.
type SheetsConfig struct {
	URL       string `koanf:"url"`
	TimeoutMS int    `koanf:"timeout_ms"`
	// Delivery is "sync" (await the post) or "async" (queue and return).
	Delivery  string `koanf:"delivery"`
	QueueSize int    `koanf:"queue_size"`
	Workers   int    `koanf:"workers"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":8080",
		ShutdownTimeoutMS: 15_000,
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Backend: BackendSheets,
		},
		Postgres: PostgresConfig{
			MaxConns: 10,
			Migrate:  true,
		},
		Sheets: SheetsConfig{
			TimeoutMS: 10_000,
			Delivery:  DeliverySync,
			QueueSize: 1000,
			Workers:   4,
		},
	}
}

// Validate checks the settings the active backend depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ShutdownTimeoutMS <= 0 {
		return fmt.Errorf("%w: shutdown_timeout_ms must be positive", ErrInvalidConfig)
	}

	switch c.Storage.Backend {
	case BackendPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return fmt.Errorf("%w: postgres.dsn is required for the postgres backend", ErrInvalidConfig)
		}
		if c.Postgres.MaxConns <= 0 || c.Postgres.MaxConns > MaxPostgresConns {
			return fmt.Errorf("%w: postgres.max_conns must be between 1 and %d, got %d",
				ErrInvalidConfig, MaxPostgresConns, c.Postgres.MaxConns)
		}
	case BackendSheets:
		if strings.TrimSpace(c.Sheets.URL) == "" {
			return fmt.Errorf("%w: sheets.url is required for the sheets backend", ErrInvalidConfig)
		}
		if c.Sheets.TimeoutMS <= 0 {
			return fmt.Errorf("%w: sheets.timeout_ms must be positive", ErrInvalidConfig)
		}
		switch c.Sheets.Delivery {
		case DeliverySync:
		case DeliveryAsync:
			if c.Sheets.QueueSize <= 0 || c.Sheets.Workers <= 0 {
				return fmt.Errorf("%w: sheets.queue_size and sheets.workers must be positive for async delivery", ErrInvalidConfig)
			}
		default:
			return fmt.Errorf("%w: unknown sheets.delivery %q", ErrInvalidConfig, c.Sheets.Delivery)
		}
	default:
		return fmt.Errorf("%w: unknown storage.backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	return nil
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// SheetsTimeout returns Sheets.TimeoutMS as a duration.
func (c *Config) SheetsTimeout() time.Duration {
	return time.Duration(c.Sheets.TimeoutMS) * time.Millisecond
}
