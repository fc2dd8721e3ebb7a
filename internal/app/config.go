package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/aura"
	"github.com/caarlos0/env/v11"
)

// Storage backends selectable with AURA_STORAGE.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the process configuration, read from AURA_* environment variables.
type Config struct {
	HTTPAddr          string        `env:"AURA_HTTP_ADDR" envDefault:":8080"`
	LogLevel          string        `env:"AURA_LOG_LEVEL" envDefault:"info"`
	BasePath          string        `env:"AURA_BASE_PATH"`
	RedirectSignedIn  bool          `env:"AURA_REDIRECT_SIGNED_IN" envDefault:"false"`
	AllowedOrigins    []string      `env:"AURA_ALLOWED_ORIGINS" envSeparator:","`
	ReadHeaderTimeout time.Duration `env:"AURA_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"AURA_HTTP_READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"AURA_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"AURA_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Storage       string `env:"AURA_STORAGE" envDefault:"memory"`
	StorageKey    string `env:"AURA_STORAGE_KEY" envDefault:"aura_user"`
	RedisAddr     string `env:"AURA_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"AURA_REDIS_PASSWORD"`
	RedisDB       int    `env:"AURA_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"AURA_REDIS_PREFIX" envDefault:"aura"`
	SQLitePath    string `env:"AURA_SQLITE_PATH" envDefault:"aura.db"`
	PostgresDSN   string `env:"AURA_POSTGRES_DSN"`

	LoginDelay     time.Duration `env:"AURA_LOGIN_DELAY" envDefault:"1s"`
	RestoreTimeout time.Duration `env:"AURA_RESTORE_TIMEOUT" envDefault:"2s"`
	WriteTimeout   time.Duration `env:"AURA_WRITE_TIMEOUT" envDefault:"2s"`

	RecordCodec      string `env:"AURA_RECORD_CODEC" envDefault:"json"`
	RecordSigningKey string `env:"AURA_RECORD_SIGNING_KEY"`
	RecordIssuer     string `env:"AURA_RECORD_ISSUER" envDefault:"aura"`

	AuditEnabled   bool `env:"AURA_AUDIT_ENABLED" envDefault:"false"`
	AuditBuffer    int  `env:"AURA_AUDIT_BUFFER" envDefault:"256"`
	MetricsEnabled bool `env:"AURA_METRICS_ENABLED" envDefault:"true"`

	OTelEnabled  bool          `env:"AURA_OTEL_ENABLED" envDefault:"false"`
	OTelInterval time.Duration `env:"AURA_OTEL_INTERVAL" envDefault:"60s"`
}

// LoadConfig parses the environment and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the process-level settings. Engine settings are validated again
// by aura.Builder.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return errors.New("AURA_HTTP_ADDR must not be empty")
	}
	switch c.Storage {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("AURA_REDIS_ADDR is required for the redis backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("AURA_POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unsupported AURA_STORAGE %q", c.Storage)
	}
	if c.Storage == BackendSQLite && strings.TrimSpace(c.SQLitePath) == "" {
		return errors.New("AURA_SQLITE_PATH is required for the sqlite backend")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("AURA_SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.OTelEnabled && c.OTelInterval <= 0 {
		return errors.New("AURA_OTEL_INTERVAL must be > 0")
	}
	return nil
}

// EngineConfig maps the process settings onto an aura.Config.
func (c Config) EngineConfig() aura.Config {
	cfg := aura.DefaultConfig()
	cfg.Session.StorageKey = c.StorageKey
	cfg.Session.LoginDelay = c.LoginDelay
	cfg.Session.RestoreTimeout = c.RestoreTimeout
	cfg.Session.WriteTimeout = c.WriteTimeout

	cfg.Record.Codec = c.RecordCodec
	cfg.Record.Issuer = c.RecordIssuer
	if c.RecordSigningKey != "" {
		cfg.Record.PrivateKey = []byte(c.RecordSigningKey)
	}

	cfg.Audit.Enabled = c.AuditEnabled
	cfg.Audit.BufferSize = c.AuditBuffer
	cfg.Metrics.Enabled = c.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	return cfg
}
