package aura

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/aura/jwt"
	"github.com/MrEthical07/aura/session"
	"github.com/MrEthical07/aura/storage"
)

// Builder assembles an Engine. It performs no I/O; storage is first touched by
// Engine.Initialize.
//
// Builder instances are single use.
type Builder struct {
	config Config
	kv     storage.KV
	logger *slog.Logger

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage sets the durable store the session record lives in. Required.
func (b *Builder) WithStorage(kv storage.KV) *Builder {
	b.kv = kv
	return b
}

// WithLogger sets the Engine logger. Without one the Engine logs nothing.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets where audit events go when Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login and restore latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns an Engine in the loading state.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.kv == nil {
		return nil, errors.New("storage backend required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- RECORD CODEC --------
	var codec session.Codec = session.JSONCodec{}
	if cfg.Record.Codec == codecJWT {
		jm, err := jwt.NewManager(jwt.Config{
			SigningMethod: jwt.SigningMethod(cfg.Record.SigningMethod),
			PrivateKey:    cloneBytes(cfg.Record.PrivateKey),
			PublicKey:     cloneBytes(cfg.Record.PublicKey),
			Issuer:        cfg.Record.Issuer,
			Audience:      cfg.Record.Audience,
			KeyID:         cfg.Record.KeyID,
			RequireIAT:    true,
		})
		if err != nil {
			return nil, err
		}
		codec = session.NewSignedCodec(jm)
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	engine := &Engine{
		config:  cfg,
		kv:      b.kv,
		records: session.NewStore(b.kv, cfg.Session.StorageKey, codec),
		logger:  logger,
		loading: true,
		ready:   make(chan struct{}),
	}
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
