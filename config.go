package aura

import (
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/aura/session"
)

// Config defines the Engine configuration.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session     SessionConfig
	Record      RecordConfig
	MockProfile MockProfile
	Audit       AuditConfig
	Metrics     MetricsConfig
}

// SessionConfig controls the slot key and the timing of session operations.
type SessionConfig struct {
	// StorageKey is the single key the record is stored under.
	StorageKey string
	// LoginDelay is the simulated authentication round-trip.
	LoginDelay time.Duration
	// RestoreTimeout bounds the boot-time read. A slower backend restores nothing.
	RestoreTimeout time.Duration
	// WriteTimeout bounds persist and erase.
	WriteTimeout time.Duration
}

// RecordConfig selects the persisted record format.
type RecordConfig struct {
	// Codec is "json" or "jwt".
	Codec         string
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	KeyID         string
}

// MockProfile supplies the identity attributes a login does not take from the
// caller. Only the email comes from the login form.
type MockProfile struct {
	ID          string
	Name        string
	Role        string
	Institution string
}

// AuditConfig defines a public type used by aura APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by aura APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	codecJSON = "json"
	codecJWT  = "jwt"

	maxLoginDelay = 30 * time.Second
)

// DefaultConfig returns the configuration the console ships with: JSON records
// under "aura_user", a one second login delay and the demo administrator profile.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			StorageKey:     session.DefaultKey,
			LoginDelay:     time.Second,
			RestoreTimeout: 2 * time.Second,
			WriteTimeout:   2 * time.Second,
		},
		Record: RecordConfig{
			Codec:         codecJSON,
			SigningMethod: "hs256",
			Issuer:        "aura",
		},
		MockProfile: MockProfile{
			ID:          "1",
			Name:        "John Doe",
			Role:        "Administrator",
			Institution: "University of Technology",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Record.PrivateKey = cloneBytes(cfg.Record.PrivateKey)
	out.Record.PublicKey = cloneBytes(cfg.Record.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
//
// Key material is checked again by the jwt package when Build creates the signed codec.
func (c *Config) Validate() error {
	// Session
	if strings.TrimSpace(c.Session.StorageKey) == "" {
		return errors.New("Session StorageKey must not be empty")
	}
	if c.Session.StorageKey != strings.TrimSpace(c.Session.StorageKey) {
		return errors.New("Session StorageKey must not have surrounding whitespace")
	}
	if c.Session.LoginDelay < 0 {
		return errors.New("Session LoginDelay must be >= 0")
	}
	if c.Session.LoginDelay > maxLoginDelay {
		return errors.New("Session LoginDelay must be <= 30s")
	}
	if c.Session.RestoreTimeout <= 0 {
		return errors.New("Session RestoreTimeout must be > 0")
	}
	if c.Session.WriteTimeout <= 0 {
		return errors.New("Session WriteTimeout must be > 0")
	}

	// Record
	switch c.Record.Codec {
	case codecJSON:
	case codecJWT:
		if c.Record.SigningMethod != "ed25519" && c.Record.SigningMethod != "hs256" {
			return errors.New("unsupported Record SigningMethod")
		}
		if len(c.Record.PrivateKey) == 0 && len(c.Record.PublicKey) == 0 {
			return errors.New("Record jwt codec requires key material")
		}
		if c.Record.SigningMethod == "hs256" && len(c.Record.PrivateKey) < 32 {
			return errors.New("Record hs256 secret must be at least 32 bytes")
		}
		if c.Record.SigningMethod == "ed25519" && (len(c.Record.PrivateKey) == 0 || len(c.Record.PublicKey) == 0) {
			return errors.New("Record ed25519 requires PrivateKey and PublicKey")
		}
		if c.Record.Audience != "" && strings.TrimSpace(c.Record.Audience) == "" {
			return errors.New("Record Audience must not be blank")
		}
	default:
		return errors.New("unsupported Record Codec")
	}

	// Mock profile
	if strings.TrimSpace(c.MockProfile.ID) == "" {
		return errors.New("MockProfile ID must not be empty")
	}
	if strings.TrimSpace(c.MockProfile.Name) == "" {
		return errors.New("MockProfile Name must not be empty")
	}
	if strings.TrimSpace(c.MockProfile.Role) == "" {
		return errors.New("MockProfile Role must not be empty")
	}
	if strings.TrimSpace(c.MockProfile.Institution) == "" {
		return errors.New("MockProfile Institution must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
