package aura

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/aura/storage/memory"
)

func TestConfigValidate(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	secret := []byte(strings.Repeat("k", 32))

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "storage key empty",
			mutate: func(c *Config) {
				c.Session.StorageKey = "  "
			},
			wantValid: false,
		},
		{
			name: "storage key padded",
			mutate: func(c *Config) {
				c.Session.StorageKey = " aura_user"
			},
			wantValid: false,
		},
		{
			name: "login delay zero valid",
			mutate: func(c *Config) {
				c.Session.LoginDelay = 0
			},
			wantValid: true,
		},
		{
			name: "login delay negative",
			mutate: func(c *Config) {
				c.Session.LoginDelay = -time.Millisecond
			},
			wantValid: false,
		},
		{
			name: "login delay too long",
			mutate: func(c *Config) {
				c.Session.LoginDelay = time.Minute
			},
			wantValid: false,
		},
		{
			name: "restore timeout zero",
			mutate: func(c *Config) {
				c.Session.RestoreTimeout = 0
			},
			wantValid: false,
		},
		{
			name: "write timeout zero",
			mutate: func(c *Config) {
				c.Session.WriteTimeout = 0
			},
			wantValid: false,
		},
		{
			name: "codec unknown",
			mutate: func(c *Config) {
				c.Record.Codec = "msgpack"
			},
			wantValid: false,
		},
		{
			name: "jwt hs256 valid",
			mutate: func(c *Config) {
				c.Record.Codec = "jwt"
				c.Record.PrivateKey = secret
			},
			wantValid: true,
		},
		{
			name: "jwt hs256 short secret",
			mutate: func(c *Config) {
				c.Record.Codec = "jwt"
				c.Record.PrivateKey = []byte("short")
			},
			wantValid: false,
		},
		{
			name: "jwt without keys",
			mutate: func(c *Config) {
				c.Record.Codec = "jwt"
			},
			wantValid: false,
		},
		{
			name: "jwt ed25519 valid",
			mutate: func(c *Config) {
				c.Record.Codec = "jwt"
				c.Record.SigningMethod = "ed25519"
				c.Record.PrivateKey = priv
				c.Record.PublicKey = pub
			},
			wantValid: true,
		},
		{
			name: "jwt ed25519 missing public key",
			mutate: func(c *Config) {
				c.Record.Codec = "jwt"
				c.Record.SigningMethod = "ed25519"
				c.Record.PrivateKey = priv
			},
			wantValid: false,
		},
		{
			name: "jwt signing unsupported",
			mutate: func(c *Config) {
				c.Record.Codec = "jwt"
				c.Record.SigningMethod = "rs256"
				c.Record.PrivateKey = secret
			},
			wantValid: false,
		},
		{
			name: "jwt audience blank",
			mutate: func(c *Config) {
				c.Record.Codec = "jwt"
				c.Record.PrivateKey = secret
				c.Record.Audience = "   "
			},
			wantValid: false,
		},
		{
			name: "profile name empty",
			mutate: func(c *Config) {
				c.MockProfile.Name = ""
			},
			wantValid: false,
		},
		{
			name: "profile institution empty",
			mutate: func(c *Config) {
				c.MockProfile.Institution = " "
			},
			wantValid: false,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "histograms without metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
		{
			name: "metrics disabled entirely valid",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = false
			},
			wantValid: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.StorageKey = ""

	_, err := New().WithConfig(cfg).WithStorage(nil).Build()
	if err == nil {
		t.Fatal("expected Build to fail")
	}
}

func TestBuildClonesKeyMaterial(t *testing.T) {
	secret := []byte(strings.Repeat("k", 32))
	cfg := testConfig()
	cfg.Record.Codec = "jwt"
	cfg.Record.PrivateKey = secret

	engine := newTestEngineWithKV(t, memory.New(), func(c *Config) { *c = cfg })
	secret[0] = 'x'

	if engine.config.Record.PrivateKey[0] != 'k' {
		t.Fatal("expected engine to hold its own copy of the signing key")
	}
}
