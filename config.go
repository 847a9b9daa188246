package ledgauth

import (
	"crypto/rsa"
	"errors"
	"time"
)

// Config holds every tunable of the engine. It is copied at Build time and
// treated as immutable afterwards; there is no ambient global state.
type Config struct {
	// Issuer is written into the iss claim of every token.
	Issuer string
	// Audience is written into the aud claim of every token.
	Audience string
	// AccessTTL bounds the validity window of access tokens.
	AccessTTL time.Duration
	// SigningKey signs and verifies every token. It must never be logged or
	// returned to clients.
	SigningKey *rsa.PrivateKey

	TOTP         TOTPConfig
	RateLimit    RateLimitConfig
	Registration RegistrationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig

	// Now is the clock used for claim timestamps and validation. Defaults to
	// time.Now; overridable in tests.
	Now func() time.Time
}

// TOTPConfig tunes the time-based one-time code verifier and the backup code
// generator.
type TOTPConfig struct {
	// Issuer is the label embedded in otpauth:// provisioning URIs.
	Issuer    string
	Digits    int
	Period    int
	Skew      int
	Algorithm string
	// BackupCodeCount codes of BackupCodeDigits digits are generated when MFA
	// is enabled.
	BackupCodeCount  int
	BackupCodeDigits int
}

// RateLimitConfig tunes the redis-backed login limiter. A username is flagged
// on every attempt and any attempt while the flag is live is rejected.
type RateLimitConfig struct {
	Enabled       bool
	LoginCooldown time.Duration
}

// RegistrationConfig gates and validates account creation.
type RegistrationConfig struct {
	Enabled        bool
	MinUsernameLen int
	MinPasswordLen int
	DefaultRole    string
}

// AuditConfig tunes the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration New starts from. Callers that only
// need to override a few fields can start here instead of filling every field.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Issuer:    "ledgauth",
		Audience:  "ledgauth",
		AccessTTL: 5 * time.Minute,
		TOTP: TOTPConfig{
			Issuer:           "ledgauth",
			Digits:           6,
			Period:           30,
			Skew:             1,
			Algorithm:        "SHA1",
			BackupCodeCount:  8,
			BackupCodeDigits: 6,
		},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			LoginCooldown: time.Second,
		},
		Registration: RegistrationConfig{
			Enabled:        true,
			MinUsernameLen: 4,
			MinPasswordLen: 8,
			DefaultRole:    "user",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Now: time.Now,
	}
}

func (c *Config) validate() error {
	if c.SigningKey == nil {
		return errors.New("config: signing key is required")
	}
	if c.Issuer == "" {
		return errors.New("config: issuer is required")
	}
	if c.AccessTTL <= 0 {
		return errors.New("config: access TTL must be positive")
	}
	if c.TOTP.Digits < 6 || c.TOTP.Digits > 10 {
		return errors.New("config: totp digits out of range")
	}
	if c.TOTP.Period <= 0 {
		return errors.New("config: totp period must be positive")
	}
	if c.TOTP.Skew < 0 {
		return errors.New("config: totp skew must not be negative")
	}
	if c.TOTP.BackupCodeCount <= 0 || c.TOTP.BackupCodeDigits < 6 {
		return errors.New("config: invalid backup code parameters")
	}
	if c.RateLimit.Enabled && c.RateLimit.LoginCooldown <= 0 {
		return errors.New("config: login cooldown must be positive")
	}
	if c.Registration.MinUsernameLen <= 0 || c.Registration.MinPasswordLen <= 0 {
		return errors.New("config: registration minimum lengths must be positive")
	}
	if c.Registration.DefaultRole == "" {
		return errors.New("config: default role is required")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("config: audit buffer size must be positive")
	}
	return nil
}
