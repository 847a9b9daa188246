package ledgauth

import "time"

// SecurityReport is a read-only snapshot of the engine's security posture.
// It contains toggles and parameters only, never key material.
type SecurityReport struct {
	SigningAlgorithm   string
	Issuer             string
	AccessTTL          time.Duration
	RefreshRotation    bool
	RateLimitingActive bool
	RegistrationOpen   bool
	TOTPDigits         int
	TOTPPeriod         int
	BackupCodeCount    int
	AuditActive        bool
	MetricsActive      bool
}

// SecurityReport summarizes the active configuration.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	return SecurityReport{
		SigningAlgorithm:   "RS256",
		Issuer:             e.config.Issuer,
		AccessTTL:          e.config.AccessTTL,
		RefreshRotation:    true,
		RateLimitingActive: e.limiter != nil,
		RegistrationOpen:   e.config.Registration.Enabled,
		TOTPDigits:         e.config.TOTP.Digits,
		TOTPPeriod:         e.config.TOTP.Period,
		BackupCodeCount:    e.config.TOTP.BackupCodeCount,
		AuditActive:        e.audit != nil,
		MetricsActive:      e.metrics != nil,
	}
}
