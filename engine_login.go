package ledgauth

import (
	"context"
	"errors"
)

// Login runs the full authentication flow: rate-limit flag, credential
// check, optional MFA gate, grant creation and token issuance.
//
// The mfaCode parameter is optional. When the account has an MFA secret
// configured and mfaCode is empty, Login returns a challenge result
// (MFARequired set, no tokens, nil error) so the caller can re-prompt.
// A supplied code is checked against the current TOTP window first and then
// against the remaining single-use backup codes.
func (e *Engine) Login(ctx context.Context, username, plaintext, mfaCode string) (*LoginResult, error) {
	if e == nil || e.users == nil || e.grants == nil {
		return nil, ErrEngineNotReady
	}

	if e.limiter != nil {
		if err := e.limiter.Flag(ctx, username); err != nil {
			if errors.Is(err, ErrLoginRateLimited) {
				e.metricInc(MetricLoginRateLimited)
				e.emitAudit(AuditEvent{EventType: auditEventLoginRateLimited, Username: username})
			}
			return nil, err
		}
	}

	user, err := e.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Indistinguishable from a wrong password on purpose.
			return nil, e.loginFailure(username, "", ErrInvalidCredentials)
		}
		return nil, err
	}

	ok, err := e.passwordHash.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.loginFailure(username, user.UserID, ErrInvalidCredentials)
	}

	if user.MFASecret != "" {
		if mfaCode == "" {
			e.metricInc(MetricMFAChallengeIssued)
			e.emitAudit(AuditEvent{EventType: auditEventMFAChallenge, Username: username, UserID: user.UserID, Success: true})
			return &LoginResult{MFARequired: true}, nil
		}
		if err := e.checkMFACode(ctx, user, mfaCode); err != nil {
			return nil, err
		}
	}

	g, err := e.grants.Create(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	pair, err := e.issuePair(user, grantRef{ID: g.ID, ExpireAt: g.ExpireAt})
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(AuditEvent{EventType: auditEventLoginSuccess, Username: username, UserID: user.UserID, Success: true})

	return &LoginResult{Tokens: pair}, nil
}

// checkMFACode validates code as a TOTP value and falls back to the
// single-use backup codes. Backup-code consumption is atomic in the store, so
// two concurrent logins with the same code produce exactly one winner.
func (e *Engine) checkMFACode(ctx context.Context, user UserRecord, code string) error {
	secret, err := decodeSecret(user.MFASecret)
	if err != nil {
		return err
	}

	ok, err := e.totp.VerifyCode(secret, code, e.now())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	consumed, err := e.users.ConsumeBackupCode(ctx, user.UserID, code)
	if err != nil {
		return err
	}
	if consumed {
		e.metricInc(MetricBackupCodeUsed)
		e.emitAudit(AuditEvent{EventType: auditEventBackupCodeUsed, Username: user.Username, UserID: user.UserID, Success: true})
		return nil
	}

	e.metricInc(MetricMFAFailure)
	e.emitAudit(AuditEvent{EventType: auditEventMFAFailure, Username: user.Username, UserID: user.UserID, Error: ErrMFACodeInvalid.Error()})
	return ErrMFACodeInvalid
}

func (e *Engine) loginFailure(username, userID string, err error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(AuditEvent{EventType: auditEventLoginFailure, Username: username, UserID: userID, Error: err.Error()})
	return err
}
