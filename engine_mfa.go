package ledgauth

import (
	"context"

	"github.com/rster2002/ledgauth/internal"
)

// MFAProvision holds a freshly generated TOTP secret and the otpauth:// URI
// an authenticator app scans. Nothing is persisted until [Engine.EnableMFA]
// succeeds.
type MFAProvision struct {
	SecretBase32 string
	URI          string
}

// ProvisionMFA generates a new TOTP secret for the account to enroll with.
func (e *Engine) ProvisionMFA(account string) (MFAProvision, error) {
	if e == nil || e.totp == nil {
		return MFAProvision{}, ErrEngineNotReady
	}

	_, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return MFAProvision{}, err
	}

	return MFAProvision{
		SecretBase32: secretBase32,
		URI:          e.totp.ProvisionURI(secretBase32, account),
	}, nil
}

// EnableMFA turns multi-factor login on for the user. The caller must prove
// possession of the secret with one currently valid code before anything is
// persisted. On success a fresh set of single-use backup codes is stored and
// returned; this is the only time they are ever visible.
func (e *Engine) EnableMFA(ctx context.Context, userID, secretBase32, code string) ([]string, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	secret, err := decodeSecret(secretBase32)
	if err != nil {
		return nil, err
	}

	ok, err := e.totp.VerifyCode(secret, code, e.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		e.metricInc(MetricMFAFailure)
		return nil, ErrMFACodeInvalid
	}

	codes, err := internal.NewBackupCodes(e.config.TOTP.BackupCodeCount, e.config.TOTP.BackupCodeDigits)
	if err != nil {
		return nil, err
	}

	if err := e.users.EnableMFA(ctx, userID, secretBase32, codes); err != nil {
		return nil, err
	}

	e.emitAudit(AuditEvent{EventType: auditEventMFAEnabled, UserID: userID, Success: true})
	return codes, nil
}

// DisableMFA clears the user's TOTP secret and remaining backup codes.
func (e *Engine) DisableMFA(ctx context.Context, userID string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MFASecret == "" {
		return ErrMFANotEnabled
	}

	if err := e.users.DisableMFA(ctx, userID); err != nil {
		return err
	}

	e.emitAudit(AuditEvent{EventType: auditEventMFADisabled, UserID: userID, Success: true})
	return nil
}
