package ledgauth

import (
	"context"

	"github.com/google/uuid"
)

// Register creates an account with the default role. Usernames and passwords
// below the configured minimum lengths are rejected before the store is
// touched.
func (e *Engine) Register(ctx context.Context, username, plaintext string) (Principal, error) {
	if e == nil || e.users == nil {
		return Principal{}, ErrEngineNotReady
	}
	if !e.config.Registration.Enabled {
		return Principal{}, ErrRegistrationDisabled
	}
	if len(username) < e.config.Registration.MinUsernameLen {
		return Principal{}, ErrUsernameTooShort
	}
	if len(plaintext) < e.config.Registration.MinPasswordLen {
		return Principal{}, ErrPasswordTooShort
	}

	hash, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		return Principal{}, err
	}

	user, err := e.users.Create(ctx, CreateUserInput{
		UserID:       uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         e.config.Registration.DefaultRole,
	})
	if err != nil {
		return Principal{}, err
	}

	e.metricInc(MetricRegister)
	e.emitAudit(AuditEvent{EventType: auditEventRegister, Username: user.Username, UserID: user.UserID, Success: true})

	return Principal{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// RegistrationEnabled reports whether this deployment currently accepts new
// accounts.
func (e *Engine) RegistrationEnabled() bool {
	if e == nil {
		return false
	}
	return e.config.Registration.Enabled
}
