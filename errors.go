package ledgauth

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called on a nil
	// or incompletely built engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords
	// so the response never reveals which of the two failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user referenced by id no longer
	// exists. Store implementations must return it from their lookups.
	ErrUserNotFound = errors.New("user not found")
	// ErrLoginRateLimited is returned when the username is still flagged by
	// the login rate limiter.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrMFACodeInvalid is returned when the supplied one-time code matches
	// neither the current TOTP window nor a remaining backup code.
	ErrMFACodeInvalid = errors.New("invalid one-time password")
	// ErrMFANotEnabled is returned by DisableMFA when no secret is configured.
	ErrMFANotEnabled = errors.New("mfa not enabled")
	// ErrRefreshTokenRevoked is returned when a refresh token's grant no
	// longer resolves, either because it was rotated or explicitly revoked.
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	// ErrRegistrationDisabled is returned by Register when the deployment has
	// switched registration off.
	ErrRegistrationDisabled = errors.New("registration disabled")
	// ErrUsernameTaken is returned when the requested username already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUsernameTooShort is returned when the username is under the
	// configured minimum length.
	ErrUsernameTooShort = errors.New("username too short")
	// ErrPasswordTooShort is returned when the password is under the
	// configured minimum length.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrStoreUnavailable wraps backend failures from the user or grant store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
