package ledgauth

import (
	"context"
	"time"

	"github.com/rster2002/ledgauth/grant"
)

// Principal is the authenticated identity carried inside an access token.
type Principal struct {
	UserID   string
	Username string
	Role     string
}

// TokenPair is the success payload of Login and Refresh. Expires is the
// access-token lifetime in seconds; the shape matches the wire response of
// the auth routes.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Expires      int64  `json:"expires"`
}

// LoginResult is returned by [Engine.Login]. When the account has MFA
// configured and no code was supplied, MFARequired is set and Tokens is nil;
// this is a challenge to re-prompt, not an error.
type LoginResult struct {
	Tokens      *TokenPair
	MFARequired bool
}

// UserRecord is the account record exchanged with a [UserStore]. MFASecret is
// the base32 TOTP secret, empty when MFA is disabled. BackupCodes holds the
// remaining single-use codes.
type UserRecord struct {
	UserID       string
	Username     string
	PasswordHash string
	Role         string
	MFASecret    string
	BackupCodes  []string
}

// CreateUserInput is the input for [UserStore.Create].
type CreateUserInput struct {
	UserID       string
	Username     string
	PasswordHash string
	Role         string
}

// UserStore is the persistence interface the engine needs for accounts.
// Implementations must return [ErrUserNotFound] for missing users and
// [ErrUsernameTaken] for duplicate creates. ConsumeBackupCode must remove
// exactly one matching code atomically with respect to concurrent logins and
// report whether a code was consumed. The userstore sub-package provides the
// gorm/postgres implementation.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (UserRecord, error)
	GetByID(ctx context.Context, userID string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
	EnableMFA(ctx context.Context, userID, secret string, backupCodes []string) error
	DisableMFA(ctx context.Context, userID string) error
	ConsumeBackupCode(ctx context.Context, userID, code string) (bool, error)
}

// GrantStore persists the revocable grants backing refresh tokens.
// Implementations must return [grant.ErrNotFound] from Rotate when the old id
// does not resolve, and Rotate must replace the id and extend the expiry as a
// single atomic unit. The grant sub-package provides the gorm/postgres
// implementation.
type GrantStore interface {
	Create(ctx context.Context, userID string) (grant.Grant, error)
	Rotate(ctx context.Context, oldID string) (grant.Grant, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	Exists(ctx context.Context, id string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
