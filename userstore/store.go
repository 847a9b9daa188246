package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	ledgauth "github.com/rster2002/ledgauth"
)

// Store implements ledgauth.UserStore on gorm. Open the database with
// gorm's TranslateError option so duplicate usernames surface as
// gorm.ErrDuplicatedKey.
type Store struct {
	db *gorm.DB
}

// New returns a Store using the given database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func toRecord(u User) ledgauth.UserRecord {
	record := ledgauth.UserRecord{
		UserID:       u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		BackupCodes:  []string(u.MFABackupCodes),
	}
	if u.MFASecret != nil {
		record.MFASecret = *u.MFASecret
	}
	return record
}

// GetByUsername looks an account up by its unique username.
func (s *Store) GetByUsername(ctx context.Context, username string) (ledgauth.UserRecord, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgauth.UserRecord{}, ledgauth.ErrUserNotFound
		}
		return ledgauth.UserRecord{}, fmt.Errorf("get user by username: %w", err)
	}
	return toRecord(u), nil
}

// GetByID looks an account up by primary key.
func (s *Store) GetByID(ctx context.Context, userID string) (ledgauth.UserRecord, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgauth.UserRecord{}, ledgauth.ErrUserNotFound
		}
		return ledgauth.UserRecord{}, fmt.Errorf("get user by id: %w", err)
	}
	return toRecord(u), nil
}

// Create inserts a new account row.
func (s *Store) Create(ctx context.Context, input ledgauth.CreateUserInput) (ledgauth.UserRecord, error) {
	u := User{
		ID:           input.UserID,
		Username:     input.Username,
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ledgauth.UserRecord{}, ledgauth.ErrUsernameTaken
		}
		return ledgauth.UserRecord{}, fmt.Errorf("create user: %w", err)
	}
	return toRecord(u), nil
}

// EnableMFA persists the TOTP secret together with the fresh backup code set.
func (s *Store) EnableMFA(ctx context.Context, userID, secret string, backupCodes []string) error {
	res := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"mfa_secret":       secret,
			"mfa_backup_codes": pq.StringArray(backupCodes),
		})
	if res.Error != nil {
		return fmt.Errorf("enable mfa: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ledgauth.ErrUserNotFound
	}
	return nil
}

// DisableMFA clears the secret and the remaining backup codes.
func (s *Store) DisableMFA(ctx context.Context, userID string) error {
	res := s.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"mfa_secret":       nil,
			"mfa_backup_codes": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("disable mfa: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ledgauth.ErrUserNotFound
	}
	return nil
}

// ConsumeBackupCode removes exactly one matching code in a single UPDATE.
// The ANY guard plus the rows-affected check make concurrent logins with the
// same code race to one winner.
func (s *Store) ConsumeBackupCode(ctx context.Context, userID, code string) (bool, error) {
	res := s.db.WithContext(ctx).Exec(
		`UPDATE users
		 SET mfa_backup_codes = array_remove(mfa_backup_codes, ?)
		 WHERE id = ? AND ? = ANY(mfa_backup_codes)`,
		code, userID, code,
	)
	if res.Error != nil {
		return false, fmt.Errorf("consume backup code: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
