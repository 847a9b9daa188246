package grant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a grant id does not resolve. For Rotate this
// means the refresh token was already used or revoked.
var ErrNotFound = errors.New("grant not found")

// Store is the gorm-backed grant store. All mutations are single statements
// and therefore atomic with respect to concurrent refreshes of the same
// grant.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore returns a Store using the given database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// WithClock overrides the store's clock. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Create inserts a fresh grant for userID expiring three months from now.
func (s *Store) Create(ctx context.Context, userID string) (Grant, error) {
	g := Grant{
		ID:       uuid.NewString(),
		UserID:   userID,
		ExpireAt: expiry(s.now()),
	}
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return Grant{}, fmt.Errorf("create grant: %w", err)
	}
	return g, nil
}

// Rotate replaces the grant's id with a fresh one and extends its expiry,
// both in one UPDATE keyed on the old id. Zero affected rows means the old id
// no longer resolves and the caller must treat the refresh token as revoked.
// There is no window in which both ids validate.
func (s *Store) Rotate(ctx context.Context, oldID string) (Grant, error) {
	rotated := Grant{}
	res := s.db.WithContext(ctx).
		Model(&rotated).
		Clauses(clause.Returning{}).
		Where("id = ?", oldID).
		Updates(map[string]any{
			"id":        uuid.NewString(),
			"expire_at": expiry(s.now()),
		})
	if res.Error != nil {
		return Grant{}, fmt.Errorf("rotate grant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return Grant{}, ErrNotFound
	}
	return rotated, nil
}

// Delete removes the grant by id. Deleting an id that no longer resolves is
// not an error; revocation is idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Grant{}).Error; err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every grant of userID that exists at this moment.
// A login racing the delete may create a new grant afterwards; that grant
// stays valid.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Grant{}).Error; err != nil {
		return fmt.Errorf("delete user grants: %w", err)
	}
	return nil
}

// Exists reports whether the grant id currently resolves, without mutating
// anything.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Grant{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check grant: %w", err)
	}
	return count > 0, nil
}

// DeleteExpired sweeps grants whose expiry lies before now and returns how
// many were removed.
func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expire_at < ?", now).Delete(&Grant{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep grants: %w", res.Error)
	}
	return res.RowsAffected, nil
}
