package userstore

import (
	"time"

	"github.com/lib/pq"
)

// User is the persisted account row. MFASecret is nil while MFA is disabled;
// MFABackupCodes holds the codes not yet consumed.
type User struct {
	ID             string         `gorm:"type:uuid;primaryKey"`
	Username       string         `gorm:"uniqueIndex;not null"`
	PasswordHash   string         `gorm:"not null"`
	Role           string         `gorm:"not null"`
	MFASecret      *string        `gorm:"column:mfa_secret"`
	MFABackupCodes pq.StringArray `gorm:"column:mfa_backup_codes;type:text[]"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName pins the gorm table name.
func (User) TableName() string {
	return "users"
}
