package grant

import "time"

// Grant is one outstanding, revocable refresh capability. ExpireAt tracks the
// paired refresh token's expiry.
type Grant struct {
	ID       string    `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"type:uuid;not null;index"`
	ExpireAt time.Time `gorm:"not null;index"`
}

// TableName pins the gorm table name.
func (Grant) TableName() string {
	return "grants"
}

// lifetimeMonths is how far ExpireAt moves into the future at creation and on
// every rotation.
const lifetimeMonths = 3

func expiry(now time.Time) time.Time {
	return now.AddDate(0, lifetimeMonths, 0)
}
