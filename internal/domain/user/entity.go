package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents the users table. Identity comes from Telegram; there is no
// password login.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TelegramID   int64     `gorm:"uniqueIndex"`
	Username     sql.NullString
	FirstName    string
	LastName     sql.NullString
	PhotoURL     sql.NullString
	IsPremium    bool
	LanguageCode sql.NullString

	Phone           sql.NullString
	IsPhoneVerified bool
	PhoneVerifiedAt sql.NullTime

	City string
	Area sql.NullString

	Rating           float64
	TotalSales       int
	TotalListings    int
	IsVerifiedSeller bool

	// PasscodeHash is a bcrypt hash of the optional app-lock passcode.
	PasscodeHash sql.NullString

	Settings map[string]any `gorm:"serializer:json"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName is the name shown to chat counterparts.
func (u User) DisplayName() string {
	if u.LastName.Valid && u.LastName.String != "" {
		return u.FirstName + " " + u.LastName.String
	}
	return u.FirstName
}
