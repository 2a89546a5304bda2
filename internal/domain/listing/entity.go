package listing

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Listing statuses
const (
	StatusActive  = "active"
	StatusSold    = "sold"
	StatusExpired = "expired"
	StatusDeleted = "deleted"
)

// Category represents the categories table
type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slug string    `gorm:"uniqueIndex"`
	Name string
}

// Listing represents the listings table
type Listing struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;index"`
	CategoryID   uuid.UUID `gorm:"type:uuid;index"`
	Title        string
	Description  string
	Price        float64
	Condition    string
	IsNegotiable bool
	City         string
	Area         sql.NullString
	Images       []string `gorm:"serializer:json"`
	Status       string   `gorm:"index;default:active"`
	ExpiresAt    sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FirstImage returns the cover image URL, or "" when the listing has none.
func (l Listing) FirstImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}
