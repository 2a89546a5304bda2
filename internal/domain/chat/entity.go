package chat

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"
)

// Chat represents the chats table: the single conversation between a
// listing's buyer and its seller. At most one chat exists per
// (listing, buyer) pair. SellerID is frozen at creation time.
type Chat struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ListingID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_chats_listing_buyer"`
	BuyerID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_chats_listing_buyer"`
	SellerID  uuid.UUID `gorm:"type:uuid;index"`

	IsActive      bool `gorm:"default:true"`
	LastMessageAt sql.NullTime
	CreatedAt     time.Time

	// Relationships
	Listing  *listing.Listing `gorm:"foreignKey:ListingID"`
	Buyer    *user.User       `gorm:"foreignKey:BuyerID"`
	Seller   *user.User       `gorm:"foreignKey:SellerID"`
	Messages []Message        `gorm:"foreignKey:ChatID"`
}

// Participant reports whether userID is one of the chat's two sides.
func (c Chat) Participant(userID uuid.UUID) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// Counterpart returns the other side of the chat for userID.
func (c Chat) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.SellerID == userID {
		return c.BuyerID
	}
	return c.SellerID
}

// Message represents the messages table. IsRead is a one-way latch: it only
// moves false -> true, set by the non-sender reading the thread.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatID    uuid.UUID `gorm:"type:uuid;index"`
	SenderID  uuid.UUID `gorm:"type:uuid"`
	Text      sql.NullString
	ImageURL  sql.NullString
	IsRead    bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"index"`
}
