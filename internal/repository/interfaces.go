package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gebeya-market/internal/domain/chat"
	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (user.User, error)
	Update(ctx context.Context, u user.User) error
}

type ListingRepository interface {
	Create(ctx context.Context, l *listing.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error)
	Update(ctx context.Context, l listing.Listing) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error

	ListActive(ctx context.Context, f ListingFilter) ([]listing.Listing, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]listing.Listing, error)

	GetCategories(ctx context.Context) ([]listing.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (listing.Category, error)
}

// ListingFilter narrows ListActive results. Zero values mean "no filter".
type ListingFilter struct {
	CategoryID uuid.UUID
	City       string
	Query      string
	Page       int
	Limit      int
}

// ChatRepository is the persistence port for the chat engine. Implementations
// must make AppendMessage a single transaction (message insert plus
// last_message_at touch) and MarkMessagesRead an idempotent set-based write.
type ChatRepository interface {
	FindByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (chat.Chat, error)
	Create(ctx context.Context, c *chat.Chat) error

	// GetByID returns the bare chat row, without relations.
	GetByID(ctx context.Context, id uuid.UUID) (chat.Chat, error)
	// GetThread returns the chat with listing, participants and the full
	// message thread ordered by (created_at, id) ascending.
	GetThread(ctx context.Context, id uuid.UUID) (chat.Chat, error)
	// ListForUser returns active chats where the user is buyer or seller,
	// ordered by last_message_at descending with null timestamps last.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]chat.Chat, error)

	// AppendMessage inserts the message and advances the chat's
	// last_message_at in one transaction.
	AppendMessage(ctx context.Context, m *chat.Message) error

	// GetMessages returns the thread ordered ascending; when after is
	// non-nil only messages with created_at > *after are returned.
	GetMessages(ctx context.Context, chatID uuid.UUID, after *time.Time) ([]chat.Message, error)

	// MarkMessagesRead flips is_read on every unread message in the chat not
	// sent by readerID, restricted to created_at > *after when set. Already
	// read rows are untouched, so concurrent calls are safe.
	MarkMessagesRead(ctx context.Context, chatID, readerID uuid.UUID, after *time.Time) error

	CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
