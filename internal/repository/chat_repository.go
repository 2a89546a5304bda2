package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gebeya-market/internal/domain/chat"
	market_errors "gebeya-market/pkg/errors"
)

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) FindByListingAndBuyer(ctx context.Context, listingID, buyerID uuid.UUID) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.WithContext(ctx).
		Where("listing_id = ? AND buyer_id = ?", listingID, buyerID).
		First(&c).Error
	if err != nil {
		return chat.Chat{}, mapStoreError(err)
	}
	return c, nil
}

func (r *PostgresChatRepository) Create(ctx context.Context, c *chat.Chat) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return market_errors.ErrAlreadyExists
		}
		return mapStoreError(res.Error)
	}
	return nil
}

func (r *PostgresChatRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return chat.Chat{}, mapStoreError(err)
	}
	return c, nil
}

func (r *PostgresChatRepository) GetThread(ctx context.Context, id uuid.UUID) (chat.Chat, error) {
	var c chat.Chat
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Preload("Seller").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return chat.Chat{}, mapStoreError(err)
	}
	return c, nil
}

func (r *PostgresChatRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]chat.Chat, error) {
	var chats []chat.Chat
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Preload("Buyer").
		Preload("Seller").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("(buyer_id = ? OR seller_id = ?) AND is_active", userID, userID).
		Order("last_message_at DESC NULLS LAST").
		Find(&chats).Error
	if err != nil {
		return nil, mapStoreError(err)
	}
	return chats, nil
}

// AppendMessage writes the message and the chat's last_message_at together.
// A reader must never see one without the other.
func (r *PostgresChatRepository) AppendMessage(ctx context.Context, m *chat.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		res := tx.Model(&chat.Chat{}).
			Where("id = ?", m.ChatID).
			Update("last_message_at", sql.NullTime{Time: m.CreatedAt, Valid: true})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (r *PostgresChatRepository) GetMessages(ctx context.Context, chatID uuid.UUID, after *time.Time) ([]chat.Message, error) {
	var messages []chat.Message
	q := r.db.WithContext(ctx).Where("chat_id = ?", chatID)
	if after != nil {
		q = q.Where("created_at > ?", *after)
	}
	err := q.Order("created_at ASC, id ASC").Find(&messages).Error
	if err != nil {
		return nil, mapStoreError(err)
	}
	return messages, nil
}

// MarkMessagesRead only touches rows where is_read is still false, so the
// false -> true latch never reverts and redundant calls are no-ops.
func (r *PostgresChatRepository) MarkMessagesRead(ctx context.Context, chatID, readerID uuid.UUID, after *time.Time) error {
	q := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("chat_id = ? AND sender_id <> ? AND is_read = false", chatID, readerID)
	if after != nil {
		q = q.Where("created_at > ?", *after)
	}
	if err := q.Update("is_read", true).Error; err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (r *PostgresChatRepository) CountUnreadForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Joins("JOIN chats ON chats.id = messages.chat_id").
		Where("(chats.buyer_id = ? OR chats.seller_id = ?) AND chats.is_active", userID, userID).
		Where("messages.sender_id <> ? AND messages.is_read = false", userID).
		Count(&count).Error
	if err != nil {
		return 0, mapStoreError(err)
	}
	return count, nil
}

// mapStoreError folds driver failures into the retryable store error while
// keeping not-found terminal.
func mapStoreError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return market_errors.ErrNotFound
	}
	return fmt.Errorf("%w: %v", market_errors.ErrStoreUnavailable, err)
}
