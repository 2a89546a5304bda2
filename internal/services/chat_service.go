package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"gebeya-market/internal/domain/chat"
	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"
	"gebeya-market/internal/notify"
	"gebeya-market/internal/repository"
	market_errors "gebeya-market/pkg/errors"
	"gebeya-market/pkg/logger"
)

// Fallback projection for chats whose listing no longer resolves. Degrading
// to a sentinel keeps the chat list usable instead of failing the whole view.
const deletedListingTitle = "Deleted"

// ChatService owns the chat lifecycle: idempotent creation, participant
// access control, message send, read-marking and unread aggregation.
type ChatService struct {
	chatRepo    repository.ChatRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	notifier    notify.Notifier
	logger      *logger.Logger

	// allowEmpty lets blank (empty-after-trim) messages through.
	allowEmpty bool
}

func NewChatService(
	chatRepo repository.ChatRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	notifier notify.Notifier,
	l *logger.Logger,
	allowEmpty bool,
) *ChatService {
	return &ChatService{
		chatRepo:    chatRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      l,
		allowEmpty:  allowEmpty,
	}
}

// MessageView is a message annotated for one viewer.
type MessageView struct {
	ID         uuid.UUID
	ChatID     uuid.UUID
	SenderID   uuid.UUID
	SenderName string
	Text       string
	HasText    bool
	ImageURL   string
	IsRead     bool
	CreatedAt  time.Time
	IsMine     bool
}

// ChatSummary is one row of a user's chat list.
type ChatSummary struct {
	ID                uuid.UUID
	ListingID         uuid.UUID
	ListingTitle      string
	ListingImage      string
	ListingPrice      float64
	OtherUserID       uuid.UUID
	OtherUserName     string
	OtherUserVerified bool
	LastMessage       string
	LastMessageAt     *time.Time
	UnreadCount       int
	IsSeller          bool
}

// ChatDetail is the full thread as seen by one participant.
type ChatDetail struct {
	ID                uuid.UUID
	ListingID         uuid.UUID
	ListingTitle      string
	ListingImage      string
	ListingPrice      float64
	ListingStatus     string
	OtherUserID       uuid.UUID
	OtherUserName     string
	OtherUserVerified bool
	IsSeller          bool
	Messages          []MessageView
}

// GetOrCreateChat returns the chat between buyerID and the listing's seller,
// creating it on first contact. Repeated calls return the same chat. The
// seller is the listing owner at creation time and never changes afterwards.
func (s *ChatService) GetOrCreateChat(ctx context.Context, listingID, buyerID uuid.UUID) (ChatDetail, error) {
	l, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return ChatDetail{}, err
	}
	if l.UserID == buyerID {
		return ChatDetail{}, market_errors.ErrInvalidOperation
	}

	c, err := s.chatRepo.FindByListingAndBuyer(ctx, listingID, buyerID)
	if errors.Is(err, market_errors.ErrNotFound) {
		created := chat.Chat{
			ID:        uuid.New(),
			ListingID: listingID,
			BuyerID:   buyerID,
			SellerID:  l.UserID,
			IsActive:  true,
		}
		err = s.chatRepo.Create(ctx, &created)
		if errors.Is(err, market_errors.ErrAlreadyExists) {
			// Lost a creation race; the winner's chat is ours too.
			c, err = s.chatRepo.FindByListingAndBuyer(ctx, listingID, buyerID)
			if err != nil {
				return ChatDetail{}, err
			}
		} else if err != nil {
			return ChatDetail{}, err
		} else {
			c = created
		}
	} else if err != nil {
		return ChatDetail{}, err
	}

	thread, err := s.chatRepo.GetThread(ctx, c.ID)
	if err != nil {
		return ChatDetail{}, err
	}
	return s.buildDetail(thread, buyerID), nil
}

// ListChats returns the user's active chats ordered by last activity,
// newest first; chats that never had a message sort last.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]ChatSummary, error) {
	chats, err := s.chatRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		isSeller := c.SellerID == userID
		other := c.Buyer
		if !isSeller {
			other = c.Seller
		}

		summary := ChatSummary{
			ID:            c.ID,
			ListingID:     c.ListingID,
			ListingTitle:  deletedListingTitle,
			ListingPrice:  0,
			OtherUserName: "User",
			IsSeller:      isSeller,
		}
		if c.Listing != nil {
			summary.ListingTitle = c.Listing.Title
			summary.ListingImage = c.Listing.FirstImage()
			summary.ListingPrice = c.Listing.Price
		}
		if other != nil {
			summary.OtherUserID = other.ID
			summary.OtherUserName = other.DisplayName()
			summary.OtherUserVerified = other.IsPhoneVerified
		}

		for _, m := range c.Messages {
			if m.SenderID != userID && !m.IsRead {
				summary.UnreadCount++
			}
		}
		if len(c.Messages) > 0 {
			last := c.Messages[len(c.Messages)-1]
			summary.LastMessage = last.Text.String
			at := last.CreatedAt
			summary.LastMessageAt = &at
		}

		items = append(items, summary)
	}
	return items, nil
}

// GetChatDetail returns the full thread for a participant and marks every
// unread counterpart message as read. Re-reading is a no-op on read state.
func (s *ChatService) GetChatDetail(ctx context.Context, chatID, userID uuid.UUID) (ChatDetail, error) {
	thread, err := s.chatRepo.GetThread(ctx, chatID)
	if err != nil {
		return ChatDetail{}, err
	}
	if !thread.Participant(userID) {
		return ChatDetail{}, market_errors.ErrForbidden
	}

	if err := s.chatRepo.MarkMessagesRead(ctx, chatID, userID, nil); err != nil {
		return ChatDetail{}, err
	}

	detail := s.buildDetail(thread, userID)
	for i := range detail.Messages {
		if !detail.Messages[i].IsMine {
			detail.Messages[i].IsRead = true
		}
	}
	return detail, nil
}

// SendMessage appends a message and advances the chat's last-activity
// timestamp in one transaction, then fires a counterpart notification
// without blocking the caller.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, text, imageURL string) (MessageView, error) {
	c, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return MessageView{}, err
	}
	if !c.Participant(senderID) {
		return MessageView{}, market_errors.ErrForbidden
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" && imageURL == "" && !s.allowEmpty {
		return MessageView{}, market_errors.ErrInvalidInput
	}

	m := chat.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      sql.NullString{String: trimmed, Valid: trimmed != ""},
		ImageURL:  sql.NullString{String: imageURL, Valid: imageURL != ""},
		IsRead:    false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chatRepo.AppendMessage(ctx, &m); err != nil {
		return MessageView{}, err
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		// The message is committed; the view just loses the display name.
		sender = user.User{ID: senderID}
	}

	preview := trimmed
	if preview == "" && imageURL != "" {
		preview = "📷 Photo"
	}
	s.notifyCounterpart(c, sender, preview)

	view := toMessageView(m, senderID)
	view.SenderName = sender.DisplayName()
	return view, nil
}

// PollMessages is the incremental sync read: messages with
// createdAt > after (or the whole thread when after is nil), ascending.
// Returned counterpart messages are marked read, so a retry with a stale
// cursor may redeliver but never double-counts unread state.
func (s *ChatService) PollMessages(ctx context.Context, chatID, userID uuid.UUID, after *time.Time) ([]MessageView, error) {
	c, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !c.Participant(userID) {
		return nil, market_errors.ErrForbidden
	}

	messages, err := s.chatRepo.GetMessages(ctx, chatID, after)
	if err != nil {
		return nil, err
	}
	if err := s.chatRepo.MarkMessagesRead(ctx, chatID, userID, after); err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		v := toMessageView(m, userID)
		if !v.IsMine {
			v.IsRead = true
		}
		views = append(views, v)
	}
	return views, nil
}

// UnreadCount sums unread counterpart messages across the user's active
// chats. It is recomputed on demand and agrees with the per-chat counts
// from ListChats.
func (s *ChatService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.chatRepo.CountUnreadForUser(ctx, userID)
}

func (s *ChatService) buildDetail(c chat.Chat, viewerID uuid.UUID) ChatDetail {
	isSeller := c.SellerID == viewerID
	other := c.Buyer
	if !isSeller {
		other = c.Seller
	}

	detail := ChatDetail{
		ID:            c.ID,
		ListingID:     c.ListingID,
		ListingTitle:  deletedListingTitle,
		ListingStatus: listing.StatusDeleted,
		OtherUserName: "User",
		IsSeller:      isSeller,
	}
	if c.Listing != nil {
		detail.ListingTitle = c.Listing.Title
		detail.ListingImage = c.Listing.FirstImage()
		detail.ListingPrice = c.Listing.Price
		detail.ListingStatus = c.Listing.Status
	}
	if other != nil {
		detail.OtherUserID = other.ID
		detail.OtherUserName = other.DisplayName()
		detail.OtherUserVerified = other.IsPhoneVerified
	}

	detail.Messages = make([]MessageView, 0, len(c.Messages))
	for _, m := range c.Messages {
		v := toMessageView(m, viewerID)
		if c.Buyer != nil && m.SenderID == c.BuyerID {
			v.SenderName = c.Buyer.DisplayName()
		} else if c.Seller != nil && m.SenderID == c.SellerID {
			v.SenderName = c.Seller.DisplayName()
		}
		detail.Messages = append(detail.Messages, v)
	}
	return detail
}

// notifyCounterpart fires the new-message event in the background. Delivery
// failures are logged, never surfaced to the sender.
func (s *ChatService) notifyCounterpart(c chat.Chat, sender user.User, text string) {
	if s.notifier == nil {
		return
	}

	recipientID := c.Counterpart(sender.ID)
	listingID := c.ListingID

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		recipient, err := s.userRepo.GetByID(ctx, recipientID)
		if err != nil || recipient.TelegramID == 0 {
			return
		}
		if enabled, ok := recipient.Settings["notifications_enabled"].(bool); ok && !enabled {
			return
		}

		title := deletedListingTitle
		if l, err := s.listingRepo.GetByID(ctx, listingID); err == nil {
			title = l.Title
		}

		event := notify.NewMessageEvent{
			RecipientID:         recipient.ID,
			RecipientTelegramID: recipient.TelegramID,
			SenderName:          sender.DisplayName(),
			ListingTitle:        title,
			MessagePreview:      notify.Preview(text),
			ListingID:           listingID,
		}
		if err := s.notifier.NotifyNewMessage(ctx, event); err != nil {
			s.logger.Errorf("failed to notify user %s: %v", recipient.ID, err)
		}
	}()
}

func toMessageView(m chat.Message, viewerID uuid.UUID) MessageView {
	return MessageView{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Text:      m.Text.String,
		HasText:   m.Text.Valid,
		ImageURL:  m.ImageURL.String,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
		IsMine:    m.SenderID == viewerID,
	}
}
