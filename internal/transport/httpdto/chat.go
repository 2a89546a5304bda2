package httpdto

import (
	"time"

	"github.com/google/uuid"

	"gebeya-market/internal/services"
)

type StartChatRequest struct {
	ListingID uuid.UUID `json:"listing_id" binding:"required"`
}

type SendMessageRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
}

type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	ChatID     uuid.UUID `json:"chat_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	IsRead     bool      `json:"is_read"`
	IsMine     bool      `json:"is_mine"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewMessageResponse(view services.MessageView) MessageResponse {
	return MessageResponse{
		ID:         view.ID,
		ChatID:     view.ChatID,
		SenderID:   view.SenderID,
		SenderName: view.SenderName,
		Text:       view.Text,
		ImageURL:   view.ImageURL,
		IsRead:     view.IsRead,
		IsMine:     view.IsMine,
		CreatedAt:  view.CreatedAt,
	}
}

func NewMessageResponses(views []services.MessageView) []MessageResponse {
	out := make([]MessageResponse, 0, len(views))
	for _, view := range views {
		out = append(out, NewMessageResponse(view))
	}
	return out
}

type ChatSummaryResponse struct {
	ID                uuid.UUID  `json:"id"`
	ListingID         uuid.UUID  `json:"listing_id"`
	ListingTitle      string     `json:"listing_title"`
	ListingImage      string     `json:"listing_image,omitempty"`
	ListingPrice      float64    `json:"listing_price"`
	OtherUserID       uuid.UUID  `json:"other_user_id"`
	OtherUserName     string     `json:"other_user_name"`
	OtherUserVerified bool       `json:"other_user_verified"`
	LastMessage       string     `json:"last_message,omitempty"`
	LastMessageAt     *time.Time `json:"last_message_at,omitempty"`
	UnreadCount       int        `json:"unread_count"`
	IsSeller          bool       `json:"is_seller"`
}

func NewChatSummaryResponse(s services.ChatSummary) ChatSummaryResponse {
	return ChatSummaryResponse{
		ID:                s.ID,
		ListingID:         s.ListingID,
		ListingTitle:      s.ListingTitle,
		ListingImage:      s.ListingImage,
		ListingPrice:      s.ListingPrice,
		OtherUserID:       s.OtherUserID,
		OtherUserName:     s.OtherUserName,
		OtherUserVerified: s.OtherUserVerified,
		LastMessage:       s.LastMessage,
		LastMessageAt:     s.LastMessageAt,
		UnreadCount:       s.UnreadCount,
		IsSeller:          s.IsSeller,
	}
}

func NewChatSummaryResponses(summaries []services.ChatSummary) []ChatSummaryResponse {
	out := make([]ChatSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, NewChatSummaryResponse(s))
	}
	return out
}

type ChatDetailResponse struct {
	ID                uuid.UUID         `json:"id"`
	ListingID         uuid.UUID         `json:"listing_id"`
	ListingTitle      string            `json:"listing_title"`
	ListingImage      string            `json:"listing_image,omitempty"`
	ListingPrice      float64           `json:"listing_price"`
	ListingStatus     string            `json:"listing_status"`
	OtherUserID       uuid.UUID         `json:"other_user_id"`
	OtherUserName     string            `json:"other_user_name"`
	OtherUserVerified bool              `json:"other_user_verified"`
	IsSeller          bool              `json:"is_seller"`
	Messages          []MessageResponse `json:"messages"`
}

func NewChatDetailResponse(d services.ChatDetail) ChatDetailResponse {
	return ChatDetailResponse{
		ID:                d.ID,
		ListingID:         d.ListingID,
		ListingTitle:      d.ListingTitle,
		ListingImage:      d.ListingImage,
		ListingPrice:      d.ListingPrice,
		ListingStatus:     d.ListingStatus,
		OtherUserID:       d.OtherUserID,
		OtherUserName:     d.OtherUserName,
		OtherUserVerified: d.OtherUserVerified,
		IsSeller:          d.IsSeller,
		Messages:          NewMessageResponses(d.Messages),
	}
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
