package notify

import (
	"context"

	"github.com/google/uuid"
)

// NewMessageEvent describes a message a counterpart should be told about.
type NewMessageEvent struct {
	RecipientID         uuid.UUID
	RecipientTelegramID int64
	SenderName          string
	ListingTitle        string
	MessagePreview      string
	ListingID           uuid.UUID
}

// Notifier delivers chat events to users out-of-band. Delivery is
// best-effort: the chat engine fires events without waiting and a failed
// delivery never fails the send that produced it.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, event NewMessageEvent) error
}

const previewLimit = 100

// Preview truncates text to the notification preview length, suffixing "..."
// when cut.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit-3]) + "..."
}
