package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"gebeya-market/pkg/logger"
)

// TelegramNotifier sends chat notifications through the Telegram bot API.
type TelegramNotifier struct {
	botToken    string
	botUsername string
	client      *http.Client
	logger      *logger.Logger
}

func NewTelegramNotifier(botToken, botUsername string, l *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken:    botToken,
		botUsername: botUsername,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      l,
	}
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type sendMessagePayload struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ParseMode   string `json:"parse_mode"`
	ReplyMarkup *struct {
		InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
	} `json:"reply_markup,omitempty"`
}

func (n *TelegramNotifier) NotifyNewMessage(ctx context.Context, event NewMessageEvent) error {
	if n.botToken == "" {
		n.logger.Warnf("No BOT_TOKEN configured, skipping notification")
		return nil
	}

	text := fmt.Sprintf(
		"💬 <b>አዲስ መልእክት / New Message</b>\n\nከ <b>%s</b>\nስለ: %s\n\n<i>%s</i>",
		event.SenderName, event.ListingTitle, event.MessagePreview,
	)

	payload := sendMessagePayload{
		ChatID:    event.RecipientTelegramID,
		Text:      text,
		ParseMode: "HTML",
	}
	if event.ListingID != uuid.Nil {
		// Deep link opening the listing inside the mini app.
		webAppURL := fmt.Sprintf("https://t.me/%s/app?startapp=l_%s", n.botUsername, event.ListingID)
		payload.ReplyMarkup = &struct {
			InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
		}{
			InlineKeyboard: [][]inlineButton{{{Text: "💬 መልስ ስጥ / Reply", URL: webAppURL}}},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api status %d", resp.StatusCode)
	}
	return nil
}
