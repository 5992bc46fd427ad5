// Package notify sends outbound chat messages. The core never formats
// transport payloads itself; it hands structured results to this boundary.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"persona-survey-bot/internal/domain"
)

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	token  string
	client *http.Client
	base   string
}

func NewTelegram(token string) *Telegram {
	return &Telegram{
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
		base:   "https://api.telegram.org",
	}
}

// NewTelegramWithBase points the client at a different API host; test hook.
func NewTelegramWithBase(token, base string) *Telegram {
	t := NewTelegram(token)
	t.base = base
	return t
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

func (t *Telegram) Notify(ctx context.Context, userID int64, text string, buttons []domain.Button) error {
	payload := map[string]interface{}{
		"chat_id":    userID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if len(buttons) > 0 {
		row := make([]inlineButton, 0, len(buttons))
		for _, b := range buttons {
			row = append(row, inlineButton{Text: b.Text, URL: b.URL})
		}
		payload["reply_markup"] = inlineKeyboard{InlineKeyboard: [][]inlineButton{row}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.base, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message to %d: %w", userID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram api status %d for user %d", resp.StatusCode, userID)
	}
	return nil
}

// Log is a Notifier that only logs; used when no bot token is configured.
type Log struct{}

func (Log) Notify(_ context.Context, userID int64, text string, _ []domain.Button) error {
	log.Printf("notify user %d: %s", userID, text)
	return nil
}
