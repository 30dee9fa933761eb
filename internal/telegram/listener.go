package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"omni_pulse/internal/logger"
)

// Update represents a Telegram Update object (partial schema)
type Update struct {
	UpdateID int `json:"update_id"`
	Message  struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type UpdateResponse struct {
	Ok          bool     `json:"ok"`
	Result      []Update `json:"result"`
	Description string   `json:"description"`
	ErrorCode   int      `json:"error_code"`
}

// CommandHandler processes one slash command and returns the reply text.
type CommandHandler func(command string) string

// Listen long-polls for commands until ctx is cancelled. Messages from any
// chat other than the configured one are ignored without a reply.
func (b *Bot) Listen(ctx context.Context, handler CommandHandler) {
	if b == nil {
		return
	}
	log := logger.Log.WithField("component", "telegram")
	log.Info("Telegram listener started")

	offset := 0
	for ctx.Err() == nil {
		updates, err := b.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.WithError(err).Warn("Telegram listener error")
			if !ctxSleep(ctx, 5*time.Second) {
				break
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1

			if update.Message.Chat.ID != b.chatID {
				log.Warnf("Unauthorized command attempt: user %s (chat %d) tried: %s",
					update.Message.From.Username, update.Message.Chat.ID, update.Message.Text)
				continue
			}

			text := strings.TrimSpace(update.Message.Text)
			if strings.HasPrefix(text, "/") {
				log.Infof("Command received: %s", text)
				b.Notify(handler(text))
			}
		}
	}
	log.Info("Telegram listener stopped")
}

func (b *Bot) getUpdates(ctx context.Context, offset int) ([]Update, error) {
	url := fmt.Sprintf("%s?offset=%d&timeout=60", b.endpoint("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result UpdateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	if !result.Ok {
		return nil, fmt.Errorf("telegram API error: %s (code %d)", result.Description, result.ErrorCode)
	}
	return result.Result, nil
}
