package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"omni_pulse/internal/logger"
)

const defaultAPIBase = "https://api.telegram.org"

// Bot sends alerts to one chat and accepts commands from it only.
type Bot struct {
	token   string
	chatID  int64
	apiBase string
	http    *http.Client
}

// New returns nil when the credentials are incomplete; a nil *Bot is a
// valid no-op notifier.
func New(token, chatID string) *Bot {
	token, chatID = strings.TrimSpace(token), strings.TrimSpace(chatID)
	if token == "" || chatID == "" {
		logger.Log.Info("Telegram credentials missing, notifications disabled")
		return nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		logger.Log.WithError(err).Warn("TELEGRAM_CHAT_ID is not numeric, notifications disabled")
		return nil
	}
	return &Bot{
		token:   token,
		chatID:  id,
		apiBase: defaultAPIBase,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
}

func (b *Bot) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", b.apiBase, b.token, method)
}

// Notify sends text to the configured chat. Failures are logged only.
func (b *Bot) Notify(text string) {
	if b == nil || strings.TrimSpace(text) == "" {
		return
	}

	payload := map[string]string{
		"chat_id":    strconv.FormatInt(b.chatID, 10),
		"text":       text,
		"parse_mode": "Markdown",
	}
	logger.Log.Debugf("Telegram Notify: %s", text)

	body, _ := json.Marshal(payload)
	resp, err := b.http.Post(b.endpoint("sendMessage"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		logger.Log.WithError(err).Warn("Telegram alert failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warnf("Telegram API error: status %s", resp.Status)
	}
}

// ctxSleep waits d or until ctx is done, reporting whether to continue.
func ctxSleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
