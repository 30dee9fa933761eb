package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"omni_pulse/internal/ai"
)

type CommandDoc struct {
	Name        string
	Description string
	Example     string
}

// deepDiveCommandTimeout bounds a /deepdive issued from chat.
const deepDiveCommandTimeout = 45 * time.Second

// HandleCommand processes inbound Telegram commands safely.
func (w *Watcher) HandleCommand(cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return ""
	}

	switch strings.ToLower(parts[0]) {
	case "/ping":
		return "Pong 🏓"
	case "/status":
		return w.getStatus()
	case "/scan":
		return w.handleScanCommand()
	case "/deepdive":
		if len(parts) < 2 {
			return "Usage: /deepdive <symbol>"
		}
		return w.handleDeepDiveCommand(strings.Join(parts[1:], " "))
	case "/help":
		return w.getHelp()
	default:
		return "Unknown command. Try /status, /scan, /deepdive or /help."
	}
}

func (w *Watcher) handleScanCommand() string {
	switch err := w.Trigger(); {
	case errors.Is(err, ai.ErrMissingCredentials):
		return "⚠️ Intelligence credentials missing. Check INTELLIGENCE_API_KEY."
	case err != nil:
		return "⏳ A scan is already running. Results will be published when it completes."
	}
	return "🔎 Scan started. Use /status in a minute to see the new synthesis."
}

func (w *Watcher) handleDeepDiveCommand(key string) string {
	ctx, cancel := context.WithTimeout(w.ctx, deepDiveCommandTimeout)
	defer cancel()

	rec, err := w.DeepDive(ctx, key)
	switch {
	case errors.Is(err, ErrUnknownAsset):
		return fmt.Sprintf("⚠️ Unknown asset '%s'.", key)
	case errors.Is(err, ai.ErrMissingCredentials):
		return "⚠️ Intelligence credentials missing. Check INTELLIGENCE_API_KEY."
	case err != nil:
		return fmt.Sprintf("⚠️ Deep dive failed: %v", err)
	case rec == nil:
		return fmt.Sprintf("⚠️ No verdict for '%s' right now. Try again later.", key)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧠 *DEEP DIVE: %s*\n", strings.ToUpper(rec.Asset)))
	sb.WriteString(fmt.Sprintf("%s %s (%.0f%%)\n", actionIcon(string(rec.Action)), rec.Action, rec.Confidence))
	if rec.Justification != "" {
		sb.WriteString(rec.Justification + "\n")
	}
	if len(rec.Signals) > 0 {
		sb.WriteString("`" + strings.Join(rec.Signals, "` `") + "`\n")
	}
	return sb.String()
}

func (w *Watcher) getHelp() string {
	var sb strings.Builder
	sb.WriteString("🤖 *OMNI PULSE COMMANDS*\n\n")
	for _, cmd := range w.commands {
		sb.WriteString(fmt.Sprintf("🔹 *%s*\n%s\n`%s`\n\n", cmd.Name, cmd.Description, cmd.Example))
	}
	return sb.String()
}
