package watcher

import (
	"fmt"
	"strings"
	"time"

	"omni_pulse/internal/ai"
	"omni_pulse/internal/models"
	"omni_pulse/internal/state"
	"omni_pulse/internal/storage"
)

// statusRecLimit caps how many recommendations /status lists.
const statusRecLimit = 5

func actionIcon(action string) string {
	switch models.Action(action) {
	case models.ActionBuy:
		return "🟢"
	case models.ActionSell:
		return "🔴"
	default:
		return "🟡"
	}
}

func (w *Watcher) getStatus() string {
	snap := w.board.Snapshot()

	var sb strings.Builder
	sb.WriteString("📡 *OMNI PULSE STATUS*\n")
	sb.WriteString(fmt.Sprintf("Mode: %s • %s\n", snap.Status.Mode, snap.Status.Cadence))
	if snap.Status.Analyzing {
		sb.WriteString("Scan: running ⏳\n")
	}
	if !snap.Status.LastCycleAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Last cycle: %s (%s)\n",
			snap.Status.LastCycleAt.Format("15:04:05"), snap.Status.LastOutcome))
	}
	sb.WriteString(fmt.Sprintf("Sentiment: %d%% bull / %d%% bear\n", snap.Sentiment.Bullish, snap.Sentiment.Bearish))
	sb.WriteString(fmt.Sprintf("Uptime: %s\n\n", time.Since(w.startTime).Round(time.Second)))

	sb.WriteString("_" + snap.Summary + "_\n")

	if len(snap.Recommendations) > 0 {
		sb.WriteString("\n*Calls*\n")
		for i, r := range snap.Recommendations {
			if i == statusRecLimit {
				sb.WriteString(fmt.Sprintf("… and %d more\n", len(snap.Recommendations)-statusRecLimit))
				break
			}
			sb.WriteString(fmt.Sprintf("%s %s %s (%.0f%%)\n", actionIcon(string(r.Action)), r.Asset, r.Action, r.Confidence))
		}
	}

	if len(snap.Signals) > 0 {
		sb.WriteString("\n*Signals*\n")
		for _, s := range snap.Signals {
			sb.WriteString(fmt.Sprintf("• [%s/%s] %s\n", s.Type, s.Impact, s.Title))
		}
	}
	return sb.String()
}

// writeReport persists the cycle artifact when a report file is configured.
// Failures are logged and never affect the cycle.
func (w *Watcher) writeReport(cycleID string, started time.Time, res ai.Result, snap state.Snapshot) {
	if w.reportFile == "" {
		return
	}
	report := storage.CycleReport{
		CycleID:         cycleID,
		StartedAt:       started,
		FinishedAt:      time.Now(),
		Outcome:         string(res.Outcome),
		QuotaLimited:    snap.Status.QuotaLimited,
		Summary:         snap.Summary,
		Recommendations: snap.Recommendations,
		Signals:         snap.Signals,
		News:            snap.News,
		Sentiment:       snap.Sentiment,
	}
	if err := storage.SaveReport(w.reportFile, report); err != nil {
		w.log.WithError(err).Warn("Failed to write cycle report")
	}
}
