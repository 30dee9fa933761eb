package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"omni_pulse/internal/models"
)

// ReportVersion is bumped whenever CycleReport changes shape.
const ReportVersion = "1.0"

// CycleReport is the artifact written after every bulk analysis cycle. It is
// an operator aid only: the dashboard never reads it back.
type CycleReport struct {
	Version         string                  `json:"version"`
	CycleID         string                  `json:"cycle_id"`
	StartedAt       time.Time               `json:"started_at"`
	FinishedAt      time.Time               `json:"finished_at"`
	Outcome         string                  `json:"outcome"`
	QuotaLimited    bool                    `json:"quota_limited"`
	Summary         string                  `json:"summary"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Signals         []models.Signal         `json:"signals"`
	News            []models.NewsItem       `json:"news"`
	Sentiment       models.MarketSentiment  `json:"sentiment"`
}

// SaveReport writes r to path using an atomic write pattern.
// 1. Write to a temporary file.
// 2. Sync to ensure data is on disk.
// 3. Rename temporary file to destination (atomic operation).
func SaveReport(path string, r CycleReport) error {
	if r.Version == "" {
		r.Version = ReportVersion
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	// Same directory as the target so the rename stays on one filesystem.
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}
	tmpFile := f.Name()
	defer os.Remove(tmpFile)
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp report file: %w", err)
	}

	// Force sync to disk to prevent data loss on power failure before rename
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp report file: %w", err)
	}

	// Close explicitly before renaming (essential on Windows)
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp report file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("replace report file (atomic rename): %w", err)
	}
	return nil
}
