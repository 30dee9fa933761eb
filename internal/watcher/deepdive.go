package watcher

import (
	"context"
	"fmt"

	"omni_pulse/internal/ai"
	"omni_pulse/internal/models"
	"omni_pulse/internal/state"
)

// Trigger starts a bulk cycle on behalf of an operator or API caller. It is
// refused with ai.ErrMissingCredentials while the last cycle failed for lack
// of credentials; scheduled cycles keep retrying and lift the refusal.
func (w *Watcher) Trigger() error {
	if w.noCreds.Load() {
		return ai.ErrMissingCredentials
	}
	if !w.ScheduleAnalysis() {
		return ErrAnalysisInFlight
	}
	return nil
}

// ResolveAsset finds an asset by id first, then by symbol, name or id.
func (w *Watcher) ResolveAsset(key string) (models.Asset, error) {
	if a, ok := w.assets.Get(key); ok {
		return a, nil
	}
	if a, ok := w.assets.Find(key); ok {
		return a, nil
	}
	return models.Asset{}, fmt.Errorf("%w: %q", ErrUnknownAsset, key)
}

// DeepDive runs a targeted analysis and upserts the single recommendation it
// yields. It shows as busy on the board but does not take the bulk guard.
// A nil recommendation with a nil error means the analysis degraded.
func (w *Watcher) DeepDive(ctx context.Context, key string) (*models.Recommendation, error) {
	asset, err := w.ResolveAsset(key)
	if err != nil {
		return nil, err
	}

	w.board.BeginWork()
	defer w.board.EndWork()

	rec, err := w.analyzer.AnalyzeAsset(ctx, asset)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	w.board.Update(func(d *state.Data) {
		d.Recommendations = models.UpsertRecommendation(d.Recommendations, *rec, asset)
	})
	w.log.WithField("asset", asset.Symbol).Infof("Deep dive merged: %s %.0f%%", rec.Action, rec.Confidence)
	return rec, nil
}
