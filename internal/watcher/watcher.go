package watcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"omni_pulse/internal/ai"
	"omni_pulse/internal/logger"
	"omni_pulse/internal/market"
	"omni_pulse/internal/models"
	"omni_pulse/internal/state"
)

var (
	// ErrAnalysisInFlight is returned when a bulk cycle is already running.
	ErrAnalysisInFlight = errors.New("analysis already in flight")
	// ErrUnknownAsset is returned for deep dives on keys the store does not hold.
	ErrUnknownAsset = errors.New("unknown asset")
)

// Analyzer is the intelligence service as seen by the orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, assets []models.Asset) ai.Result
	AnalyzeAsset(ctx context.Context, asset models.Asset) (*models.Recommendation, error)
}

// AssetSource is the read side of the market store.
type AssetSource interface {
	Flatten() []models.Asset
	Get(id string) (models.Asset, bool)
	Find(key string) (models.Asset, bool)
}

// Notifier receives operator alerts. A nil *telegram.Bot satisfies it.
type Notifier interface {
	Notify(text string)
}

// Options are the optional collaborators of a Watcher.
type Options struct {
	Images      ai.ImageEnricher
	ImagePrefix int
	ReportFile  string
	Notifier    Notifier
}

// Watcher orchestrates analysis cycles and merges their results into the
// board. Bulk cycles never overlap; deep dives run independently.
type Watcher struct {
	ctx         context.Context
	assets      AssetSource
	board       *state.Board
	analyzer    Analyzer
	images      ai.ImageEnricher
	imagePrefix int
	reportFile  string
	notifier    Notifier

	inFlight  atomic.Bool
	noCreds   atomic.Bool
	wg        sync.WaitGroup
	commands  []CommandDoc
	startTime time.Time
	log       *logrus.Entry
}

// New builds a watcher. ctx bounds cycles started by ScheduleAnalysis.
func New(ctx context.Context, assets AssetSource, board *state.Board, analyzer Analyzer, opts Options) *Watcher {
	if opts.Images == nil {
		opts.Images = ai.DisabledImages{}
	}
	if opts.ImagePrefix < 0 {
		opts.ImagePrefix = 0
	}
	return &Watcher{
		ctx:         ctx,
		assets:      assets,
		board:       board,
		analyzer:    analyzer,
		images:      opts.Images,
		imagePrefix: opts.ImagePrefix,
		reportFile:  opts.ReportFile,
		notifier:    opts.Notifier,
		startTime:   time.Now(),
		log:         logger.Log.WithField("component", "watcher"),
		commands: []CommandDoc{
			{"/ping", "Connectivity check", "/ping"},
			{"/status", "Summary, sentiment and current calls", "/status"},
			{"/scan", "Trigger a market intelligence cycle now", "/scan"},
			{"/deepdive", "Targeted analysis of one asset", "/deepdive <symbol>"},
			{"/help", "List commands", "/help"},
		},
	}
}

// OnMarketTick mirrors a store tick onto the board, then schedules a cycle.
func (w *Watcher) OnMarketTick(snap market.Snapshot) {
	w.board.Update(func(d *state.Data) { d.Assets = snap })
	if !w.ScheduleAnalysis() {
		w.log.Debug("Tick ignored: analysis already in flight")
	}
}

// ScheduleAnalysis starts a bulk cycle in the background. It returns false
// without doing anything when a cycle is already running.
func (w *Watcher) ScheduleAnalysis() bool {
	if !w.inFlight.CompareAndSwap(false, true) {
		return false
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.runCycle(w.ctx)
	}()
	return true
}

// Poll runs one bulk cycle synchronously, including image enrichment. It
// returns false when another cycle is already in flight.
func (w *Watcher) Poll(ctx context.Context) bool {
	if !w.inFlight.CompareAndSwap(false, true) {
		return false
	}
	w.runCycle(ctx)
	return true
}

// Wait blocks until background cycles have finished.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

// runCycle expects the in-flight guard to be held and releases it once the
// textual result is merged, before image enrichment starts.
func (w *Watcher) runCycle(ctx context.Context) {
	cycleID := uuid.New().String()
	started := time.Now()
	log := w.log.WithField("cycle", cycleID)

	w.board.BeginWork()
	released := false
	release := func() {
		if !released {
			released = true
			w.board.EndWork()
			w.inFlight.Store(false)
		}
	}
	defer release()

	log.Info("Analysis cycle started")
	res := w.analyzer.Analyze(ctx, w.assets.Flatten())

	var wasLimited bool
	snap := w.board.Update(func(d *state.Data) {
		wasLimited = d.QuotaLimited
		mergeResult(d, res, cycleID, time.Now())
	})
	release()

	log.WithFields(logrus.Fields{
		"outcome":  res.Outcome,
		"duration": time.Since(started).Round(time.Millisecond),
		"quota":    snap.Status.QuotaLimited,
	}).Info("Analysis cycle merged")

	w.notifyQuotaTransition(wasLimited, snap.Status.QuotaLimited, res.Summary)
	w.trackCredentials(log, errors.Is(res.Err, ai.ErrMissingCredentials))
	w.writeReport(cycleID, started, res, snap)

	if len(res.News) > 0 {
		w.enrichImages(ctx, cycleID, res.News)
	}
}

// mergeResult applies a bulk result: collections and summary are replaced
// only when non-empty, news only when the cycle produced some, and the quota
// flag is set by a quota outcome and cleared only by a clean cycle.
func mergeResult(d *state.Data, res ai.Result, cycleID string, now time.Time) {
	switch {
	case res.QuotaReached:
		d.QuotaLimited = true
	case !res.Failed():
		d.QuotaLimited = false
	}

	if len(res.Recommendations) > 0 {
		d.Recommendations = append([]models.Recommendation(nil), res.Recommendations...)
	}
	if len(res.Signals) > 0 {
		d.Signals = append([]models.Signal(nil), res.Signals...)
	}
	if strings.TrimSpace(res.Summary) != "" {
		d.Summary = res.Summary
	}
	if len(res.News) > 0 {
		d.News = append([]models.NewsItem(nil), res.News...)
		d.NewsCycle = cycleID
	}
	d.LastCycleAt = now
	d.LastOutcome = string(res.Outcome)
}

// enrichImages fetches images for the leading news items concurrently and
// patches them in by news id, unless a newer cycle has replaced the news.
func (w *Watcher) enrichImages(ctx context.Context, cycleID string, news []models.NewsItem) {
	n := w.imagePrefix
	if n > len(news) {
		n = len(news)
	}
	if n == 0 {
		return
	}

	urls := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url, err := w.images.ImageFor(ctx, news[i].Title)
			if err != nil {
				w.log.WithError(err).WithField("news", news[i].ID).Debug("Image enrichment failed")
				return
			}
			urls[i] = url
		}(i)
	}
	wg.Wait()

	patch := make(map[string]string, n)
	for i, url := range urls {
		if url != "" {
			patch[news[i].ID] = url
		}
	}
	if len(patch) == 0 {
		return
	}

	w.board.Update(func(d *state.Data) {
		if d.NewsCycle != cycleID {
			w.log.WithField("cycle", cycleID).Debug("Image patch dropped: news replaced by a newer cycle")
			return
		}
		for j := range d.News {
			if url, ok := patch[d.News[j].ID]; ok {
				d.News[j].ImageURL = url
			}
		}
	})
}

func (w *Watcher) notifyQuotaTransition(before, after bool, summary string) {
	if w.notifier == nil || before == after {
		return
	}
	if after {
		msg := "⚠️ *QUOTA LIMITED*\n" + state.QuotaBannerText
		if summary != "" {
			msg += "\n_" + summary + "_"
		}
		w.notifier.Notify(msg)
		return
	}
	w.notifier.Notify("✅ *QUOTA RESTORED*\n" + state.ModeActive)
}

// trackCredentials records whether the last bulk cycle was refused for missing
// credentials and alerts the operator when that changes.
func (w *Watcher) trackCredentials(log *logrus.Entry, missing bool) {
	if missing {
		log.Error("Intelligence credentials missing: manual scans are refused until setup is fixed")
	}
	if w.noCreds.Swap(missing) == missing || w.notifier == nil {
		return
	}
	if missing {
		w.notifier.Notify("🔑 *CREDENTIALS MISSING*\n" + ai.SummaryMissingKey)
		return
	}
	w.notifier.Notify("✅ *CREDENTIALS OK*\nIntelligence backend accepted the key again.")
}
