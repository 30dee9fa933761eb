package state

import (
	"sync"
	"time"

	"omni_pulse/internal/market"
	"omni_pulse/internal/models"
)

// Status labels shown by the dashboard header.
const (
	ModeActive      = "Moteur Alpha Actif"
	ModeEconomy     = "Mode Économie de Quota"
	CadenceActive   = "Optimisé (1 call/15min)"
	CadenceEconomy  = "Quota Limité (Search Désactivé)"
	QuotaBannerText = "Le quota de recherche en direct a été atteint. Les données affichées sont basées sur le dernier scan réussi."
)

// Data is the mutable dashboard state. It is only touched inside Update.
type Data struct {
	Assets          market.Snapshot
	Recommendations []models.Recommendation
	Signals         []models.Signal
	News            []models.NewsItem
	// NewsCycle identifies the cycle that produced News.
	NewsCycle    string
	Summary      string
	QuotaLimited bool
	LastCycleAt  time.Time
	LastOutcome  string
}

// Status is the read-only flag set published with every snapshot.
type Status struct {
	Analyzing    bool      `json:"analyzing"`
	QuotaLimited bool      `json:"quotaLimited"`
	Mode         string    `json:"mode"`
	Cadence      string    `json:"cadence"`
	Banner       string    `json:"banner,omitempty"`
	LastCycleAt  time.Time `json:"lastCycleAt"`
	LastOutcome  string    `json:"lastOutcome,omitempty"`
}

// Snapshot is an immutable copy of the board.
type Snapshot struct {
	Assets          market.Snapshot         `json:"assets"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Signals         []models.Signal         `json:"signals"`
	News            []models.NewsItem       `json:"news"`
	Summary         string                  `json:"summary"`
	Sentiment       models.MarketSentiment  `json:"sentiment"`
	Status          Status                  `json:"status"`
	ServerTime      time.Time               `json:"serverTime"`
}

// Board is the single shared state container. Writers go through Update or
// the busy helpers; readers get deep copies.
type Board struct {
	mu     sync.Mutex
	data   Data
	busy   int
	subs   map[int]chan Snapshot
	nextID int
	now    func() time.Time
}

// NewBoard starts a board from the seed state.
func NewBoard(initial Data) *Board {
	return &Board{
		data: initial,
		subs: make(map[int]chan Snapshot),
		now:  time.Now,
	}
}

// Update runs fn under the board lock and publishes the result.
func (b *Board) Update(fn func(d *Data)) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.data)
	return b.publishLocked()
}

// BeginWork marks an analysis (bulk or targeted) as running.
func (b *Board) BeginWork() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy++
	b.publishLocked()
}

// EndWork undoes one BeginWork.
func (b *Board) EndWork() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy > 0 {
		b.busy--
	}
	b.publishLocked()
}

// Snapshot returns the current state without publishing.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// Subscribe returns a channel receiving every published snapshot and a
// cancel func. A slow subscriber only ever misses intermediate snapshots:
// when its buffer is full the oldest pending one is dropped.
func (b *Board) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Board) publishLocked() Snapshot {
	snap := b.snapshotLocked()
	for _, ch := range b.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
	return snap
}

func (b *Board) snapshotLocked() Snapshot {
	d := b.data
	assets := make(market.Snapshot, len(d.Assets))
	for cat, list := range d.Assets {
		assets[cat] = append([]models.Asset(nil), list...)
	}

	recs := make([]models.Recommendation, len(d.Recommendations))
	for i, r := range d.Recommendations {
		r.Signals = append([]string(nil), r.Signals...)
		recs[i] = r
	}

	st := Status{
		Analyzing:    b.busy > 0,
		QuotaLimited: d.QuotaLimited,
		Mode:         ModeActive,
		Cadence:      CadenceActive,
		LastCycleAt:  d.LastCycleAt,
		LastOutcome:  d.LastOutcome,
	}
	if d.QuotaLimited {
		st.Mode, st.Cadence, st.Banner = ModeEconomy, CadenceEconomy, QuotaBannerText
	}

	news := append([]models.NewsItem{}, d.News...)
	return Snapshot{
		Assets:          assets,
		Recommendations: recs,
		Signals:         append([]models.Signal{}, d.Signals...),
		News:            news,
		Summary:         d.Summary,
		Sentiment:       market.ComputeSentiment(assets.Flatten(), news),
		Status:          st,
		ServerTime:      b.now(),
	}
}
