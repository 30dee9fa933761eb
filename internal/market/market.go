package market

import (
	"math/rand"
	"slices"
	"sync"
	"time"

	"omni_pulse/internal/models"
)

// TickVariation is the full width of the uniform per-tick price variation:
// each tick draws from [-TickVariation/2, +TickVariation/2), i.e. +/-0.025%.
const TickVariation = 0.0005

// Snapshot is a copy of the store contents keyed by category.
type Snapshot map[models.Category][]models.Asset

// Flatten returns every asset in category order, then seed order.
func (s Snapshot) Flatten() []models.Asset {
	var out []models.Asset
	for _, cat := range models.Categories {
		out = append(out, s[cat]...)
	}
	return out
}

// TickListener is notified after every tick with the new snapshot.
type TickListener func(Snapshot)

// Store holds the authoritative in-memory asset table.
type Store struct {
	mu        sync.RWMutex
	assets    Snapshot
	seed      map[string]float64 // id -> reference price for the price band
	rng       *rand.Rand
	maxChange float64
	priceBand float64
	listeners []TickListener
}

// Option configures a Store.
type Option func(*Store)

// WithRand injects the random source (tests use a fixed seed).
func WithRand(r *rand.Rand) Option {
	return func(s *Store) { s.rng = r }
}

// WithDriftBound clamps the change field to +/-bound percent. Zero disables it.
func WithDriftBound(bound float64) Option {
	return func(s *Store) { s.maxChange = bound }
}

// WithPriceBand keeps each price within seed*(1 +/- fraction). Zero disables it.
func WithPriceBand(fraction float64) Option {
	return func(s *Store) { s.priceBand = fraction }
}

// NewStore copies the universe into a new store.
func NewStore(universe map[models.Category][]models.Asset, opts ...Option) *Store {
	s := &Store{
		assets: make(Snapshot, len(universe)),
		seed:   make(map[string]float64),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for cat, list := range universe {
		cp := make([]models.Asset, len(list))
		copy(cp, list)
		for i := range cp {
			cp[i].Category = cat
			s.seed[cp[i].ID] = cp[i].Price
		}
		s.assets[cat] = cp
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnTick registers a listener. Listeners run synchronously after the new
// table is in place, outside the store lock.
func (s *Store) OnTick(fn TickListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Tick applies one random perturbation to every asset and notifies listeners.
func (s *Store) Tick() {
	s.mu.Lock()
	next := make(Snapshot, len(s.assets))
	for _, cat := range s.tickOrder() {
		list := s.assets[cat]
		updated := make([]models.Asset, len(list))
		for i, a := range list {
			variation := (s.rng.Float64() - 0.5) * TickVariation
			old := a.Price
			a.Price = s.boundPrice(a.ID, old*(1+variation))
			if old > 0 {
				a.Change = s.boundChange(a.Change + (a.Price/old-1)*100)
			}
			updated[i] = a
		}
		next[cat] = updated
	}
	s.assets = next
	snap := s.snapshotLocked()
	listeners := append([]TickListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// tickOrder lists categories in display order, then unknown ones sorted, so a
// seeded source always feeds the same assets in the same order.
func (s *Store) tickOrder() []models.Category {
	order := make([]models.Category, 0, len(s.assets))
	for _, cat := range models.Categories {
		if _, ok := s.assets[cat]; ok {
			order = append(order, cat)
		}
	}
	var extra []models.Category
	for cat := range s.assets {
		if !slices.Contains(models.Categories, cat) {
			extra = append(extra, cat)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}

func (s *Store) boundChange(c float64) float64 {
	if s.maxChange <= 0 {
		return c
	}
	if c > s.maxChange {
		return s.maxChange
	}
	if c < -s.maxChange {
		return -s.maxChange
	}
	return c
}

func (s *Store) boundPrice(id string, p float64) float64 {
	ref, ok := s.seed[id]
	if s.priceBand <= 0 || !ok {
		return p
	}
	lo, hi := ref*(1-s.priceBand), ref*(1+s.priceBand)
	if p < lo {
		return lo
	}
	if p > hi {
		return hi
	}
	return p
}

// Snapshot returns a deep copy of the table.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	out := make(Snapshot, len(s.assets))
	for cat, list := range s.assets {
		cp := make([]models.Asset, len(list))
		copy(cp, list)
		out[cat] = cp
	}
	return out
}

// Flatten returns all assets in display order.
func (s *Store) Flatten() []models.Asset {
	return s.Snapshot().Flatten()
}

// Get looks an asset up by id.
func (s *Store) Get(id string) (models.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, list := range s.assets {
		for _, a := range list {
			if a.ID == id {
				return a, true
			}
		}
	}
	return models.Asset{}, false
}

// Find resolves a free-form key (symbol, name or id, case-insensitive).
func (s *Store) Find(key string) (models.Asset, bool) {
	for _, a := range s.Flatten() {
		if models.MatchesAsset(key, a) {
			return a, true
		}
	}
	return models.Asset{}, false
}

// Reanchor replaces the price of one asset and makes it the new reference
// for the price band. It does not notify tick listeners.
func (s *Store) Reanchor(id string, price float64) bool {
	if price <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for cat, list := range s.assets {
		for i := range list {
			if list[i].ID == id {
				list[i].Price = price
				s.assets[cat] = list
				s.seed[id] = price
				return true
			}
		}
	}
	return false
}
