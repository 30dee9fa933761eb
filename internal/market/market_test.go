package market

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omni_pulse/internal/models"
)

func TestDefaultUniverse_Shape(t *testing.T) {
	u := DefaultUniverse()
	require.Len(t, u, len(models.Categories))
	seen := map[string]bool{}
	for _, cat := range models.Categories {
		assert.Len(t, u[cat], 6, "category %s", cat)
		for _, a := range u[cat] {
			assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
			seen[a.ID] = true
		}
	}
}

func TestTick_VariationWithinBounds(t *testing.T) {
	s := NewStore(DefaultUniverse(), WithRand(rand.New(rand.NewSource(7))))
	before := s.Snapshot()

	s.Tick()
	after := s.Snapshot()

	for cat, list := range before {
		for i, a := range list {
			b := after[cat][i]
			ratio := b.Price/a.Price - 1
			assert.LessOrEqual(t, math.Abs(ratio), TickVariation/2+1e-12, a.ID)
			assert.InDelta(t, ratio*100, b.Change-a.Change, 1e-9, a.ID)
			assert.Equal(t, cat, b.Category)
		}
	}
}

func TestTick_DeterministicWithSeed(t *testing.T) {
	a := NewStore(DefaultUniverse(), WithRand(rand.New(rand.NewSource(42))))
	b := NewStore(DefaultUniverse(), WithRand(rand.New(rand.NewSource(42))))
	for i := 0; i < 10; i++ {
		a.Tick()
		b.Tick()
	}
	assert.Equal(t, a.Flatten(), b.Flatten())
}

func TestTick_ConsumesSourceInDisplayOrder(t *testing.T) {
	src := rand.New(rand.NewSource(42))
	s := NewStore(DefaultUniverse(), WithRand(rand.New(rand.NewSource(42))))
	before := s.Flatten()

	s.Tick()
	after := s.Flatten()

	require.Len(t, after, len(before))
	for i, a := range before {
		variation := (src.Float64() - 0.5) * TickVariation
		assert.InDelta(t, a.Price*(1+variation), after[i].Price, 1e-6, a.ID)
	}
}

func TestTick_ChangeFollowsBandedPrice(t *testing.T) {
	universe := map[models.Category][]models.Asset{
		models.CategoryCrypto: {{ID: "btc", Symbol: "BTC", Name: "Bitcoin", Price: 100}},
	}
	s := NewStore(universe, WithPriceBand(0.00001), WithRand(rand.New(rand.NewSource(3))))

	for i := 0; i < 300; i++ {
		prev, _ := s.Get("btc")
		s.Tick()
		cur, _ := s.Get("btc")
		assert.InDelta(t, (cur.Price/prev.Price-1)*100, cur.Change-prev.Change, 1e-9)
	}

	// Pinned at the band edge, the change figure stays put with the price.
	btc, _ := s.Get("btc")
	assert.Less(t, math.Abs(btc.Change), 0.01)
}

func TestTick_DriftBound(t *testing.T) {
	universe := map[models.Category][]models.Asset{
		models.CategoryCrypto: {{ID: "btc", Symbol: "BTC", Name: "Bitcoin", Price: 100, Change: 0.99}},
	}
	s := NewStore(universe, WithDriftBound(1), WithPriceBand(0.001), WithRand(rand.New(rand.NewSource(1))))
	for i := 0; i < 500; i++ {
		s.Tick()
	}
	btc, ok := s.Get("btc")
	require.True(t, ok)
	assert.LessOrEqual(t, math.Abs(btc.Change), 1.0)
	assert.InDelta(t, 100, btc.Price, 0.1+1e-9)
}

func TestTick_NotifiesListenersWithSnapshot(t *testing.T) {
	s := NewStore(DefaultUniverse())
	var calls int
	var got Snapshot
	s.OnTick(func(snap Snapshot) {
		calls++
		got = snap
	})

	s.Tick()
	s.Tick()

	assert.Equal(t, 2, calls)
	assert.Equal(t, s.Snapshot(), got)

	// The listener's copy must not alias the store.
	got[models.CategoryCrypto][0].Price = -1
	btc, _ := s.Get(got[models.CategoryCrypto][0].ID)
	assert.NotEqual(t, -1.0, btc.Price)
}

func TestFlatten_CategoryOrder(t *testing.T) {
	flat := NewStore(DefaultUniverse()).Flatten()
	require.Len(t, flat, 36)
	assert.Equal(t, "dax", flat[0].ID)
	assert.Equal(t, models.CategoryBonds, flat[len(flat)-1].Category)
}

func TestFind_And_Reanchor(t *testing.T) {
	s := NewStore(DefaultUniverse())

	a, ok := s.Find("btc")
	require.True(t, ok)
	assert.Equal(t, "Bitcoin", a.Name)

	_, ok = s.Find("doge")
	assert.False(t, ok)

	assert.True(t, s.Reanchor("xlk", 230.5))
	xlk, _ := s.Get("xlk")
	assert.Equal(t, 230.5, xlk.Price)
	assert.False(t, s.Reanchor("nope", 1))
	assert.False(t, s.Reanchor("xlk", 0))
}

func TestComputeSentiment_NoNews(t *testing.T) {
	assets := []models.Asset{{Change: 1}, {Change: 2}, {Change: -1}, {Change: 0}}

	got := ComputeSentiment(assets, nil)

	// 0.4*50 + 0.6*50
	assert.Equal(t, 50, got.Bullish)
	assert.Equal(t, 50, got.Bearish)
	assert.Equal(t, 0, got.Neutral)

	allUp := ComputeSentiment([]models.Asset{{Change: 1}}, nil)
	assert.Equal(t, 70, allUp.Bullish)
	assert.Equal(t, 30, allUp.Bearish)
}

func TestComputeSentiment_WithNews(t *testing.T) {
	news := []models.NewsItem{
		{Sentiment: models.SentimentPositive},
		{Sentiment: models.SentimentPositive},
		{Sentiment: models.SentimentNegative},
		{Sentiment: models.SentimentNeutral},
	}
	// news: (2 + 2)/4 = 100%; price: 0 assets -> 0
	got := ComputeSentiment(nil, news)
	assert.Equal(t, 60, got.Bullish)
	assert.Equal(t, 40, got.Bearish)
}
