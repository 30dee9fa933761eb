package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var btc = Asset{ID: "btc", Name: "Bitcoin", Symbol: "BTC", Price: 96854.20, Change: 2.45, RSI: 72, Category: CategoryCrypto}

func TestMatchesAsset_CaseFolding(t *testing.T) {
	assert.True(t, MatchesAsset("btc", btc))
	assert.True(t, MatchesAsset("  BITCOIN ", btc))
	assert.True(t, MatchesAsset("Btc", btc))
	assert.False(t, MatchesAsset("", btc))
	assert.False(t, MatchesAsset("ETH", btc))
}

func TestFindRecommendation_SymbolFirst(t *testing.T) {
	recs := []Recommendation{
		{Asset: "Bitcoin", Action: ActionSell},
		{Asset: "BTC", Action: ActionBuy},
	}

	rec, ok := FindRecommendation(recs, btc)
	require.True(t, ok)
	assert.Equal(t, ActionBuy, rec.Action, "symbol match must win over name match")

	_, ok = FindRecommendation(recs, Asset{ID: "eth", Symbol: "ETH", Name: "Ethereum"})
	assert.False(t, ok)
}

func TestFindRecommendation_ByID(t *testing.T) {
	recs := []Recommendation{{Asset: "SP500", Action: ActionHold}}
	rec, ok := FindRecommendation(recs, Asset{ID: "sp500", Symbol: "SPX", Name: "S&P 500"})
	require.True(t, ok)
	assert.Equal(t, ActionHold, rec.Action)
}

func TestUpsertRecommendation_NoCrossContamination(t *testing.T) {
	eth := Asset{ID: "eth", Name: "Ethereum", Symbol: "ETH"}
	recs := []Recommendation{{Asset: "Bitcoin", Action: ActionHold}}

	recs = UpsertRecommendation(recs, Recommendation{Asset: "BTC", Action: ActionBuy, Confidence: 88}, btc)
	recs = UpsertRecommendation(recs, Recommendation{Asset: "ETH", Action: ActionSell, Confidence: 61}, eth)
	recs = UpsertRecommendation(recs, Recommendation{Asset: "btc", Action: ActionSell, Confidence: 40}, btc)

	require.Len(t, recs, 2)

	b, ok := FindRecommendation(recs, btc)
	require.True(t, ok)
	assert.Equal(t, ActionSell, b.Action)
	assert.Equal(t, 40.0, b.Confidence)

	e, ok := FindRecommendation(recs, eth)
	require.True(t, ok)
	assert.Equal(t, ActionSell, e.Action)
	assert.Equal(t, 61.0, e.Confidence)
}

func TestParseEnums_Defaults(t *testing.T) {
	assert.Equal(t, ActionBuy, ParseAction(" buy "))
	assert.Equal(t, ActionHold, ParseAction("ACCUMULATE"))
	assert.Equal(t, SignalVolatility, ParseSignalType("volatility"))
	assert.Equal(t, SignalMacro, ParseSignalType(""))
	assert.Equal(t, ImpactHigh, ParseImpact("HIGH"))
	assert.Equal(t, ImpactLow, ParseImpact("severe"))
	assert.Equal(t, SentimentNegative, ParseSentiment("Negative"))
	assert.Equal(t, SentimentNeutral, ParseSentiment("mixed"))
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryBonds.Valid())
	assert.False(t, Category("equities").Valid())
}
