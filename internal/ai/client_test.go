package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omni_pulse/internal/models"
)

var btc = models.Asset{ID: "btc", Name: "Bitcoin", Symbol: "BTC", Price: 96854.20, Change: 2.45, RSI: 72, MACD: "+125.3", Category: models.CategoryCrypto}

func jsonServer(t *testing.T, status int, body string, inspect func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyze_NormalizesResponse(t *testing.T) {
	var got AnalysisRequest
	srv := jsonServer(t, http.StatusOK, `{
		"summary": " Risk-on. ",
		"signals": [{"type": "weird", "title": "", "impact": "HIGH"}],
		"recommendations": [{"asset": "BTC", "action": "accumulate", "confidence": 140}, {"asset": "", "action": "BUY"}],
		"news": [
			{"title": "A", "uri": "https://www.example.com/a", "sentiment": "POSITIVE"},
			{"title": "A again", "uri": "https://www.example.com/a"},
			{"title": "", "uri": "https://news.test/b", "source": "Wire", "time": "2h"}
		]
	}`, func(r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get(AccessKeyHeader))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	c := NewClient(Config{URL: srv.URL, APIKey: "secret"})
	res := c.Analyze(context.Background(), []models.Asset{btc})

	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.False(t, res.Failed())
	assert.Equal(t, "Risk-on.", res.Summary)
	require.Len(t, got.MarketData, 1)
	assert.Equal(t, "BTC", got.MarketData[0].Symbol)
	assert.Equal(t, 72.0, got.MarketData[0].RSI)

	require.Len(t, res.Signals, 1)
	assert.Equal(t, models.SignalMacro, res.Signals[0].Type)
	assert.Equal(t, models.ImpactHigh, res.Signals[0].Impact)
	assert.Equal(t, DefaultSignalTitle, res.Signals[0].Title)
	assert.Equal(t, DefaultSignalDescription, res.Signals[0].Description)

	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, models.ActionHold, res.Recommendations[0].Action)
	assert.Equal(t, 100.0, res.Recommendations[0].Confidence)

	require.Len(t, res.News, 2)
	assert.Equal(t, "A", res.News[0].Title)
	assert.Equal(t, "example.com", res.News[0].Source)
	assert.Equal(t, models.LiveLabel, res.News[0].Time)
	assert.Equal(t, models.SentimentPositive, res.News[0].Sentiment)
	assert.NotEmpty(t, res.News[0].ID)
	assert.Equal(t, DefaultNewsTitle, res.News[1].Title)
	assert.Equal(t, "Wire", res.News[1].Source)
	assert.Equal(t, "2h", res.News[1].Time)
	assert.Equal(t, models.SentimentNeutral, res.News[1].Sentiment)
}

func TestAnalyze_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Config{URL: srv.URL, Timeout: 50 * time.Millisecond})

	start := time.Now()
	res := c.Analyze(context.Background(), []models.Asset{btc})
	elapsed := time.Since(start)

	assert.Equal(t, OutcomeTimeout, res.Outcome)
	assert.Equal(t, SummaryTimeout, res.Summary)
	assert.False(t, res.QuotaReached)
	assert.Empty(t, res.Recommendations)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestAnalyze_QuotaStatus(t *testing.T) {
	srv := jsonServer(t, http.StatusTooManyRequests, `{"error": "Quota épuisé", "quotaReached": true}`, nil)

	res := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), nil)

	assert.Equal(t, OutcomeQuotaExceeded, res.Outcome)
	assert.True(t, res.QuotaReached)
	assert.Equal(t, "Quota épuisé", res.Summary)
	assert.Empty(t, res.Signals)
}

func TestAnalyze_QuotaMarkerInBody(t *testing.T) {
	srv := jsonServer(t, http.StatusInternalServerError, `{"status": "RESOURCE_EXHAUSTED"}`, nil)

	res := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), nil)

	assert.Equal(t, OutcomeQuotaExceeded, res.Outcome)
	assert.Equal(t, SummaryQuota, res.Summary)
}

func TestAnalyze_QuotaFlagOnSuccess(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"summary": "", "signals": [], "recommendations": [], "news": [], "quotaReached": true}`, nil)

	res := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), nil)

	assert.Equal(t, OutcomeQuotaExceeded, res.Outcome)
	assert.True(t, res.QuotaReached)
	assert.Empty(t, res.Summary)
}

func TestAnalyze_ErrorTextSurfaced(t *testing.T) {
	srv := jsonServer(t, http.StatusInternalServerError, `{"error": "Service unavailable. Please try again later."}`, nil)

	res := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), nil)

	assert.Equal(t, OutcomeServiceUnavailable, res.Outcome)
	assert.Equal(t, "Service unavailable. Please try again later.", res.Summary)
	assert.False(t, res.QuotaReached)
}

func TestAnalyze_MalformedBody(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `not json`, nil)
	res := NewClient(Config{URL: srv.URL}).Analyze(context.Background(), nil)
	assert.Equal(t, OutcomeMalformedResponse, res.Outcome)
	assert.Equal(t, SummaryMalformed, res.Summary)

	srv = jsonServer(t, http.StatusOK, `{"error": "Failed to parse AI response"}`, nil)
	res = NewClient(Config{URL: srv.URL}).Analyze(context.Background(), nil)
	assert.Equal(t, OutcomeMalformedResponse, res.Outcome)
	assert.Equal(t, "Failed to parse AI response", res.Summary)
}

func TestAnalyze_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewClient(Config{URL: url}).Analyze(context.Background(), nil)
	assert.Equal(t, OutcomeServiceUnavailable, res.Outcome)
	assert.Equal(t, SummaryUnavailable, res.Summary)
}

func TestMissingCredentials(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1", RequireAPIKey: true})

	res := c.Analyze(context.Background(), nil)
	assert.Equal(t, OutcomeMissingCredentials, res.Outcome)
	assert.True(t, errors.Is(res.Err, ErrMissingCredentials))

	rec, err := c.AnalyzeAsset(context.Background(), btc)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrMissingCredentials)

	srv := jsonServer(t, http.StatusInternalServerError, `{"error": "API_KEY_MISSING"}`, nil)
	res = NewClient(Config{URL: srv.URL}).Analyze(context.Background(), nil)
	assert.Equal(t, OutcomeMissingCredentials, res.Outcome)
	assert.Equal(t, SummaryMissingKey, res.Summary)
}

func TestAnalyzeAsset_BTC(t *testing.T) {
	var got AnalysisRequest
	srv := jsonServer(t, http.StatusOK,
		`{"recommendation": {"asset": "BTC", "action": "BUY", "confidence": 88, "justification": "Momentum.", "signals": ["RSI_BULL"]}}`,
		func(r *http.Request) { json.NewDecoder(r.Body).Decode(&got) })

	rec, err := NewClient(Config{URL: srv.URL}).AnalyzeAsset(context.Background(), btc)

	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NotNil(t, got.TargetAsset)
	assert.Nil(t, got.MarketData)
	assert.Equal(t, 96854.20, got.TargetAsset.Price)
	assert.Equal(t, "BTC", rec.Asset)
	assert.Equal(t, models.ActionBuy, rec.Action)
	assert.Equal(t, 88.0, rec.Confidence)
	assert.Equal(t, []string{"RSI_BULL"}, rec.Signals)

	found, ok := models.FindRecommendation([]models.Recommendation{*rec}, models.Asset{ID: "x", Symbol: "btc"})
	assert.True(t, ok)
	assert.Equal(t, *rec, found)
}

func TestAnalyzeAsset_DegradesToNil(t *testing.T) {
	srv := jsonServer(t, http.StatusBadGateway, `{}`, nil)
	rec, err := NewClient(Config{URL: srv.URL}).AnalyzeAsset(context.Background(), btc)
	assert.NoError(t, err)
	assert.Nil(t, rec)

	srv = jsonServer(t, http.StatusOK, `{}`, nil)
	rec, err = NewClient(Config{URL: srv.URL}).AnalyzeAsset(context.Background(), btc)
	assert.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAnalyzeAsset_FallsBackToSymbol(t *testing.T) {
	srv := jsonServer(t, http.StatusOK, `{"recommendation": {"action": "sell", "confidence": -3}}`, nil)
	rec, err := NewClient(Config{URL: srv.URL}).AnalyzeAsset(context.Background(), btc)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "BTC", rec.Asset)
	assert.Equal(t, models.ActionSell, rec.Action)
	assert.Equal(t, 0.0, rec.Confidence)
}
