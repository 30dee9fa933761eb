package ai

import (
	"errors"

	"omni_pulse/internal/models"
)

// ErrMissingCredentials is the only analysis failure that propagates to
// callers: it is a setup problem, not a transient condition.
var ErrMissingCredentials = errors.New("intelligence credentials missing")

// Outcome classifies how an analysis call ended.
type Outcome string

const (
	OutcomeOK                 Outcome = "ok"
	OutcomeTimeout            Outcome = "timeout"
	OutcomeQuotaExceeded      Outcome = "quota_exceeded"
	OutcomeServiceUnavailable Outcome = "service_unavailable"
	OutcomeMissingCredentials Outcome = "missing_credentials"
	OutcomeMalformedResponse  Outcome = "malformed_response"
)

// Result is the normalized outcome of a bulk analysis.
type Result struct {
	Summary         string                  `json:"summary"`
	Signals         []models.Signal         `json:"signals"`
	Recommendations []models.Recommendation `json:"recommendations"`
	News            []models.NewsItem       `json:"news"`
	QuotaReached    bool                    `json:"quotaReached"`
	Outcome         Outcome                 `json:"outcome"`
	// Err is ErrMissingCredentials for the missing_credentials outcome, nil otherwise.
	Err error `json:"-"`
}

// Failed reports whether the call degraded.
func (r Result) Failed() bool {
	return r.Outcome != OutcomeOK && r.Outcome != ""
}

// --- Wire contract, shared with the analysis backend ---

// AssetPayload is an asset as sent to the analysis service.
type AssetPayload struct {
	ID       string  `json:"id,omitempty"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Change   float64 `json:"change"`
	RSI      float64 `json:"rsi"`
	MACD     string  `json:"macd,omitempty"`
	Category string  `json:"category,omitempty"`
}

// PayloadFromAsset converts a store asset to its wire form.
func PayloadFromAsset(a models.Asset) AssetPayload {
	return AssetPayload{
		ID:       a.ID,
		Name:     a.Name,
		Symbol:   a.Symbol,
		Price:    a.Price,
		Change:   a.Change,
		RSI:      a.RSI,
		MACD:     a.MACD,
		Category: string(a.Category),
	}
}

// AnalysisRequest carries either a bulk snapshot or a single target.
type AnalysisRequest struct {
	MarketData  []AssetPayload `json:"marketData,omitempty"`
	TargetAsset *AssetPayload  `json:"targetAsset,omitempty"`
}

// WireSignal mirrors models.Signal with untrusted string enums.
type WireSignal struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

// WireRecommendation mirrors models.Recommendation with an untrusted action.
type WireRecommendation struct {
	Asset         string   `json:"asset"`
	Action        string   `json:"action"`
	Confidence    float64  `json:"confidence"`
	Justification string   `json:"justification"`
	Signals       []string `json:"signals,omitempty"`
}

// WireNews mirrors models.NewsItem before ids and defaults are assigned.
type WireNews struct {
	Title     string `json:"title"`
	URI       string `json:"uri"`
	Source    string `json:"source,omitempty"`
	Time      string `json:"time,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// AnalysisResponse is the union of the bulk and targeted response bodies.
type AnalysisResponse struct {
	Summary         string               `json:"summary,omitempty"`
	Signals         []WireSignal         `json:"signals,omitempty"`
	Recommendations []WireRecommendation `json:"recommendations,omitempty"`
	News            []WireNews           `json:"news,omitempty"`
	QuotaReached    bool                 `json:"quotaReached,omitempty"`
	Recommendation  *WireRecommendation  `json:"recommendation,omitempty"`
	Error           string               `json:"error,omitempty"`
}
