package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"omni_pulse/internal/logger"
	"omni_pulse/internal/models"
)

// DefaultTimeout bounds every analysis request.
const DefaultTimeout = 30 * time.Second

// AccessKeyHeader carries the shared key expected by the analysis backend.
const AccessKeyHeader = "X-Omni-Key"

// Summaries shown in place of a synthesis when a cycle degrades.
const (
	SummaryQuota       = "Quota Google Search atteint. Passage en mode analyse technique locale."
	SummaryUnavailable = "Erreur de connexion au moteur d'intelligence."
	SummaryTimeout     = "Délai d'analyse dépassé (30 s). Nouvel essai au prochain cycle."
	SummaryMalformed   = "Réponse illisible du moteur d'intelligence."
	SummaryMissingKey  = "Clé API du moteur d'intelligence manquante. Vérifiez la configuration."
)

// MissingKeyCode is the error body the backend returns when it has no model key.
const MissingKeyCode = "API_KEY_MISSING"

// Config holds the analysis endpoint settings.
type Config struct {
	URL           string
	APIKey        string
	RequireAPIKey bool
	Timeout       time.Duration
	NewsLimit     int
}

// Client talks to the analysis service. Its methods never return transport
// or decoding errors; see Result and AnalyzeAsset.
type Client struct {
	cfg  Config
	http *http.Client
	log  logrus.FieldLogger
}

// NewClient builds a client; zero Timeout and NewsLimit take the defaults.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = DefaultNewsLimit
	}
	if cfg.URL == "" {
		logger.Log.Warn("INTELLIGENCE_URL not set. Analysis cycles will report the service as unavailable.")
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
		log:  logger.Log.WithField("component", "intelligence"),
	}
}

// Analyze requests a bulk analysis of assets.
func (c *Client) Analyze(ctx context.Context, assets []models.Asset) Result {
	payload := AnalysisRequest{MarketData: make([]AssetPayload, 0, len(assets))}
	for _, a := range assets {
		payload.MarketData = append(payload.MarketData, PayloadFromAsset(a))
	}

	body, outcome, failText := c.post(ctx, payload)
	if outcome != OutcomeOK {
		return c.degraded(outcome, failText)
	}

	res := Result{
		Summary:         strings.TrimSpace(body.Summary),
		Signals:         normalizeSignals(body.Signals),
		Recommendations: normalizeRecommendations(body.Recommendations),
		News:            normalizeNews(body.News, c.cfg.NewsLimit),
		QuotaReached:    body.QuotaReached,
		Outcome:         OutcomeOK,
	}
	if body.QuotaReached {
		res.Outcome = OutcomeQuotaExceeded
	}
	c.log.WithFields(logrus.Fields{
		"outcome":         res.Outcome,
		"recommendations": len(res.Recommendations),
		"signals":         len(res.Signals),
		"news":            len(res.News),
	}).Info("Bulk analysis completed")
	return res
}

// AnalyzeAsset requests a targeted analysis. It returns (nil, nil) when the
// call degrades and ErrMissingCredentials when no usable key is configured.
func (c *Client) AnalyzeAsset(ctx context.Context, asset models.Asset) (*models.Recommendation, error) {
	target := PayloadFromAsset(asset)
	body, outcome, _ := c.post(ctx, AnalysisRequest{TargetAsset: &target})

	entry := c.log.WithFields(logrus.Fields{"asset": asset.Symbol, "outcome": outcome})
	switch outcome {
	case OutcomeOK:
	case OutcomeMissingCredentials:
		entry.Error("Targeted analysis refused: credentials missing")
		return nil, ErrMissingCredentials
	default:
		entry.Warn("Targeted analysis degraded")
		return nil, nil
	}

	if body.Recommendation == nil {
		entry.Warn("Targeted analysis returned no recommendation")
		return nil, nil
	}
	rec, ok := NormalizeRecommendation(*body.Recommendation, asset.Symbol)
	if !ok {
		return nil, nil
	}
	entry.WithField("action", rec.Action).Info("Targeted analysis completed")
	return &rec, nil
}

func (c *Client) degraded(outcome Outcome, text string) Result {
	res := Result{Outcome: outcome, Summary: text}
	if res.Summary == "" {
		res.Summary = summaryFor(outcome)
	}
	switch outcome {
	case OutcomeQuotaExceeded:
		res.QuotaReached = true
	case OutcomeMissingCredentials:
		res.Err = ErrMissingCredentials
	}
	c.log.WithField("outcome", outcome).Warnf("Bulk analysis degraded: %s", res.Summary)
	return res
}

func summaryFor(o Outcome) string {
	switch o {
	case OutcomeQuotaExceeded:
		return SummaryQuota
	case OutcomeTimeout:
		return SummaryTimeout
	case OutcomeMalformedResponse:
		return SummaryMalformed
	case OutcomeMissingCredentials:
		return SummaryMissingKey
	default:
		return SummaryUnavailable
	}
}

// post sends payload and classifies the exchange. failText is the backend's
// error message, if any, to surface as the summary.
func (c *Client) post(ctx context.Context, payload AnalysisRequest) (*AnalysisResponse, Outcome, string) {
	if c.cfg.RequireAPIKey && strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, OutcomeMissingCredentials, ""
	}
	if c.cfg.URL == "" {
		return nil, OutcomeServiceUnavailable, ""
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.WithError(err).Error("Failed to encode analysis request")
		return nil, OutcomeServiceUnavailable, ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(raw))
	if err != nil {
		c.log.WithError(err).Error("Failed to build analysis request")
		return nil, OutcomeServiceUnavailable, ""
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(AccessKeyHeader, c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, OutcomeTimeout, ""
		}
		c.log.WithError(err).Warn("Analysis request failed")
		return nil, OutcomeServiceUnavailable, ""
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, OutcomeTimeout, ""
		}
		return nil, OutcomeServiceUnavailable, ""
	}

	var body AnalysisResponse
	decodeErr := json.Unmarshal(data, &body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome := classifyStatus(resp.StatusCode, string(data), body.Error)
		if outcome == OutcomeMissingCredentials {
			return nil, outcome, ""
		}
		return nil, outcome, body.Error
	}
	if decodeErr != nil {
		c.log.WithError(decodeErr).Warn("Analysis response is not valid JSON")
		return nil, OutcomeMalformedResponse, ""
	}
	if body.Error != "" {
		// 200 with an error body: the backend could not parse the model output.
		return nil, OutcomeMalformedResponse, body.Error
	}
	return &body, OutcomeOK, ""
}

func classifyStatus(status int, raw, errText string) Outcome {
	switch {
	case status == http.StatusTooManyRequests || isQuotaText(raw):
		return OutcomeQuotaExceeded
	case status == http.StatusUnauthorized || status == http.StatusForbidden || errText == MissingKeyCode:
		return OutcomeMissingCredentials
	default:
		return OutcomeServiceUnavailable
	}
}

func isQuotaText(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(s, "429") ||
		strings.Contains(s, "RESOURCE_EXHAUSTED") ||
		strings.Contains(lower, "quota")
}
