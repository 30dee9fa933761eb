package omni

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"omni_pulse/internal/ai"
	"omni_pulse/internal/logger"
)

// Route is the path the analysis backend is served on.
const Route = "/api/omni-intelligence"

const (
	maxBodyBytes = 1 << 20

	msgUnavailable = "Service unavailable. Please try again later."
	msgParseFailed = "Failed to parse AI response"
)

// Options tune the handler.
type Options struct {
	// AccessKey, when set, must be presented in the ai.AccessKeyHeader header.
	AccessKey string
	// RPM caps outbound model calls per minute; zero disables the limit.
	RPM       int
	Burst     int
	NewsLimit int
}

// Handler serves the analysis contract. A nil Generator answers every valid
// request with the missing-key error.
type Handler struct {
	gen       Generator
	limiter   *rate.Limiter
	accessKey string
	newsLimit int
	log       *logrus.Entry
}

type request struct {
	MarketData  json.RawMessage `json:"marketData"`
	TargetAsset json.RawMessage `json:"targetAsset"`
}

func NewHandler(gen Generator, opts Options) *Handler {
	limit := rate.Inf
	if opts.RPM > 0 {
		limit = rate.Limit(float64(opts.RPM) / 60)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	if opts.NewsLimit <= 0 {
		opts.NewsLimit = ai.DefaultNewsLimit
	}
	return &Handler{
		gen:       gen,
		limiter:   rate.NewLimiter(limit, opts.Burst),
		accessKey: opts.AccessKey,
		newsLimit: opts.NewsLimit,
		log:       logger.Log.WithField("component", "omni"),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.accessKey != "" && r.Header.Get(ai.AccessKeyHeader) != h.accessKey {
		writeJSON(w, http.StatusUnauthorized, ai.AnalysisResponse{Error: "Unauthorized"})
		return
	}

	var req request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	hasMarket, hasTarget := present(req.MarketData), present(req.TargetAsset)
	if !hasMarket && !hasTarget {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}
	if hasMarket && !isArray(req.MarketData) {
		http.Error(w, "Invalid marketData format: expected array", http.StatusBadRequest)
		return
	}

	if hasTarget {
		var loose LooseAsset
		if err := json.Unmarshal(req.TargetAsset, &loose); err != nil {
			http.Error(w, "Invalid targetAsset format: expected object", http.StatusBadRequest)
			return
		}
		target, err := SanitizeTarget(loose)
		if err != nil {
			http.Error(w, "Invalid targetAsset", http.StatusBadRequest)
			return
		}
		h.serveTarget(w, r, target)
		return
	}

	var rows []LooseAsset
	if err := json.Unmarshal(req.MarketData, &rows); err != nil {
		http.Error(w, "Invalid marketData entries", http.StatusBadRequest)
		return
	}
	h.serveBulk(w, r, rows)
}

func (h *Handler) serveTarget(w http.ResponseWriter, r *http.Request, target ai.AssetPayload) {
	h.log.WithField("symbol", target.Symbol).Info("Analyzing target")

	gen, ok := h.generate(w, r, targetPrompt(target))
	if !ok {
		return
	}
	var out ai.AnalysisResponse
	if err := extractJSON(gen.Text, &out); err != nil {
		h.log.WithError(err).Warn("Unparsable targeted answer")
		writeJSON(w, http.StatusOK, ai.AnalysisResponse{Error: msgParseFailed})
		return
	}
	writeJSON(w, http.StatusOK, ai.AnalysisResponse{Recommendation: out.Recommendation})
}

func (h *Handler) serveBulk(w http.ResponseWriter, r *http.Request, rows []LooseAsset) {
	data := make([]MarketRow, len(rows))
	for i, row := range rows {
		data[i] = row.Row()
	}
	h.log.WithField("assets", len(data)).Info("Running bulk scan")

	gen, ok := h.generate(w, r, bulkPrompt(data))
	if !ok {
		return
	}
	var out ai.AnalysisResponse
	if err := extractJSON(gen.Text, &out); err != nil {
		h.log.WithError(err).Warn("Unparsable bulk answer")
		writeJSON(w, http.StatusOK, ai.AnalysisResponse{Error: msgParseFailed})
		return
	}
	out.News = ai.MergeNews(h.newsLimit, out.News, gen.Citations)
	out.Recommendation = nil
	writeJSON(w, http.StatusOK, out)
}

// generate runs the model call and writes the failure response itself when
// it returns false.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, prompt string) (*Generation, bool) {
	if h.gen == nil {
		h.log.Error("GEMINI_API_KEY is not configured")
		writeJSON(w, http.StatusInternalServerError, ai.AnalysisResponse{Error: ai.MissingKeyCode})
		return nil, false
	}
	if err := h.limiter.Wait(r.Context()); err != nil {
		h.log.WithError(err).Warn("Rate limiter wait aborted")
		writeJSON(w, http.StatusTooManyRequests, ai.AnalysisResponse{Error: ai.SummaryQuota, QuotaReached: true})
		return nil, false
	}

	gen, err := h.gen.Generate(r.Context(), prompt)
	switch {
	case errors.Is(err, ErrQuota):
		h.log.WithError(err).Warn("Model quota exhausted")
		writeJSON(w, http.StatusTooManyRequests, ai.AnalysisResponse{Error: ai.SummaryQuota, QuotaReached: true})
		return nil, false
	case err != nil:
		h.log.WithError(err).Error("Model call failed")
		writeJSON(w, http.StatusInternalServerError, ai.AnalysisResponse{Error: msgUnavailable})
		return nil, false
	}
	return gen, true
}

// extractJSON decodes the object spanning the first '{' to the last '}',
// which tolerates code fences and prose around the model's answer.
func extractJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "{}"
	}
	first, last := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if first != -1 && last > first {
		text = text[first : last+1]
	}
	return json.Unmarshal([]byte(text), v)
}

func present(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return false
	}
	switch string(t) {
	case "null", "false", "0", `""`:
		return false
	}
	return true
}

func isArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.WithError(err).Warn("Failed to encode response")
	}
}
