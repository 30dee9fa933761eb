package models

import "strings"

// Action is the categorical verdict of a recommendation.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction folds s into a known action, defaulting to HOLD.
func ParseAction(s string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy
	case ActionSell:
		return ActionSell
	default:
		return ActionHold
	}
}

// Recommendation is the model's verdict for one asset key.
type Recommendation struct {
	Asset         string   `json:"asset"` // matched against symbol, name or id
	Action        Action   `json:"action"`
	Confidence    float64  `json:"confidence"` // 0-100
	Justification string   `json:"justification"`
	Signals       []string `json:"signals,omitempty"` // short tags, e.g. "RSI_BULL"
}

// SignalType classifies a market signal.
type SignalType string

const (
	SignalCorrelation SignalType = "CORRELATION"
	SignalMacro       SignalType = "MACRO"
	SignalVolatility  SignalType = "VOLATILITY"
)

// ParseSignalType defaults unknown values to MACRO.
func ParseSignalType(s string) SignalType {
	switch SignalType(strings.ToUpper(strings.TrimSpace(s))) {
	case SignalCorrelation:
		return SignalCorrelation
	case SignalVolatility:
		return SignalVolatility
	default:
		return SignalMacro
	}
}

// Impact is the severity of a signal.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// ParseImpact defaults unknown values to low.
func ParseImpact(s string) Impact {
	switch Impact(strings.ToLower(strings.TrimSpace(s))) {
	case ImpactHigh:
		return ImpactHigh
	case ImpactMedium:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Signal is an untargeted market observation. Signals are replaced as a whole
// on every successful analysis cycle.
type Signal struct {
	Type        SignalType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Impact      Impact     `json:"impact"`
}

// Sentiment is the polarity of a news item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment defaults unknown values to neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// LiveLabel is the recency label used when the backend gives none.
const LiveLabel = "LIVE"

// NewsItem is an externally sourced headline.
type NewsItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URI       string    `json:"uri"`
	Source    string    `json:"source"`
	Time      string    `json:"time"`
	Sentiment Sentiment `json:"sentiment"`
	ImageURL  string    `json:"imageUrl,omitempty"`
}

// MarketSentiment is derived on demand, never stored.
type MarketSentiment struct {
	Bullish int `json:"bullish"`
	Neutral int `json:"neutral"`
	Bearish int `json:"bearish"`
}
