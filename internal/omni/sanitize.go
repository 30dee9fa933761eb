package omni

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"omni_pulse/internal/ai"
)

const (
	maxNameLen   = 50
	maxSymbolLen = 10
	maxMACDLen   = 20

	defaultName   = "Unknown Asset"
	defaultSymbol = "UNKNOWN"
	neutralRSI    = 50
)

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// LooseAsset is an asset as received from an untrusted caller: any field may
// hold any JSON type.
type LooseAsset struct {
	Name   any `json:"name"`
	Symbol any `json:"symbol"`
	Price  any `json:"price"`
	Change any `json:"change"`
	RSI    any `json:"rsi"`
	MACD   any `json:"macd"`
}

// MarketRow is one line of the bulk data context, rendered as text.
type MarketRow struct {
	Name   string
	Symbol string
	Price  string
	Change string
	RSI    string
}

type safeAsset struct {
	Name   string  `validate:"required,max=50"`
	Symbol string  `validate:"omitempty,alphanum,max=10"`
	Price  float64 `validate:"gte=0"`
	Change float64
	RSI    float64 `validate:"gte=0,lte=100"`
	MACD   string  `validate:"max=20"`
}

var validate = validator.New()

// SanitizeTarget coerces a targeted asset into bounded, typed fields and
// validates the result.
func SanitizeTarget(in LooseAsset) (ai.AssetPayload, error) {
	name := asString(in.Name)
	if name == "" {
		name = defaultName
	}
	symbol := asString(in.Symbol)
	if symbol == "" {
		symbol = defaultSymbol
	}
	symbol = nonAlnum.ReplaceAllString(strings.ToUpper(truncate(symbol, maxSymbolLen)), "")

	rsi := asNumber(in.RSI)
	if rsi == 0 {
		rsi = neutralRSI
	}

	safe := safeAsset{
		Name:   truncate(name, maxNameLen),
		Symbol: symbol,
		Price:  asNumber(in.Price),
		Change: asNumber(in.Change),
		RSI:    rsi,
		MACD:   truncate(asString(in.MACD), maxMACDLen),
	}
	if err := validate.Struct(safe); err != nil {
		return ai.AssetPayload{}, fmt.Errorf("invalid target asset: %w", err)
	}
	return ai.AssetPayload{
		Name:   safe.Name,
		Symbol: safe.Symbol,
		Price:  safe.Price,
		Change: safe.Change,
		RSI:    safe.RSI,
		MACD:   safe.MACD,
	}, nil
}

// Row renders a bulk entry for the prompt.
func (l LooseAsset) Row() MarketRow {
	return MarketRow{
		Name:   truncate(asString(l.Name), maxNameLen),
		Symbol: truncate(asString(l.Symbol), maxSymbolLen),
		Price:  asString(l.Price),
		Change: asString(l.Change),
		RSI:    asString(l.RSI),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func asNumber(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if t {
			f = 1
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
