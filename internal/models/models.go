package models

import "strings"

// Category is one of the fixed dashboard tabs an asset belongs to.
type Category string

const (
	CategoryIndices     Category = "indices"
	CategoryForex       Category = "forex"
	CategoryCrypto      Category = "crypto"
	CategorySectors     Category = "sectors"
	CategoryCommodities Category = "commodities"
	CategoryBonds       Category = "bonds"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryIndices,
	CategoryForex,
	CategoryCrypto,
	CategorySectors,
	CategoryCommodities,
	CategoryBonds,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Asset represents a ticker shown on the dashboard.
//
// The set of assets is fixed at startup. Price and Change are mutated on every
// market tick; RSI and MACD are precomputed indicator values carried as-is.
type Asset struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	Icon     string   `json:"icon,omitempty"`
	Price    float64  `json:"price"`
	Change   float64  `json:"change"` // percent since reference
	RSI      float64  `json:"rsi"`    // oscillator, 0-100
	MACD     string   `json:"macd"`   // trend string, e.g. "+42.3"
	Category Category `json:"category"`
}

// FoldKey is the case-folding rule used for every asset/recommendation key
// comparison: surrounding whitespace trimmed, then lowercased.
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchesAsset reports whether a recommendation key designates the asset,
// comparing folded keys against symbol, name and id.
func MatchesAsset(key string, a Asset) bool {
	k := FoldKey(key)
	if k == "" {
		return false
	}
	return k == FoldKey(a.Symbol) || k == FoldKey(a.Name) || k == FoldKey(a.ID)
}

// FindRecommendation returns the recommendation attached to an asset.
//
// Precedence is symbol, then name, then id: a recommendation keyed by the
// symbol wins over one keyed by the display name even if the latter comes first.
func FindRecommendation(recs []Recommendation, a Asset) (Recommendation, bool) {
	fields := []string{a.Symbol, a.Name, a.ID}
	for _, field := range fields {
		f := FoldKey(field)
		if f == "" {
			continue
		}
		for _, r := range recs {
			if FoldKey(r.Asset) == f {
				return r, true
			}
		}
	}
	return Recommendation{}, false
}

// UpsertRecommendation replaces every recommendation attached to the asset (or
// sharing rec's key) with rec. The input slice is not modified.
func UpsertRecommendation(recs []Recommendation, rec Recommendation, a Asset) []Recommendation {
	key := FoldKey(rec.Asset)
	out := make([]Recommendation, 0, len(recs)+1)
	for _, r := range recs {
		if FoldKey(r.Asset) == key || MatchesAsset(r.Asset, a) {
			continue
		}
		out = append(out, r)
	}
	return append(out, rec)
}
