package market

import (
	"math"

	"omni_pulse/internal/models"
)

// Weights of the two sentiment inputs.
const (
	priceWeight = 0.4
	newsWeight  = 0.6
)

// ComputeSentiment derives the bullish/bearish split from asset changes and
// news polarity. Neutral is always 0 in this derivation.
func ComputeSentiment(assets []models.Asset, news []models.NewsItem) models.MarketSentiment {
	var priceBullish float64
	if len(assets) > 0 {
		up := 0
		for _, a := range assets {
			if a.Change > 0 {
				up++
			}
		}
		priceBullish = float64(up) / float64(len(assets)) * 100
	}

	newsBullish := 50.0
	if total := len(news); total > 0 {
		positive := 0
		for _, n := range news {
			if n.Sentiment == models.SentimentPositive {
				positive++
			}
		}
		newsBullish = (float64(positive) + float64(total)/2) / float64(total) * 100
	}

	bullish := int(math.Round(priceBullish*priceWeight + newsBullish*newsWeight))
	return models.MarketSentiment{Bullish: bullish, Neutral: 0, Bearish: 100 - bullish}
}
