package ai

import (
	"math"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"omni_pulse/internal/models"
)

// Placeholders for fields the backend left empty.
const (
	DefaultNewsTitle         = "Flash Marché"
	DefaultSignalTitle       = "Signal de marché"
	DefaultSignalDescription = "Aucun détail fourni."
	DefaultNewsLimit         = 5
)

func normalizeSignals(in []WireSignal) []models.Signal {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Signal, 0, len(in))
	for _, s := range in {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = DefaultSignalTitle
		}
		desc := strings.TrimSpace(s.Description)
		if desc == "" {
			desc = DefaultSignalDescription
		}
		out = append(out, models.Signal{
			Type:        models.ParseSignalType(s.Type),
			Title:       title,
			Description: desc,
			Impact:      models.ParseImpact(s.Impact),
		})
	}
	return out
}

// NormalizeRecommendation defaults the action, clamps confidence and falls
// back to fallbackKey when the asset key is empty. It returns false when no
// usable key remains.
func NormalizeRecommendation(r WireRecommendation, fallbackKey string) (models.Recommendation, bool) {
	key := strings.TrimSpace(r.Asset)
	if key == "" {
		key = strings.TrimSpace(fallbackKey)
	}
	if key == "" {
		return models.Recommendation{}, false
	}
	var tags []string
	for _, s := range r.Signals {
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	return models.Recommendation{
		Asset:         key,
		Action:        models.ParseAction(r.Action),
		Confidence:    clampConfidence(r.Confidence),
		Justification: strings.TrimSpace(r.Justification),
		Signals:       tags,
	}, true
}

func normalizeRecommendations(in []WireRecommendation) []models.Recommendation {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Recommendation, 0, len(in))
	for _, r := range in {
		if rec, ok := NormalizeRecommendation(r, ""); ok {
			out = append(out, rec)
		}
	}
	return out
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0 || math.IsNaN(c):
		return 0
	case c > 100:
		return 100
	default:
		return c
	}
}

// MergeNews concatenates the lists, keeps the first item per URI, fills in
// display defaults and caps the result to limit items. Items without a URI
// are dropped.
func MergeNews(limit int, lists ...[]WireNews) []WireNews {
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	seen := make(map[string]bool)
	var out []WireNews
	for _, list := range lists {
		for _, n := range list {
			uri := strings.TrimSpace(n.URI)
			if uri == "" || seen[uri] {
				continue
			}
			seen[uri] = true
			n.URI = uri
			if strings.TrimSpace(n.Title) == "" {
				n.Title = DefaultNewsTitle
			}
			if strings.TrimSpace(n.Time) == "" {
				n.Time = models.LiveLabel
			}
			if strings.TrimSpace(n.Source) == "" {
				n.Source = SourceFromURI(uri)
			}
			out = append(out, n)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// SourceFromURI returns the host of uri without a leading "www.".
func SourceFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func normalizeNews(in []WireNews, limit int) []models.NewsItem {
	merged := MergeNews(limit, in)
	if len(merged) == 0 {
		return nil
	}
	out := make([]models.NewsItem, 0, len(merged))
	for _, n := range merged {
		out = append(out, models.NewsItem{
			ID:        uuid.New().String(),
			Title:     n.Title,
			URI:       n.URI,
			Source:    n.Source,
			Time:      n.Time,
			Sentiment: models.ParseSentiment(n.Sentiment),
			ImageURL:  n.ImageURL,
		})
	}
	return out
}
