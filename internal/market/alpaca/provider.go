package alpaca

import (
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/sirupsen/logrus"
)

// TradeSource returns the last traded price for a ticker.
type TradeSource interface {
	LatestPrice(ticker string) (float64, error)
}

// Anchorable is the part of the market store the seeder writes to.
type Anchorable interface {
	Reanchor(id string, price float64) bool
}

// Provider reads latest trades from the Alpaca market data API.
type Provider struct {
	mdClient *marketdata.Client
}

var _ TradeSource = (*Provider)(nil)

// NewProvider returns a market data provider. Empty credentials fall back to
// the APCA_* environment.
func NewProvider(keyID, secretKey string) *Provider {
	return &Provider{
		mdClient: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    keyID,
			APISecret: secretKey,
		}),
	}
}

func (p *Provider) LatestPrice(ticker string) (float64, error) {
	trade, err := p.mdClient.GetLatestTrade(ticker, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, err
	}
	if trade == nil {
		return 0, fmt.Errorf("no trade found for %s", ticker)
	}
	return trade.Price, nil
}

// ParseMapping reads "id=TICKER" pairs separated by commas.
func ParseMapping(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, ticker, ok := strings.Cut(part, "=")
		id, ticker = strings.TrimSpace(id), strings.ToUpper(strings.TrimSpace(ticker))
		if !ok || id == "" || ticker == "" {
			return nil, fmt.Errorf("invalid re-anchor pair %q", part)
		}
		out[id] = ticker
	}
	return out, nil
}

// Seeder re-anchors store prices on real last trades.
type Seeder struct {
	source  TradeSource
	mapping map[string]string // asset id -> ticker
	log     logrus.FieldLogger
}

func NewSeeder(source TradeSource, mapping map[string]string, log logrus.FieldLogger) *Seeder {
	return &Seeder{source: source, mapping: mapping, log: log}
}

// Reanchor updates every mapped asset. A failing ticker is logged and
// skipped; the count of updated assets is returned.
func (s *Seeder) Reanchor(store Anchorable) int {
	n := 0
	for id, ticker := range s.mapping {
		price, err := s.source.LatestPrice(ticker)
		if err != nil {
			s.log.WithFields(logrus.Fields{"asset": id, "ticker": ticker}).WithError(err).Warn("Re-anchor failed")
			continue
		}
		if !store.Reanchor(id, price) {
			s.log.WithFields(logrus.Fields{"asset": id, "ticker": ticker}).Warn("Re-anchor skipped: unknown asset or invalid price")
			continue
		}
		n++
	}
	return n
}
