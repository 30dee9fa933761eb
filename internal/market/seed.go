package market

import "omni_pulse/internal/models"

// InitialSummary is shown until the first analysis cycle produces one.
const InitialSummary = "Prêt pour le scan FinTwit..."

// DefaultUniverse returns a fresh copy of the startup asset table.
func DefaultUniverse() map[models.Category][]models.Asset {
	return map[models.Category][]models.Asset{
		models.CategoryIndices: {
			{ID: "dax", Name: "DAX 40", Symbol: "DAX", Icon: "🇩🇪", Price: 18520.45, Change: 0.68, RSI: 65, MACD: "+42.3"},
			{ID: "cac", Name: "CAC 40", Symbol: "CAC", Icon: "🇫🇷", Price: 7854.12, Change: 0.45, RSI: 62, MACD: "+38.1"},
			{ID: "ftse", Name: "FTSE 100", Symbol: "FTSE", Icon: "🇬🇧", Price: 8124.88, Change: 0.52, RSI: 58, MACD: "+25.4"},
			{ID: "sp500", Name: "S&P 500", Symbol: "SPX", Icon: "🇺🇸", Price: 5928.15, Change: 1.12, RSI: 68, MACD: "+58.2"},
			{ID: "ndx", Name: "Nasdaq 100", Symbol: "NDX", Icon: "🇺🇸", Price: 20854.30, Change: 1.35, RSI: 71, MACD: "+72.1"},
			{ID: "nikkei", Name: "Nikkei 225", Symbol: "NI225", Icon: "🇯🇵", Price: 33255.00, Change: 0.28, RSI: 55, MACD: "+18.5"},
		},
		models.CategoryForex: {
			{ID: "eurusd", Name: "EUR / USD", Symbol: "EURUSD", Icon: "🇪🇺🇺🇸", Price: 1.0522, Change: -0.15, RSI: 48, MACD: "-12.3"},
			{ID: "gbpusd", Name: "GBP / USD", Symbol: "GBPUSD", Icon: "🇬🇧🇺🇸", Price: 1.2754, Change: 0.25, RSI: 52, MACD: "+8.7"},
			{ID: "usdjpy", Name: "USD / JPY", Symbol: "USDJPY", Icon: "🇺🇸🇯🇵", Price: 149.52, Change: 0.45, RSI: 61, MACD: "+22.1"},
			{ID: "eurgbp", Name: "EUR / GBP", Symbol: "EURGBP", Icon: "🇪🇺🇬🇧", Price: 0.8256, Change: -0.32, RSI: 45, MACD: "-15.8"},
			{ID: "audusd", Name: "AUD / USD", Symbol: "AUDUSD", Icon: "🇦🇺🇺🇸", Price: 0.6582, Change: 0.18, RSI: 54, MACD: "+5.2"},
			{ID: "usdcad", Name: "USD / CAD", Symbol: "USDCAD", Icon: "🇺🇸🇨🇦", Price: 1.3424, Change: 0.28, RSI: 57, MACD: "+14.6"},
		},
		models.CategoryCrypto: {
			{ID: "btc", Name: "Bitcoin", Symbol: "BTC", Icon: "₿", Price: 96854.20, Change: 2.45, RSI: 72, MACD: "+125.3"},
			{ID: "eth", Name: "Ethereum", Symbol: "ETH", Icon: "Ξ", Price: 3582.45, Change: 1.85, RSI: 68, MACD: "+84.2"},
			{ID: "sol", Name: "Solana", Symbol: "SOL", Icon: "◎", Price: 205.12, Change: 3.12, RSI: 75, MACD: "+62.1"},
			{ID: "ada", Name: "Cardano", Symbol: "ADA", Icon: "₳", Price: 0.9824, Change: 1.45, RSI: 64, MACD: "+38.5"},
			{ID: "xrp", Name: "XRP", Symbol: "XRP", Icon: "✕", Price: 2.1855, Change: 0.95, RSI: 60, MACD: "+28.3"},
			{ID: "dot", Name: "Polkadot", Symbol: "DOT", Icon: "●", Price: 8.2452, Change: 2.15, RSI: 69, MACD: "+52.7"},
		},
		models.CategorySectors: {
			{ID: "xlk", Name: "Tech (XLK)", Symbol: "XLK", Icon: "💻", Price: 214.52, Change: 1.28, RSI: 72, MACD: "+68.2"},
			{ID: "xlf", Name: "Finance (XLF)", Symbol: "XLF", Icon: "💰", Price: 42.36, Change: 0.58, RSI: 59, MACD: "+12.4"},
			{ID: "xle", Name: "Énergie (XLE)", Symbol: "XLE", Icon: "⚡", Price: 84.22, Change: 0.72, RSI: 62, MACD: "+18.9"},
			{ID: "xlv", Name: "Santé (XLV)", Symbol: "XLV", Icon: "⚕️", Price: 147.85, Change: 0.32, RSI: 54, MACD: "+8.5"},
			{ID: "xlc", Name: "Comms (XLC)", Symbol: "XLC", Icon: "📡", Price: 76.18, Change: 0.45, RSI: 57, MACD: "+14.2"},
			{ID: "xlre", Name: "Immobilier (XLRE)", Symbol: "XLRE", Icon: "🏠", Price: 58.94, Change: -0.28, RSI: 47, MACD: "-6.3"},
		},
		models.CategoryCommodities: {
			{ID: "gold", Name: "Or", Symbol: "GC", Icon: "🟡", Price: 2765.40, Change: 0.85, RSI: 61, MACD: "+35.2"},
			{ID: "oil", Name: "Pétrole WTI", Symbol: "CL", Icon: "🛢️", Price: 72.48, Change: 1.15, RSI: 64, MACD: "+22.8"},
			{ID: "brent", Name: "Pétrole Brent", Symbol: "BZ", Icon: "🛢️", Price: 76.84, Change: 1.08, RSI: 63, MACD: "+21.5"},
			{ID: "natgas", Name: "Gaz Naturel", Symbol: "NG", Icon: "💨", Price: 2.954, Change: -2.15, RSI: 38, MACD: "-48.3"},
			{ID: "copper", Name: "Cuivre", Symbol: "HG", Icon: "🔴", Price: 4.282, Change: 0.95, RSI: 66, MACD: "+42.1"},
			{ID: "silver", Name: "Argent", Symbol: "SI", Icon: "⚪", Price: 31.52, Change: 0.42, RSI: 58, MACD: "+16.7"},
		},
		models.CategoryBonds: {
			{ID: "us10y", Name: "Taux US 10 ans", Symbol: "US10Y", Icon: "📊", Price: 4.252, Change: 0.05, RSI: 52, MACD: "+3.2"},
			{ID: "us2y", Name: "Taux US 2 ans", Symbol: "US2Y", Icon: "📊", Price: 4.384, Change: 0.02, RSI: 51, MACD: "+1.8"},
			{ID: "bund10y", Name: "Bund Allemand 10 ans", Symbol: "BUND10Y", Icon: "📊", Price: 2.185, Change: -0.08, RSI: 48, MACD: "-4.5"},
			{ID: "oat10y", Name: "OAT France 10 ans", Symbol: "OAT10Y", Icon: "📊", Price: 2.954, Change: -0.06, RSI: 49, MACD: "-3.2"},
			{ID: "gilt10y", Name: "Gilt UK 10 ans", Symbol: "GILT10Y", Icon: "📊", Price: 3.852, Change: 0.01, RSI: 50, MACD: "+0.5"},
			{ID: "eur_ig", Name: "Oblig. EUR IG", Symbol: "EU_IG", Icon: "📊", Price: 3.421, Change: -0.04, RSI: 47, MACD: "-2.1"},
		},
	}
}

// DefaultRecommendations are displayed before the first cycle completes.
func DefaultRecommendations() []models.Recommendation {
	return []models.Recommendation{
		{Asset: "S&P 500", Action: models.ActionBuy, Confidence: 78, Justification: "RSI à 68 combiné à une divergence MACD positive. Support tenu fermement à 5880."},
		{Asset: "Bitcoin", Action: models.ActionBuy, Confidence: 75, Justification: "Accumulation institutionnelle visible sous 95k. Les indicateurs de momentum deviennent haussiers."},
		{Asset: "EUR / USD", Action: models.ActionSell, Confidence: 72, Justification: "Divergence baissière sur l'unité de temps H4. Persistance des vents contraires pour la zone euro."},
		{Asset: "Or", Action: models.ActionHold, Confidence: 65, Justification: "Évolution en range entre 2745-2785. En attente d'une cassure du triangle descendant."},
	}
}
