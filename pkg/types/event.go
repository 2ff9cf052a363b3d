package types

import "time"

// MarketKey identifies a market type after normalization.
type MarketKey string

// Market keys understood by the detectors.
const (
	MarketMoneyline MarketKey = "moneyline"
	MarketTotals    MarketKey = "totals"
	MarketSpreads   MarketKey = "spreads"
)

// ProviderMarketH2H is the provider's name for the moneyline market.
const ProviderMarketH2H = "h2h"

// NormalizedEvent is one event with outcomes merged across bookmakers per market.
type NormalizedEvent struct {
	ID           string
	SportKey     string
	SportTitle   string
	CommenceTime time.Time
	HomeTeam     string
	AwayTeam     string
	Markets      []NormalizedMarket
}

// Market returns the market with the given key, if present.
func (e *NormalizedEvent) Market(key MarketKey) (*NormalizedMarket, bool) {
	for i := range e.Markets {
		if e.Markets[i].Key == key {
			return &e.Markets[i], true
		}
	}
	return nil, false
}

// NormalizedMarket holds every bookmaker's quotes for one market key.
type NormalizedMarket struct {
	Key      MarketKey
	Outcomes []NormalizedOutcome
}

// NormalizedOutcome is a single bookmaker quote. Price is decimal odds > 1.0.
type NormalizedOutcome struct {
	Name           string
	Price          float64
	Point          *float64
	Bookmaker      string
	BookmakerTitle string
}

// HasPoint reports whether the outcome carries a line.
func (o *NormalizedOutcome) HasPoint() bool {
	return o.Point != nil
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
