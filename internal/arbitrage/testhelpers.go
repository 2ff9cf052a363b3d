package arbitrage

import (
	"time"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// Test helpers live in a non-test file so other packages' tests can use them.

// NewTestEvent builds a normalized event with the given markets.
func NewTestEvent(eventID string, markets ...types.NormalizedMarket) *types.NormalizedEvent {
	return &types.NormalizedEvent{
		ID:           eventID,
		SportKey:     "basketball_nba",
		SportTitle:   "NBA",
		CommenceTime: time.Date(2026, 1, 10, 0, 30, 0, 0, time.UTC),
		HomeTeam:     "Lakers",
		AwayTeam:     "Celtics",
		Markets:      markets,
	}
}

// Quote builds a normalized outcome without a point.
func Quote(name, bookmaker string, price float64) types.NormalizedOutcome {
	return types.NormalizedOutcome{
		Name:           name,
		Price:          price,
		Bookmaker:      bookmaker,
		BookmakerTitle: bookmaker,
	}
}

// QuoteAt builds a normalized outcome with a point.
func QuoteAt(name, bookmaker string, price, point float64) types.NormalizedOutcome {
	q := Quote(name, bookmaker, price)
	q.Point = types.Float64Ptr(point)
	return q
}

// CreateTestOpportunity creates a two-leg moneyline arbitrage (2.10 / 2.05, edge 3.60).
func CreateTestOpportunity(eventID string) *Opportunity {
	legs := []Leg{
		{Outcome: "Lakers", Bookmaker: "draftkings", BookmakerTitle: "DraftKings", Odds: 2.10},
		{Outcome: "Celtics", Bookmaker: "fanduel", BookmakerTitle: "FanDuel", Odds: 2.05},
	}
	return CreateTestOpportunityWithLegs(eventID, TypeArb, types.MarketMoneyline, legs)
}

// CreateTestMiddle creates a totals middle (Over 220 / Under 223, width 3).
func CreateTestMiddle(eventID string) *Opportunity {
	legs := []Leg{
		{Outcome: "Over", Bookmaker: "draftkings", BookmakerTitle: "DraftKings", Odds: 1.95, Point: types.Float64Ptr(220)},
		{Outcome: "Under", Bookmaker: "fanduel", BookmakerTitle: "FanDuel", Odds: 1.95, Point: types.Float64Ptr(223)},
	}
	opp := CreateTestOpportunityWithLegs(eventID, TypeMiddle, types.MarketTotals, legs)
	opp.MiddleWidth = types.Float64Ptr(3)
	return opp
}

// CreateTestOpportunityWithLegs creates an opportunity with the edge computed from legs.
func CreateTestOpportunityWithLegs(eventID string, oppType Type, key types.MarketKey, legs []Leg) *Opportunity {
	event := NewTestEvent(eventID)
	opp := newOpportunity(event, key, oppType, Round2(CalculateEdge(legs)), legs)
	opp.DetectedAt = time.Date(2026, 1, 9, 18, 0, 0, 0, time.UTC)
	return opp
}

// CreateTestOpportunityWithEdge creates an arbitrage whose EdgePct is forced to edge.
// Used where only ordering by edge matters.
func CreateTestOpportunityWithEdge(eventID string, book string, edge float64) *Opportunity {
	legs := []Leg{
		{Outcome: "Lakers", Bookmaker: book, BookmakerTitle: book, Odds: 2.10},
		{Outcome: "Celtics", Bookmaker: "fanduel", BookmakerTitle: "FanDuel", Odds: 2.05},
	}
	opp := CreateTestOpportunityWithLegs(eventID, TypeArb, types.MarketMoneyline, legs)
	opp.EdgePct = edge
	return opp
}
