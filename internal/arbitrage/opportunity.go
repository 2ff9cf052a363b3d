package arbitrage

import (
	"fmt"
	"strings"
	"time"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// Type is the class of an opportunity.
type Type string

// Opportunity types.
const (
	TypeArb    Type = "ARB"
	TypeMiddle Type = "MIDDLE"
)

// Leg is one bet of an opportunity.
type Leg struct {
	Outcome        string   `json:"outcome"`
	Bookmaker      string   `json:"bookmaker"`
	BookmakerTitle string   `json:"bookmakerTitle"`
	Odds           float64  `json:"odds"`
	Point          *float64 `json:"point,omitempty"`
	Stake          *float64 `json:"stake,omitempty"`
}

// Opportunity is an arbitrage or middle found on one event market.
// Treat it as immutable once built; derive copies instead of mutating.
type Opportunity struct {
	Fingerprint  string          `json:"fingerprint"`
	EventID      string          `json:"eventId"`
	SportKey     string          `json:"sportKey"`
	SportTitle   string          `json:"sportTitle"`
	CommenceTime time.Time       `json:"commenceTime"`
	HomeTeam     string          `json:"homeTeam"`
	AwayTeam     string          `json:"awayTeam"`
	Type         Type            `json:"type"`
	MarketKey    types.MarketKey `json:"marketKey"`
	EdgePct      float64         `json:"edgePct"`
	MiddleWidth  *float64        `json:"middleWidth,omitempty"`
	Legs         []Leg           `json:"legs"`
	DetectedAt   time.Time       `json:"detectedAt"`
}

// newOpportunity builds an opportunity for event and computes its fingerprint.
func newOpportunity(
	event *types.NormalizedEvent,
	marketKey types.MarketKey,
	oppType Type,
	edgePct float64,
	legs []Leg,
) *Opportunity {
	return &Opportunity{
		Fingerprint:  Fingerprint(event.ID, marketKey, oppType, legs),
		EventID:      event.ID,
		SportKey:     event.SportKey,
		SportTitle:   event.SportTitle,
		CommenceTime: event.CommenceTime,
		HomeTeam:     event.HomeTeam,
		AwayTeam:     event.AwayTeam,
		Type:         oppType,
		MarketKey:    marketKey,
		EdgePct:      edgePct,
		Legs:         legs,
	}
}

// legFromOutcome copies a normalized quote into a leg.
func legFromOutcome(o *types.NormalizedOutcome) Leg {
	leg := Leg{
		Outcome:        o.Name,
		Bookmaker:      o.Bookmaker,
		BookmakerTitle: o.BookmakerTitle,
		Odds:           o.Price,
	}
	if o.Point != nil {
		leg.Point = types.Float64Ptr(*o.Point)
	}
	return leg
}

// Clone returns a deep copy.
func (o *Opportunity) Clone() *Opportunity {
	c := *o
	c.Legs = CloneLegs(o.Legs)
	if o.MiddleWidth != nil {
		c.MiddleWidth = types.Float64Ptr(*o.MiddleWidth)
	}
	return &c
}

// CloneLegs deep-copies a leg slice.
func CloneLegs(legs []Leg) []Leg {
	out := make([]Leg, len(legs))
	for i, leg := range legs {
		out[i] = leg
		if leg.Point != nil {
			out[i].Point = types.Float64Ptr(*leg.Point)
		}
		if leg.Stake != nil {
			out[i].Stake = types.Float64Ptr(*leg.Stake)
		}
	}
	return out
}

// Bookmakers returns the distinct bookmakers across legs, in leg order.
func (o *Opportunity) Bookmakers() []string {
	seen := make(map[string]struct{}, len(o.Legs))
	books := make([]string, 0, len(o.Legs))
	for _, leg := range o.Legs {
		if _, ok := seen[leg.Bookmaker]; ok {
			continue
		}
		seen[leg.Bookmaker] = struct{}{}
		books = append(books, leg.Bookmaker)
	}
	return books
}

// Matchup returns "Away @ Home".
func (o *Opportunity) Matchup() string {
	return fmt.Sprintf("%s @ %s", o.AwayTeam, o.HomeTeam)
}

// Summary is a short one-line description used for positions and alerts.
func (o *Opportunity) Summary() string {
	parts := make([]string, 0, len(o.Legs))
	for _, leg := range o.Legs {
		parts = append(parts, leg.Label())
	}

	return fmt.Sprintf("%s %s %s: %s", o.Type, o.MarketKey, o.Matchup(), strings.Join(parts, " / "))
}

// String returns a human-readable representation of the opportunity.
func (o *Opportunity) String() string {
	fp := o.Fingerprint
	if len(fp) > 8 {
		fp = fp[:8]
	}

	width := ""
	if o.MiddleWidth != nil {
		width = fmt.Sprintf(" Width=%.2f", *o.MiddleWidth)
	}

	return fmt.Sprintf("Opportunity[%s] %s %s Event=%s Edge=%.2f%%%s Legs=%d",
		fp, o.Type, o.MarketKey, o.EventID, o.EdgePct, width, len(o.Legs))
}

// Label renders a leg as "Over 220.5 @ 1.95 (DraftKings)".
func (l Leg) Label() string {
	title := l.BookmakerTitle
	if title == "" {
		title = l.Bookmaker
	}

	if l.Point != nil {
		return fmt.Sprintf("%s %s @ %.2f (%s)", l.Outcome, formatPoint(*l.Point), l.Odds, title)
	}
	return fmt.Sprintf("%s @ %.2f (%s)", l.Outcome, l.Odds, title)
}

func formatPoint(p float64) string {
	if p > 0 {
		return fmt.Sprintf("+%g", p)
	}
	return fmt.Sprintf("%g", p)
}
