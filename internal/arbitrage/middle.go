package arbitrage

import (
	"sort"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// DetectMiddles finds totals and spreads pairs that open a scoring window
// where both legs win. Results are sorted by width, widest first.
func DetectMiddles(event *types.NormalizedEvent, cfg Config) []*Opportunity {
	var opps []*Opportunity

	for i := range event.Markets {
		market := &event.Markets[i]
		switch market.Key {
		case types.MarketTotals:
			opps = append(opps, totalsMiddles(event, market, cfg)...)
		case types.MarketSpreads:
			opps = append(opps, spreadsMiddles(event, market, cfg)...)
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return *opps[i].MiddleWidth > *opps[j].MiddleWidth
	})

	return opps
}

// totalsMiddles pairs Over X at one book with Under Y at another, Y > X.
func totalsMiddles(event *types.NormalizedEvent, market *types.NormalizedMarket, cfg Config) []*Opportunity {
	var overs, unders []*types.NormalizedOutcome
	for i := range market.Outcomes {
		o := &market.Outcomes[i]
		if o.Point == nil {
			continue
		}
		switch totalsSide(o.Name) {
		case sideOver:
			overs = append(overs, o)
		case sideUnder:
			unders = append(unders, o)
		}
	}

	var opps []*Opportunity
	for _, over := range overs {
		for _, under := range unders {
			width := Round2(*under.Point - *over.Point)
			if width <= 0 {
				continue
			}

			opp, ok := evaluateMiddle(event, types.MarketTotals, over, under, width, cfg.TotalsMiddleEdgeFloor, cfg)
			if ok {
				opps = append(opps, opp)
			}
		}
	}

	return opps
}

// spreadsMiddles pairs home +p with away +q, both getting points, width p+q.
func spreadsMiddles(event *types.NormalizedEvent, market *types.NormalizedMarket, cfg Config) []*Opportunity {
	homes, aways := splitSpreads(event, market)

	var opps []*Opportunity
	for _, home := range homes {
		for _, away := range aways {
			if *home.Point <= 0 || *away.Point <= 0 {
				continue
			}

			width := Round2(*home.Point + *away.Point)
			opp, ok := evaluateMiddle(event, types.MarketSpreads, home, away, width, cfg.SpreadsMiddleEdgeFloor, cfg)
			if ok {
				opps = append(opps, opp)
			}
		}
	}

	return opps
}

func evaluateMiddle(
	event *types.NormalizedEvent,
	key types.MarketKey,
	first, second *types.NormalizedOutcome,
	width float64,
	edgeFloor float64,
	cfg Config,
) (*Opportunity, bool) {
	if first.Bookmaker == second.Bookmaker {
		OpportunitiesRejectedTotal.WithLabelValues(rejectSameBookmaker).Inc()
		return nil, false
	}

	if width < cfg.MinMiddleWidth {
		OpportunitiesRejectedTotal.WithLabelValues(rejectNarrowMiddle).Inc()
		return nil, false
	}

	legs := []Leg{legFromOutcome(first), legFromOutcome(second)}
	edge := Round2(CalculateEdge(legs))
	if edge < edgeFloor {
		OpportunitiesRejectedTotal.WithLabelValues(rejectMiddleEdge).Inc()
		return nil, false
	}

	opp := newOpportunity(event, key, TypeMiddle, edge, legs)
	opp.MiddleWidth = types.Float64Ptr(width)
	return opp, true
}

// IsMiddle reports whether two legs form a middle: an Over below an Under
// line, or two spread legs both getting points, from different books.
func IsMiddle(legs []Leg) bool {
	if len(legs) != 2 {
		return false
	}

	a, b := legs[0], legs[1]
	if a.Point == nil || b.Point == nil || a.Bookmaker == b.Bookmaker {
		return false
	}

	if over, under, ok := overUnder(a, b); ok {
		return *under.Point > *over.Point
	}

	return *a.Point > 0 && *b.Point > 0
}

// MiddleWidth returns the window width of a 2-leg middle, or 0.
func MiddleWidth(legs []Leg) float64 {
	if len(legs) != 2 {
		return 0
	}

	a, b := legs[0], legs[1]
	if a.Point == nil || b.Point == nil {
		return 0
	}

	if over, under, ok := overUnder(a, b); ok {
		return *under.Point - *over.Point
	}

	if *a.Point > 0 && *b.Point > 0 {
		return *a.Point + *b.Point
	}

	return 0
}

func overUnder(a, b Leg) (over, under Leg, ok bool) {
	sa, sb := totalsSide(a.Outcome), totalsSide(b.Outcome)
	switch {
	case sa == sideOver && sb == sideUnder:
		return a, b, true
	case sa == sideUnder && sb == sideOver:
		return b, a, true
	default:
		return Leg{}, Leg{}, false
	}
}
