// Package bundle groups opportunities per event into capped, edge-ranked bundles.
package bundle

import (
	"sort"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
)

// DefaultMaxPerEvent caps a bundle when no limit is configured.
const DefaultMaxPerEvent = 5

// Bundled is the best-first set of opportunities for one event.
type Bundled struct {
	EventID       string                   `json:"eventId"`
	Opportunities []*arbitrage.Opportunity `json:"opportunities"`
	BestEdge      float64                  `json:"bestEdge"`
}

// Stats summarizes one bundle.
type Stats struct {
	Count       int     `json:"count"`
	BestEdge    float64 `json:"bestEdge"`
	AvgEdge     float64 `json:"avgEdge"`
	ArbCount    int     `json:"arbCount"`
	MiddleCount int     `json:"middleCount"`
}

// ByEvent groups opps by event, keeps the maxPerEvent best by edge within
// each group, and orders the groups by their best edge.
// A non-positive maxPerEvent falls back to DefaultMaxPerEvent.
func ByEvent(opps []*arbitrage.Opportunity, maxPerEvent int) []Bundled {
	if maxPerEvent <= 0 {
		maxPerEvent = DefaultMaxPerEvent
	}

	var order []string
	groups := make(map[string][]*arbitrage.Opportunity)
	for _, opp := range opps {
		if _, ok := groups[opp.EventID]; !ok {
			order = append(order, opp.EventID)
		}
		groups[opp.EventID] = append(groups[opp.EventID], opp)
	}

	bundles := make([]Bundled, 0, len(order))
	for _, eventID := range order {
		group := groups[eventID]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].EdgePct > group[j].EdgePct
		})

		if len(group) > maxPerEvent {
			group = group[:maxPerEvent]
		}

		bundles = append(bundles, Bundled{
			EventID:       eventID,
			Opportunities: group,
			BestEdge:      group[0].EdgePct,
		})
	}

	sort.SliceStable(bundles, func(i, j int) bool {
		return bundles[i].BestEdge > bundles[j].BestEdge
	})

	return bundles
}

// Flatten concatenates bundles back into one list in bundle order.
func Flatten(bundles []Bundled) []*arbitrage.Opportunity {
	var out []*arbitrage.Opportunity
	for _, b := range bundles {
		out = append(out, b.Opportunities...)
	}
	return out
}

// StatsFor computes summary statistics for a bundle.
func StatsFor(b Bundled) Stats {
	stats := Stats{
		Count:    len(b.Opportunities),
		BestEdge: b.BestEdge,
	}

	sum := 0.0
	for _, opp := range b.Opportunities {
		sum += opp.EdgePct
		switch opp.Type {
		case arbitrage.TypeArb:
			stats.ArbCount++
		case arbitrage.TypeMiddle:
			stats.MiddleCount++
		}
	}

	if stats.Count > 0 {
		stats.AvgEdge = arbitrage.Round2(sum / float64(stats.Count))
	}

	return stats
}
