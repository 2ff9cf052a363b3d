package normalizer

import (
	"math"
	"strings"
	"time"

	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// Drop reasons, used as metric labels.
const (
	dropMissingEventID = "missing_event_id"
	dropUnknownMarket  = "unknown_market"
	dropEmptyName      = "empty_name"
	dropInvalidPrice   = "invalid_price"
	dropMissingPoint   = "missing_point"
)

// marketOrder fixes the output order of markets regardless of provider order.
//
//nolint:gochecknoglobals // read-only lookup
var marketOrder = []types.MarketKey{
	types.MarketMoneyline,
	types.MarketTotals,
	types.MarketSpreads,
}

// MarketKeyFor maps a provider market key to a normalized key.
func MarketKeyFor(providerKey string) (types.MarketKey, bool) {
	switch strings.ToLower(strings.TrimSpace(providerKey)) {
	case types.ProviderMarketH2H, string(types.MarketMoneyline):
		return types.MarketMoneyline, true
	case string(types.MarketTotals):
		return types.MarketTotals, true
	case string(types.MarketSpreads):
		return types.MarketSpreads, true
	default:
		return "", false
	}
}

// ProviderKeyFor maps a normalized key back to the provider's market name.
func ProviderKeyFor(key types.MarketKey) string {
	if key == types.MarketMoneyline {
		return types.ProviderMarketH2H
	}
	return string(key)
}

// Normalize reshapes one raw event into a NormalizedEvent.
// Malformed outcomes are dropped. Returns false when the event itself is unusable.
func Normalize(raw types.RawEvent) (*types.NormalizedEvent, bool) {
	if strings.TrimSpace(raw.ID) == "" {
		OutcomesDroppedTotal.WithLabelValues(dropMissingEventID).Inc()
		return nil, false
	}

	byKey := make(map[types.MarketKey][]types.NormalizedOutcome)

	for _, book := range raw.Bookmakers {
		for _, market := range book.Markets {
			key, ok := MarketKeyFor(market.Key)
			if !ok {
				OutcomesDroppedTotal.WithLabelValues(dropUnknownMarket).Add(float64(len(market.Outcomes)))
				continue
			}

			for _, outcome := range market.Outcomes {
				normalized, ok := normalizeOutcome(key, book, outcome)
				if !ok {
					continue
				}
				byKey[key] = append(byKey[key], normalized)
			}
		}
	}

	event := &types.NormalizedEvent{
		ID:           raw.ID,
		SportKey:     raw.SportKey,
		SportTitle:   raw.SportTitle,
		CommenceTime: parseTime(raw.CommenceTime),
		HomeTeam:     raw.HomeTeam,
		AwayTeam:     raw.AwayTeam,
		Markets:      make([]types.NormalizedMarket, 0, len(byKey)),
	}

	for _, key := range marketOrder {
		outcomes, ok := byKey[key]
		if !ok || len(outcomes) == 0 {
			continue
		}
		event.Markets = append(event.Markets, types.NormalizedMarket{
			Key:      key,
			Outcomes: outcomes,
		})
	}

	EventsNormalizedTotal.Inc()
	return event, true
}

// NormalizeAll normalizes a provider payload, skipping unusable events.
func NormalizeAll(raws []types.RawEvent) []*types.NormalizedEvent {
	events := make([]*types.NormalizedEvent, 0, len(raws))
	for i := range raws {
		event, ok := Normalize(raws[i])
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events
}

func normalizeOutcome(
	key types.MarketKey,
	book types.RawBookmaker,
	raw types.RawOutcome,
) (types.NormalizedOutcome, bool) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		OutcomesDroppedTotal.WithLabelValues(dropEmptyName).Inc()
		return types.NormalizedOutcome{}, false
	}

	if !raw.Price.Valid || !(raw.Price.Value > 1.0) || math.IsInf(raw.Price.Value, 0) {
		OutcomesDroppedTotal.WithLabelValues(dropInvalidPrice).Inc()
		return types.NormalizedOutcome{}, false
	}

	needsPoint := key == types.MarketTotals || key == types.MarketSpreads
	if needsPoint && !validPoint(raw.Point) {
		OutcomesDroppedTotal.WithLabelValues(dropMissingPoint).Inc()
		return types.NormalizedOutcome{}, false
	}

	outcome := types.NormalizedOutcome{
		Name:           name,
		Price:          raw.Price.Value,
		Bookmaker:      book.Key,
		BookmakerTitle: book.Title,
	}

	if validPoint(raw.Point) {
		outcome.Point = types.Float64Ptr(raw.Point.Value)
	}

	if outcome.BookmakerTitle == "" {
		outcome.BookmakerTitle = book.Key
	}

	return outcome, true
}

func validPoint(p types.FlexFloat) bool {
	return p.Valid && !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}

	return t.UTC()
}
