package arbitrage

import (
	"math"
	"strings"
	"time"

	"github.com/christopherhenripage/odds-trader/pkg/types"
	"go.uber.org/zap"
)

// spreadPointTolerance is how close |home + away| must be to zero to pair spreads.
const spreadPointTolerance = 0.01

// Rejection reasons, used as metric labels.
const (
	rejectSameBookmaker = "same_bookmaker"
	rejectTooFewNames   = "too_few_outcomes"
	rejectNoArb         = "no_arbitrage"
	rejectBelowMinEdge  = "below_min_edge"
	rejectNarrowMiddle  = "middle_too_narrow"
	rejectMiddleEdge    = "middle_edge_below_floor"
)

// Config holds detector configuration.
type Config struct {
	MinEdge                float64
	MinMiddleWidth         float64
	TotalsMiddleEdgeFloor  float64
	SpreadsMiddleEdgeFloor float64
	Logger                 *zap.Logger
}

// DefaultConfig returns the default detection thresholds.
func DefaultConfig() Config {
	return Config{
		MinEdge:                0.5,
		MinMiddleWidth:         0.5,
		TotalsMiddleEdgeFloor:  -5,
		SpreadsMiddleEdgeFloor: -10,
	}
}

// Detector runs arbitrage and middle detection over normalized events.
type Detector struct {
	config Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a new detector.
func New(cfg Config) *Detector {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Detector{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Detect returns the event's arbitrages followed by its middles.
func (d *Detector) Detect(event *types.NormalizedEvent) []*Opportunity {
	start := time.Now()
	defer func() {
		DetectionDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	arbs := DetectArbitrages(event, d.config)
	middles := DetectMiddles(event, d.config)

	detectedAt := d.now()
	all := make([]*Opportunity, 0, len(arbs)+len(middles))
	all = append(all, arbs...)
	all = append(all, middles...)

	for _, opp := range all {
		opp.DetectedAt = detectedAt
		OpportunitiesDetectedTotal.WithLabelValues(string(opp.Type), string(opp.MarketKey)).Inc()
		OpportunityEdgePct.WithLabelValues(string(opp.Type)).Observe(opp.EdgePct)
		if opp.MiddleWidth != nil {
			MiddleWidthPoints.Observe(*opp.MiddleWidth)
		}

		d.logger.Debug("opportunity-detected",
			zap.String("fingerprint", opp.Fingerprint),
			zap.String("event-id", opp.EventID),
			zap.String("type", string(opp.Type)),
			zap.String("market", string(opp.MarketKey)),
			zap.Float64("edge-pct", opp.EdgePct))
	}

	return all
}

// DetectAll runs Detect over many events.
func (d *Detector) DetectAll(events []*types.NormalizedEvent) []*Opportunity {
	var all []*Opportunity
	for _, event := range events {
		all = append(all, d.Detect(event)...)
	}
	return all
}

// DetectArbitrages finds guaranteed-profit combinations in the event's
// moneyline, totals and spreads markets.
func DetectArbitrages(event *types.NormalizedEvent, cfg Config) []*Opportunity {
	var opps []*Opportunity

	for i := range event.Markets {
		market := &event.Markets[i]
		switch market.Key {
		case types.MarketMoneyline:
			opps = append(opps, moneylineArbitrage(event, market, cfg)...)
		case types.MarketTotals:
			opps = append(opps, totalsArbitrage(event, market, cfg)...)
		case types.MarketSpreads:
			opps = append(opps, spreadsArbitrage(event, market, cfg)...)
		}
	}

	return opps
}

// moneylineArbitrage takes the best price per outcome name across books.
// Handles 2-way and 3-way markets the same way.
func moneylineArbitrage(event *types.NormalizedEvent, market *types.NormalizedMarket, cfg Config) []*Opportunity {
	var names []string
	best := make(map[string]*types.NormalizedOutcome)

	for i := range market.Outcomes {
		o := &market.Outcomes[i]
		current, ok := best[o.Name]
		if !ok {
			names = append(names, o.Name)
			best[o.Name] = o
			continue
		}
		if o.Price > current.Price {
			best[o.Name] = o
		}
	}

	if len(names) < 2 {
		OpportunitiesRejectedTotal.WithLabelValues(rejectTooFewNames).Inc()
		return nil
	}

	legs := make([]Leg, 0, len(names))
	for _, name := range names {
		legs = append(legs, legFromOutcome(best[name]))
	}

	opp, ok := evaluateArb(event, types.MarketMoneyline, legs, cfg)
	if !ok {
		return nil
	}
	return []*Opportunity{opp}
}

type lineQuotes struct {
	overs  []*types.NormalizedOutcome
	unders []*types.NormalizedOutcome
}

// totalsArbitrage pairs the best Over and best Under quoted at the same line.
func totalsArbitrage(event *types.NormalizedEvent, market *types.NormalizedMarket, cfg Config) []*Opportunity {
	var lines []float64
	byLine := make(map[float64]*lineQuotes)

	for i := range market.Outcomes {
		o := &market.Outcomes[i]
		if o.Point == nil {
			continue
		}

		side := totalsSide(o.Name)
		if side == "" {
			continue
		}

		q, ok := byLine[*o.Point]
		if !ok {
			q = &lineQuotes{}
			byLine[*o.Point] = q
			lines = append(lines, *o.Point)
		}

		if side == sideOver {
			q.overs = append(q.overs, o)
		} else {
			q.unders = append(q.unders, o)
		}
	}

	var opps []*Opportunity
	for _, line := range lines {
		q := byLine[line]
		if len(q.overs) == 0 || len(q.unders) == 0 {
			continue
		}

		legs := []Leg{
			legFromOutcome(bestPrice(q.overs)),
			legFromOutcome(bestPrice(q.unders)),
		}

		opp, ok := evaluateArb(event, types.MarketTotals, legs, cfg)
		if ok {
			opps = append(opps, opp)
		}
	}

	return opps
}

// spreadsArbitrage pairs home +p with away -p from a different book.
func spreadsArbitrage(event *types.NormalizedEvent, market *types.NormalizedMarket, cfg Config) []*Opportunity {
	homes, aways := splitSpreads(event, market)

	var opps []*Opportunity
	for _, home := range homes {
		for _, away := range aways {
			if math.Abs(*away.Point+*home.Point) >= spreadPointTolerance {
				continue
			}

			legs := []Leg{legFromOutcome(home), legFromOutcome(away)}
			opp, ok := evaluateArb(event, types.MarketSpreads, legs, cfg)
			if ok {
				opps = append(opps, opp)
			}
		}
	}

	return opps
}

// evaluateArb applies the shared bookmaker, profitability and threshold checks.
func evaluateArb(event *types.NormalizedEvent, key types.MarketKey, legs []Leg, cfg Config) (*Opportunity, bool) {
	if distinctBookmakers(legs) < 2 {
		OpportunitiesRejectedTotal.WithLabelValues(rejectSameBookmaker).Inc()
		return nil, false
	}

	if !IsArbitrage(legs) {
		OpportunitiesRejectedTotal.WithLabelValues(rejectNoArb).Inc()
		return nil, false
	}

	edge := Round2(CalculateEdge(legs))
	if edge < cfg.MinEdge {
		OpportunitiesRejectedTotal.WithLabelValues(rejectBelowMinEdge).Inc()
		return nil, false
	}

	return newOpportunity(event, key, TypeArb, edge, legs), true
}

const (
	sideOver  = "over"
	sideUnder = "under"
)

// totalsSide classifies a totals outcome name as over, under or neither.
func totalsSide(name string) string {
	lower := strings.ToLower(name)
	if strings.Contains(lower, sideOver) {
		return sideOver
	}
	if strings.Contains(lower, sideUnder) {
		return sideUnder
	}
	return ""
}

// splitSpreads returns the home-side and away-side quotes that carry a point.
func splitSpreads(event *types.NormalizedEvent, market *types.NormalizedMarket) (homes, aways []*types.NormalizedOutcome) {
	for i := range market.Outcomes {
		o := &market.Outcomes[i]
		if o.Point == nil {
			continue
		}

		lower := strings.ToLower(o.Name)
		if o.Name == event.HomeTeam || strings.Contains(lower, "home") {
			homes = append(homes, o)
		}
		if o.Name == event.AwayTeam || strings.Contains(lower, "away") {
			aways = append(aways, o)
		}
	}
	return homes, aways
}

func bestPrice(outcomes []*types.NormalizedOutcome) *types.NormalizedOutcome {
	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.Price > best.Price {
			best = o
		}
	}
	return best
}
