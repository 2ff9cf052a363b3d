// Package paper models what would happen if an opportunity were executed:
// a fill, a miss, or a fill whose edge was eroded by slippage.
package paper

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
)

// MinLegOdds is the floor applied to slipped odds.
const MinLegOdds = 1.01

// minSlippage is the smallest odds move applied when slippage is enabled.
const minSlippage = 0.01

// FillResult is the outcome of one simulated fill attempt.
type FillResult struct {
	Filled          bool            `json:"filled"`
	Status          Status          `json:"status"`
	OriginalEdge    float64         `json:"originalEdge"`
	FinalEdge       float64         `json:"finalEdge"`
	OriginalLegs    []arbitrage.Leg `json:"originalLegs"`
	FinalLegs       []arbitrage.Leg `json:"finalLegs"`
	LatencyMs       int             `json:"latencyMs"`
	SlippageApplied []float64       `json:"slippageApplied"`
}

// Config holds configuration for the simulator.
type Config struct {
	Simulation SimulationConfig
	MinEdge    float64
	Rand       *rand.Rand
	Logger     *zap.Logger
}

// Simulator decides paper fills. The random source is guarded so one
// simulator can serve concurrent callers.
type Simulator struct {
	config  SimulationConfig
	minEdge float64
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a new simulator. A nil Rand is seeded from the runtime.
func New(cfg Config) *Simulator {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Simulator{
		config:  cfg.Simulation,
		minEdge: cfg.MinEdge,
		logger:  cfg.Logger,
		rng:     cfg.Rand,
	}
}

// Config returns the default simulation config of s.
func (s *Simulator) Config() SimulationConfig {
	return s.config
}

// Decide runs the fill model against opp with the simulator's config.
func (s *Simulator) Decide(opp *arbitrage.Opportunity) FillResult {
	return s.DecideWith(opp, s.config)
}

// SimulateSync is Decide; latency is reported but not waited for.
func (s *Simulator) SimulateSync(opp *arbitrage.Opportunity) FillResult {
	return s.Decide(opp)
}

// Simulate decides the fill and then waits out the sampled latency.
// It returns ctx.Err() if the context ends first.
func (s *Simulator) Simulate(ctx context.Context, opp *arbitrage.Opportunity) (FillResult, error) {
	return s.SimulateWith(ctx, opp, s.config)
}

// SimulateWith is Simulate with an explicit config.
func (s *Simulator) SimulateWith(ctx context.Context, opp *arbitrage.Opportunity, cfg SimulationConfig) (FillResult, error) {
	result := s.DecideWith(opp, cfg)

	timer := time.NewTimer(time.Duration(result.LatencyMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return FillResult{}, ctx.Err()
	case <-timer.C:
		return result, nil
	}
}

// DecideWith runs the fill model against opp with cfg.
func (s *Simulator) DecideWith(opp *arbitrage.Opportunity, cfg SimulationConfig) FillResult {
	s.mu.Lock()
	latency := s.latency(cfg)
	missDraw := s.rng.Float64()
	s.mu.Unlock()

	result := decide(opp, cfg, s.minEdge, latency, missDraw)

	FillsTotal.WithLabelValues(string(result.Status)).Inc()
	FillLatencyMs.Observe(float64(result.LatencyMs))
	for _, slip := range result.SlippageApplied {
		SlippageApplied.Observe(slip)
	}

	s.logger.Debug("paper-fill-decided",
		zap.String("fingerprint", opp.Fingerprint),
		zap.String("status", string(result.Status)),
		zap.Bool("filled", result.Filled),
		zap.Float64("original-edge", result.OriginalEdge),
		zap.Float64("final-edge", result.FinalEdge),
		zap.Int("latency-ms", result.LatencyMs))

	return result
}

func (s *Simulator) latency(cfg SimulationConfig) int {
	span := cfg.LatencyMsMax - cfg.LatencyMsMin + 1
	if span <= 1 {
		return cfg.LatencyMsMin
	}
	return s.rng.IntN(span) + cfg.LatencyMsMin
}

// decide is the pure fill decision given the sampled latency and miss draw.
func decide(opp *arbitrage.Opportunity, cfg SimulationConfig, minEdge float64, latencyMs int, missDraw float64) FillResult {
	original := arbitrage.CloneLegs(opp.Legs)

	if missDraw < cfg.MissFillProb {
		return FillResult{
			Filled:          false,
			Status:          StatusMissed,
			OriginalEdge:    opp.EdgePct,
			FinalEdge:       opp.EdgePct,
			OriginalLegs:    original,
			FinalLegs:       arbitrage.CloneLegs(opp.Legs),
			LatencyMs:       latencyMs,
			SlippageApplied: []float64{},
		}
	}

	final := arbitrage.CloneLegs(opp.Legs)
	applied := make([]float64, len(final))
	finalEdge := opp.EdgePct

	if cfg.SlippageBps > 0 {
		for i := range final {
			odds := final[i].Odds
			slip := math.Min(math.Max(odds*cfg.SlippageBps/10000, minSlippage), cfg.MaxLegOddsWorsen)
			newOdds := math.Max(odds-slip, MinLegOdds)

			applied[i] = odds - newOdds
			final[i].Odds = math.Min(arbitrage.Round2(newOdds), odds)
		}
		finalEdge = math.Min(arbitrage.Round2(arbitrage.CalculateEdge(final)), opp.EdgePct)
	}

	result := FillResult{
		Filled:          true,
		Status:          StatusOpen,
		OriginalEdge:    opp.EdgePct,
		FinalEdge:       finalEdge,
		OriginalLegs:    original,
		FinalLegs:       final,
		LatencyMs:       latencyMs,
		SlippageApplied: applied,
	}

	if finalEdge < minEdge {
		result.Status = StatusEdgeLost
		result.Filled = cfg.FillEvenIfEdgeLost
	}

	return result
}
