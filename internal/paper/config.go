package paper

import (
	"fmt"
)

// SimulationConfig holds the parameters of the fill model.
type SimulationConfig struct {
	LatencyMsMin       int     `json:"latencyMsMin"`
	LatencyMsMax       int     `json:"latencyMsMax"`
	SlippageBps        float64 `json:"slippageBps"`
	MissFillProb       float64 `json:"missFillProb"`
	MaxLegOddsWorsen   float64 `json:"maxLegOddsWorsen"`
	FillEvenIfEdgeLost bool    `json:"fillEvenIfEdgeLost"`
}

// DefaultSimulationConfig returns the standard fill model.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		LatencyMsMin:       400,
		LatencyMsMax:       2200,
		SlippageBps:        35,
		MissFillProb:       0.08,
		MaxLegOddsWorsen:   0.15,
		FillEvenIfEdgeLost: false,
	}
}

// Validate checks the config for impossible values.
func (c SimulationConfig) Validate() error {
	if c.LatencyMsMin < 0 || c.LatencyMsMax < c.LatencyMsMin {
		return fmt.Errorf("latency range [%d, %d] is invalid", c.LatencyMsMin, c.LatencyMsMax)
	}

	if c.SlippageBps < 0 {
		return fmt.Errorf("slippage bps must be >= 0, got %v", c.SlippageBps)
	}

	if c.MissFillProb < 0 || c.MissFillProb > 1 {
		return fmt.Errorf("miss fill probability must be in [0, 1], got %v", c.MissFillProb)
	}

	if c.MaxLegOddsWorsen < 0 {
		return fmt.Errorf("max leg odds worsen must be >= 0, got %v", c.MaxLegOddsWorsen)
	}

	return nil
}

// edgeLostEstimate is the assumed share of attempted fills that lose their edge.
const edgeLostEstimate = 0.15

// ExpectedFillRate estimates the share of attempts that end up filled.
func ExpectedFillRate(cfg SimulationConfig) float64 {
	base := 1 - cfg.MissFillProb
	if cfg.FillEvenIfEdgeLost {
		return base
	}
	return base * (1 - edgeLostEstimate)
}
