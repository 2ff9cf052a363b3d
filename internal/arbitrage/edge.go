package arbitrage

import "math"

// ImpliedProbabilitySum returns Σ 1/odds over the legs.
func ImpliedProbabilitySum(legs []Leg) float64 {
	sum := 0.0
	for _, leg := range legs {
		sum += 1 / leg.Odds
	}
	return sum
}

// CalculateEdge returns (1 - Σ 1/odds) * 100, unrounded.
func CalculateEdge(legs []Leg) float64 {
	return (1 - ImpliedProbabilitySum(legs)) * 100
}

// IsArbitrage reports whether the legs' implied probabilities sum below 1.
func IsArbitrage(legs []Leg) bool {
	if len(legs) == 0 {
		return false
	}
	return ImpliedProbabilitySum(legs) < 1
}

// Round2 rounds half up to two decimals.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

func distinctBookmakers(legs []Leg) int {
	seen := make(map[string]struct{}, len(legs))
	for _, leg := range legs {
		seen[leg.Bookmaker] = struct{}{}
	}
	return len(seen)
}
