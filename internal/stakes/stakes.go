// Package stakes splits a total stake across the legs of an opportunity.
//
// Cent arithmetic runs on shopspring/decimal so that stakes always sum
// exactly to the requested total.
package stakes

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

// StakedOpportunity is an opportunity with per-leg stakes attached.
type StakedOpportunity struct {
	*arbitrage.Opportunity
	TotalStake       float64 `json:"totalStake"`
	GuaranteedProfit float64 `json:"guaranteedProfit"`
}

// MiddleResult is the profit or loss of a 2-leg middle for each way it can land.
type MiddleResult struct {
	BothWin  float64 `json:"bothWin"`
	Leg1Wins float64 `json:"leg1Wins"`
	Leg2Wins float64 `json:"leg2Wins"`
	BothLose float64 `json:"bothLose"`
}

func checkInputs(legs []arbitrage.Leg, total float64) error {
	if len(legs) == 0 {
		return types.ErrNoLegs
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return fmt.Errorf("total %v: %w", total, types.ErrInvalidStake)
	}
	for _, leg := range legs {
		if !(leg.Odds > 1) || math.IsInf(leg.Odds, 0) {
			return fmt.Errorf("leg %s odds %v: %w", leg.Label(), leg.Odds, types.ErrInvalidOdds)
		}
	}
	return nil
}

func inverseSum(legs []arbitrage.Leg) decimal.Decimal {
	sum := decimal.Zero
	for _, leg := range legs {
		sum = sum.Add(decimal.NewFromInt(1).Div(decimal.NewFromFloat(leg.Odds)))
	}
	return sum
}

// withStake returns a copy of legs with the given stakes set.
func withStake(legs []arbitrage.Leg, amounts []decimal.Decimal) []arbitrage.Leg {
	out := arbitrage.CloneLegs(legs)
	for i := range out {
		v := amounts[i].InexactFloat64()
		out[i].Stake = &v
	}
	return out
}

// ArbStakes splits total so every leg pays out the same amount.
// Each stake is floored to the cent and the remainder goes to the last leg,
// so the stakes sum exactly to total.
func ArbStakes(legs []arbitrage.Leg, total float64) ([]arbitrage.Leg, error) {
	if err := checkInputs(legs, total); err != nil {
		return nil, fmt.Errorf("calculate arb stakes: %w", err)
	}

	totalDec := decimal.NewFromFloat(total).Round(2)
	inv := inverseSum(legs)

	amounts := make([]decimal.Decimal, len(legs))
	allocated := decimal.Zero
	for i, leg := range legs {
		raw := totalDec.Div(decimal.NewFromFloat(leg.Odds)).Div(inv)
		amounts[i] = raw.RoundFloor(2)
		allocated = allocated.Add(amounts[i])
	}

	last := len(amounts) - 1
	amounts[last] = amounts[last].Add(totalDec.Sub(allocated).Round(2))

	return withStake(legs, amounts), nil
}

// GuaranteedProfit returns total/Σ(1/odds) - total, rounded to cents.
func GuaranteedProfit(legs []arbitrage.Leg, total float64) (float64, error) {
	if err := checkInputs(legs, total); err != nil {
		return 0, fmt.Errorf("calculate guaranteed profit: %w", err)
	}

	totalDec := decimal.NewFromFloat(total)
	payout := totalDec.Div(inverseSum(legs))
	return payout.Sub(totalDec).Round(2).InexactFloat64(), nil
}

// MiddleStakes splits total evenly across a 2-leg middle, with any odd cent
// on the second leg. Other leg counts fall back to ArbStakes.
func MiddleStakes(legs []arbitrage.Leg, total float64) ([]arbitrage.Leg, error) {
	if len(legs) != 2 {
		return ArbStakes(legs, total)
	}
	if err := checkInputs(legs, total); err != nil {
		return nil, fmt.Errorf("calculate middle stakes: %w", err)
	}

	totalDec := decimal.NewFromFloat(total).Round(2)
	half := totalDec.Div(decimal.NewFromInt(2)).RoundFloor(2)

	return withStake(legs, []decimal.Decimal{half, totalDec.Sub(half)}), nil
}

// MiddleOutcomes returns the result of a 2-leg middle staked with MiddleStakes.
func MiddleOutcomes(legs []arbitrage.Leg, total float64) (MiddleResult, error) {
	if len(legs) != 2 {
		return MiddleResult{}, fmt.Errorf("calculate middle outcomes: %d legs: %w", len(legs), types.ErrLegCount)
	}

	staked, err := MiddleStakes(legs, total)
	if err != nil {
		return MiddleResult{}, err
	}

	totalDec := decimal.NewFromFloat(total).Round(2)
	p1 := payoutDec(*staked[0].Stake, staked[0].Odds)
	p2 := payoutDec(*staked[1].Stake, staked[1].Odds)

	return MiddleResult{
		BothWin:  p1.Add(p2).Sub(totalDec).InexactFloat64(),
		Leg1Wins: p1.Sub(totalDec).InexactFloat64(),
		Leg2Wins: p2.Sub(totalDec).InexactFloat64(),
		BothLose: totalDec.Neg().InexactFloat64(),
	}, nil
}

// WithStakes returns a staked copy of opp. ARBs get equal-payout stakes and a
// guaranteed profit; MIDDLEs get an even split and zero guaranteed profit.
// opp itself is not modified.
func WithStakes(opp *arbitrage.Opportunity, total float64) (*StakedOpportunity, error) {
	var (
		legs   []arbitrage.Leg
		profit float64
		err    error
	)

	if opp.Type == arbitrage.TypeArb {
		legs, err = ArbStakes(opp.Legs, total)
		if err != nil {
			return nil, err
		}
		profit, err = GuaranteedProfit(opp.Legs, total)
		if err != nil {
			return nil, err
		}
	} else {
		legs, err = MiddleStakes(opp.Legs, total)
		if err != nil {
			return nil, err
		}
	}

	staked := opp.Clone()
	staked.Legs = legs

	return &StakedOpportunity{
		Opportunity:      staked,
		TotalStake:       total,
		GuaranteedProfit: profit,
	}, nil
}

// ValidateStakes reports whether every leg has a positive, finite stake.
func ValidateStakes(legs []arbitrage.Leg) bool {
	for _, leg := range legs {
		if leg.Stake == nil {
			return false
		}
		s := *leg.Stake
		if !(s > 0) || math.IsInf(s, 0) {
			return false
		}
	}
	return true
}

func payoutDec(stake, odds float64) decimal.Decimal {
	return decimal.NewFromFloat(stake).Mul(decimal.NewFromFloat(odds)).Round(2)
}

// Payout returns stake*odds rounded to cents.
func Payout(stake, odds float64) float64 {
	return payoutDec(stake, odds).InexactFloat64()
}

// ROI returns profit/stake as a percentage with two decimals, or 0 for a zero stake.
func ROI(profit, stake float64) float64 {
	if stake == 0 {
		return 0
	}
	return arbitrage.Round2(profit / stake * 100)
}

// AmericanToDecimal converts American odds (+150, -200) to decimal odds.
func AmericanToDecimal(american float64) float64 {
	if american > 0 {
		return american/100 + 1
	}
	return 100/math.Abs(american) + 1
}

// DecimalToAmerican converts decimal odds to rounded American odds.
func DecimalToAmerican(dec float64) float64 {
	if dec >= 2 {
		return math.Round((dec - 1) * 100)
	}
	return math.Round(-100 / (dec - 1))
}

// ImpliedProbability returns 1/odds.
func ImpliedProbability(odds float64) float64 {
	return 1 / odds
}

// FormatAmount renders a stake or odds value with two decimals.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
