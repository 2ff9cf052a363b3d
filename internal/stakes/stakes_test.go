package stakes

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

func legsWithOdds(odds ...float64) []arbitrage.Leg {
	legs := make([]arbitrage.Leg, len(odds))
	for i, o := range odds {
		legs[i] = arbitrage.Leg{Outcome: "outcome", Bookmaker: "book", Odds: o}
	}
	return legs
}

func stakesOf(legs []arbitrage.Leg) []float64 {
	out := make([]float64, len(legs))
	for i, leg := range legs {
		out[i] = *leg.Stake
	}
	return out
}

func TestArbStakes_ScenarioD(t *testing.T) {
	legs, err := ArbStakes(legsWithOdds(2.0, 2.0), 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{50, 50}, stakesOf(legs))

	profit, err := GuaranteedProfit(legsWithOdds(2.0, 2.0), 100)
	require.NoError(t, err)
	assert.Equal(t, 0.0, profit)
}

func TestArbStakes(t *testing.T) {
	tests := []struct {
		name       string
		odds       []float64
		total      float64
		wantStakes []float64
		wantProfit float64
	}{
		{
			name:       "two-way-arb",
			odds:       []float64{2.10, 2.05},
			total:      100,
			wantStakes: []float64{49.39, 50.61},
			wantProfit: 3.73,
		},
		{
			name:       "three-way-arb",
			odds:       []float64{2.90, 3.60, 3.20},
			total:      100,
			wantStakes: []float64{36.87, 29.70, 33.43},
			wantProfit: 6.94,
		},
		{
			name:       "single-leg",
			odds:       []float64{2.5},
			total:      40,
			wantStakes: []float64{40},
			wantProfit: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs, err := ArbStakes(legsWithOdds(tt.odds...), tt.total)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.wantStakes, stakesOf(legs), 1e-9)

			profit, err := GuaranteedProfit(legsWithOdds(tt.odds...), tt.total)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantProfit, profit, 1e-9)
		})
	}
}

func TestArbStakes_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		legs    []arbitrage.Leg
		total   float64
		wantErr error
	}{
		{name: "no-legs", legs: nil, total: 100, wantErr: types.ErrNoLegs},
		{name: "zero-total", legs: legsWithOdds(2, 2), total: 0, wantErr: types.ErrInvalidStake},
		{name: "negative-total", legs: legsWithOdds(2, 2), total: -5, wantErr: types.ErrInvalidStake},
		{name: "nan-total", legs: legsWithOdds(2, 2), total: math.NaN(), wantErr: types.ErrInvalidStake},
		{name: "odds-of-one", legs: legsWithOdds(1.0, 2), total: 100, wantErr: types.ErrInvalidOdds},
		{name: "odds-infinite", legs: legsWithOdds(math.Inf(1), 2), total: 100, wantErr: types.ErrInvalidOdds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ArbStakes(tt.legs, tt.total)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

// Stakes sum exactly to the total and payouts agree to within the cent
// rounding applied to each leg.
func TestArbStakes_ConservationProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1042))

	for run := 0; run < 500; run++ {
		n := 2 + rng.IntN(2)
		odds := make([]float64, n)
		maxOdds := 0.0
		for i := range odds {
			odds[i] = arbitrage.Round2(1.2 + rng.Float64()*6)
			maxOdds = math.Max(maxOdds, odds[i])
		}
		total := float64(1+rng.IntN(100000)) / 100

		legs, err := ArbStakes(legsWithOdds(odds...), total)
		require.NoError(t, err)

		sumCents := int64(0)
		for _, leg := range legs {
			sumCents += int64(math.Round(*leg.Stake * 100))
		}
		require.Equal(t, int64(math.Round(total*100)), sumCents, "odds %v total %v", odds, total)

		tolerance := float64(n)*0.01*maxOdds + 1e-9
		for i := 1; i < len(legs); i++ {
			a := *legs[0].Stake * legs[0].Odds
			b := *legs[i].Stake * legs[i].Odds
			require.LessOrEqual(t, math.Abs(a-b), tolerance, "odds %v total %v", odds, total)
		}
	}
}

func TestMiddleStakes(t *testing.T) {
	tests := []struct {
		name  string
		odds  []float64
		total float64
		want  []float64
	}{
		{name: "even-split", odds: []float64{1.95, 1.95}, total: 100, want: []float64{50, 50}},
		{name: "odd-cent-goes-last", odds: []float64{1.95, 1.95}, total: 100.01, want: []float64{50, 50.01}},
		{name: "three-legs-fall-back-to-arb", odds: []float64{2.90, 3.60, 3.20}, total: 100, want: []float64{36.87, 29.70, 33.43}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legs, err := MiddleStakes(legsWithOdds(tt.odds...), tt.total)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, stakesOf(legs), 1e-9)
		})
	}
}

func TestMiddleOutcomes(t *testing.T) {
	legs := []arbitrage.Leg{
		{Outcome: "Over", Bookmaker: "a", Odds: 1.95, Point: types.Float64Ptr(220)},
		{Outcome: "Under", Bookmaker: "b", Odds: 1.95, Point: types.Float64Ptr(223)},
	}

	result, err := MiddleOutcomes(legs, 100)
	require.NoError(t, err)
	assert.InDelta(t, 95.0, result.BothWin, 1e-9)
	assert.InDelta(t, -2.5, result.Leg1Wins, 1e-9)
	assert.InDelta(t, -2.5, result.Leg2Wins, 1e-9)
	assert.InDelta(t, -100.0, result.BothLose, 1e-9)

	_, err = MiddleOutcomes(legsWithOdds(2, 2, 2), 100)
	assert.ErrorIs(t, err, types.ErrLegCount)
}

func TestWithStakes(t *testing.T) {
	t.Run("arb", func(t *testing.T) {
		opp := arbitrage.CreateTestOpportunity("evt-1")

		staked, err := WithStakes(opp, 100)
		require.NoError(t, err)

		assert.Equal(t, 100.0, staked.TotalStake)
		assert.InDelta(t, 3.73, staked.GuaranteedProfit, 1e-9)
		assert.Equal(t, []float64{49.39, 50.61}, stakesOf(staked.Legs))
		assert.True(t, ValidateStakes(staked.Legs))

		for _, leg := range opp.Legs {
			assert.Nil(t, leg.Stake, "source opportunity must not be modified")
		}
	})

	t.Run("middle", func(t *testing.T) {
		opp := arbitrage.CreateTestMiddle("evt-2")

		staked, err := WithStakes(opp, 100)
		require.NoError(t, err)

		assert.Equal(t, 0.0, staked.GuaranteedProfit)
		assert.Equal(t, []float64{50, 50}, stakesOf(staked.Legs))
		assert.Equal(t, opp.Fingerprint, staked.Fingerprint)
		require.NotNil(t, staked.MiddleWidth)
		assert.Equal(t, 3.0, *staked.MiddleWidth)
	})

	t.Run("invalid-total", func(t *testing.T) {
		_, err := WithStakes(arbitrage.CreateTestOpportunity("evt-3"), 0)
		assert.ErrorIs(t, err, types.ErrInvalidStake)
	})
}

func TestValidateStakes(t *testing.T) {
	p := types.Float64Ptr

	tests := []struct {
		name string
		legs []arbitrage.Leg
		want bool
	}{
		{name: "all-positive", legs: []arbitrage.Leg{{Stake: p(10)}, {Stake: p(0.01)}}, want: true},
		{name: "missing-stake", legs: []arbitrage.Leg{{Stake: p(10)}, {}}, want: false},
		{name: "zero-stake", legs: []arbitrage.Leg{{Stake: p(0)}}, want: false},
		{name: "negative-stake", legs: []arbitrage.Leg{{Stake: p(-1)}}, want: false},
		{name: "nan-stake", legs: []arbitrage.Leg{{Stake: p(math.NaN())}}, want: false},
		{name: "infinite-stake", legs: []arbitrage.Leg{{Stake: p(math.Inf(1))}}, want: false},
		{name: "no-legs", legs: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateStakes(tt.legs))
		})
	}
}

func TestPayoutAndROI(t *testing.T) {
	assert.Equal(t, 103.72, Payout(49.39, 2.10))
	assert.Equal(t, 97.5, Payout(50, 1.95))

	assert.Equal(t, 3.73, ROI(3.73, 100))
	assert.Equal(t, 33.33, ROI(1, 3))
	assert.Equal(t, 0.0, ROI(5, 0))
}

func TestOddsConversion(t *testing.T) {
	tests := []struct {
		name     string
		american float64
		decimal  float64
	}{
		{name: "plus-150", american: 150, decimal: 2.5},
		{name: "minus-200", american: -200, decimal: 1.5},
		{name: "plus-100", american: 100, decimal: 2.0},
		{name: "minus-110", american: -110, decimal: 100.0/110 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.decimal, AmericanToDecimal(tt.american), 1e-9)
			assert.Equal(t, tt.american, DecimalToAmerican(tt.decimal))
		})
	}

	assert.Equal(t, 0.5, ImpliedProbability(2))
	assert.Equal(t, "2.10", FormatAmount(2.1))
}
