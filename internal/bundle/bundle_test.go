package bundle

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
)

func edges(opps []*arbitrage.Opportunity) []float64 {
	out := make([]float64, len(opps))
	for i, o := range opps {
		out[i] = o.EdgePct
	}
	return out
}

func TestByEvent_CapsAndRanks(t *testing.T) {
	var opps []*arbitrage.Opportunity
	for i, edge := range []float64{1.2, 0.7, 2.5, 0.9, 1.8, 3.1, 0.6} {
		opps = append(opps, arbitrage.CreateTestOpportunityWithEdge("evt-1", fmt.Sprintf("book-%d", i), edge))
	}

	bundles := ByEvent(opps, 5)
	require.Len(t, bundles, 1)

	b := bundles[0]
	assert.Equal(t, "evt-1", b.EventID)
	assert.Equal(t, []float64{3.1, 2.5, 1.8, 1.2, 0.9}, edges(b.Opportunities))
	assert.Equal(t, 3.1, b.BestEdge)
}

func TestByEvent_GroupsAndOrders(t *testing.T) {
	opps := []*arbitrage.Opportunity{
		arbitrage.CreateTestOpportunityWithEdge("evt-a", "a1", 1.0),
		arbitrage.CreateTestOpportunityWithEdge("evt-b", "b1", 4.0),
		arbitrage.CreateTestOpportunityWithEdge("evt-a", "a2", 2.0),
		arbitrage.CreateTestOpportunityWithEdge("evt-c", "c1", 0.5),
		arbitrage.CreateTestOpportunityWithEdge("evt-b", "b2", 3.0),
	}

	bundles := ByEvent(opps, 5)
	require.Len(t, bundles, 3)

	assert.Equal(t, "evt-b", bundles[0].EventID)
	assert.Equal(t, []float64{4.0, 3.0}, edges(bundles[0].Opportunities))
	assert.Equal(t, "evt-a", bundles[1].EventID)
	assert.Equal(t, []float64{2.0, 1.0}, edges(bundles[1].Opportunities))
	assert.Equal(t, "evt-c", bundles[2].EventID)
}

func TestByEvent_EdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		opps        []*arbitrage.Opportunity
		maxPerEvent int
		wantBundles int
		wantFirst   int
	}{
		{
			name:        "empty-input",
			opps:        nil,
			maxPerEvent: 5,
			wantBundles: 0,
		},
		{
			name: "cap-of-one",
			opps: []*arbitrage.Opportunity{
				arbitrage.CreateTestOpportunityWithEdge("evt", "a", 1),
				arbitrage.CreateTestOpportunityWithEdge("evt", "b", 2),
			},
			maxPerEvent: 1,
			wantBundles: 1,
			wantFirst:   1,
		},
		{
			name: "non-positive-cap-uses-default",
			opps: []*arbitrage.Opportunity{
				arbitrage.CreateTestOpportunityWithEdge("evt", "a", 1),
				arbitrage.CreateTestOpportunityWithEdge("evt", "b", 2),
				arbitrage.CreateTestOpportunityWithEdge("evt", "c", 3),
				arbitrage.CreateTestOpportunityWithEdge("evt", "d", 4),
				arbitrage.CreateTestOpportunityWithEdge("evt", "e", 5),
				arbitrage.CreateTestOpportunityWithEdge("evt", "f", 6),
			},
			maxPerEvent: 0,
			wantBundles: 1,
			wantFirst:   DefaultMaxPerEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bundles := ByEvent(tt.opps, tt.maxPerEvent)
			require.Len(t, bundles, tt.wantBundles)
			if tt.wantBundles > 0 {
				assert.Len(t, bundles[0].Opportunities, tt.wantFirst)
			}
		})
	}
}

func TestByEvent_DoesNotReorderInput(t *testing.T) {
	opps := []*arbitrage.Opportunity{
		arbitrage.CreateTestOpportunityWithEdge("evt", "a", 1),
		arbitrage.CreateTestOpportunityWithEdge("evt", "b", 2),
	}

	ByEvent(opps, 5)
	assert.Equal(t, []float64{1, 2}, edges(opps))
}

// Bundles are ordered by best edge and each bundle is ordered by edge.
func TestByEvent_OrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for run := 0; run < 100; run++ {
		var opps []*arbitrage.Opportunity
		n := rng.IntN(40)
		for i := 0; i < n; i++ {
			eventID := fmt.Sprintf("evt-%d", rng.IntN(6))
			edge := arbitrage.Round2(rng.Float64()*10 - 5)
			opps = append(opps, arbitrage.CreateTestOpportunityWithEdge(eventID, "book", edge))
		}

		maxPerEvent := 1 + rng.IntN(5)
		bundles := ByEvent(opps, maxPerEvent)

		total := 0
		for i, b := range bundles {
			require.NotEmpty(t, b.Opportunities)
			require.LessOrEqual(t, len(b.Opportunities), maxPerEvent)
			assert.Equal(t, b.Opportunities[0].EdgePct, b.BestEdge)

			for j := 1; j < len(b.Opportunities); j++ {
				assert.GreaterOrEqual(t, b.Opportunities[j-1].EdgePct, b.Opportunities[j].EdgePct)
			}
			for _, o := range b.Opportunities {
				assert.Equal(t, b.EventID, o.EventID)
			}
			if i > 0 {
				assert.GreaterOrEqual(t, bundles[i-1].BestEdge, b.BestEdge)
			}
			total += len(b.Opportunities)
		}

		assert.Len(t, Flatten(bundles), total)
	}
}

func TestFlatten(t *testing.T) {
	bundles := []Bundled{
		{
			EventID: "evt-b",
			Opportunities: []*arbitrage.Opportunity{
				arbitrage.CreateTestOpportunityWithEdge("evt-b", "a", 4),
				arbitrage.CreateTestOpportunityWithEdge("evt-b", "b", 3),
			},
			BestEdge: 4,
		},
		{
			EventID: "evt-a",
			Opportunities: []*arbitrage.Opportunity{
				arbitrage.CreateTestOpportunityWithEdge("evt-a", "c", 2),
			},
			BestEdge: 2,
		},
	}

	assert.Equal(t, []float64{4, 3, 2}, edges(Flatten(bundles)))
	assert.Empty(t, Flatten(nil))
}

func TestStatsFor(t *testing.T) {
	opps := []*arbitrage.Opportunity{
		arbitrage.CreateTestOpportunityWithEdge("evt", "a", 3.0),
		arbitrage.CreateTestMiddle("evt"),
		arbitrage.CreateTestOpportunityWithEdge("evt", "b", 1.0),
	}
	opps[1].EdgePct = -2.0

	stats := StatsFor(Bundled{EventID: "evt", Opportunities: opps, BestEdge: 3.0})

	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 3.0, stats.BestEdge)
	assert.Equal(t, 0.67, stats.AvgEdge)
	assert.Equal(t, 2, stats.ArbCount)
	assert.Equal(t, 1, stats.MiddleCount)
}

func TestStatsFor_Empty(t *testing.T) {
	stats := StatsFor(Bundled{EventID: "evt"})
	assert.Equal(t, Stats{}, stats)
}
