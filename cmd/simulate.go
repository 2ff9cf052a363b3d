package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/app"
	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/paper"
	"github.com/christopherhenripage/odds-trader/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Monte Carlo the paper fill model on one arbitrage",
	Long: `Runs the paper fill simulator repeatedly against an arbitrage built from
the given odds and reports how often it fills, misses or loses its edge.
The fill model comes from the PAPER_* settings.

Example:
  odds-trader simulate --odds 2.10,2.05 --runs 1000 --seed 42`,
	RunE: runSimulate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Float64Slice("odds", nil, "Decimal odds of each leg (comma-separated)")
	simulateCmd.Flags().Int("runs", 1000, "Number of simulated fills")
	simulateCmd.Flags().Uint64("seed", 0, "Random seed (0 seeds from the runtime)")
	_ = simulateCmd.MarkFlagRequired("odds")
}

// SimulationSummary aggregates repeated fill decisions.
type SimulationSummary struct {
	Runs          int
	Counts        map[paper.Status]int
	Filled        int
	AvgFinalEdge  float64
	AvgLatencyMs  float64
	WorstEdge     float64
	OriginalEdge  float64
	ExpectedRatio float64
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	odds, _ := cmd.Flags().GetFloat64Slice("odds")
	runs, _ := cmd.Flags().GetInt("runs")
	seed, _ := cmd.Flags().GetUint64("seed")
	if runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}

	legs, err := buildLegs(odds, false)
	if err != nil {
		return err
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	sim := app.NewSimulator(cfg, zap.NewNop(), rng)
	summary := simulate(sim, simulationOpportunity(legs), runs)

	renderSimulation(cmd.OutOrStdout(), summary)
	return nil
}

func simulationOpportunity(legs []arbitrage.Leg) *arbitrage.Opportunity {
	return &arbitrage.Opportunity{
		Fingerprint: "simulation",
		EventID:     "simulation",
		Type:        arbitrage.TypeArb,
		MarketKey:   types.MarketMoneyline,
		EdgePct:     arbitrage.Round2(arbitrage.CalculateEdge(legs)),
		Legs:        legs,
	}
}

func simulate(sim *paper.Simulator, opp *arbitrage.Opportunity, runs int) SimulationSummary {
	summary := SimulationSummary{
		Runs:          runs,
		Counts:        make(map[paper.Status]int),
		OriginalEdge:  opp.EdgePct,
		WorstEdge:     opp.EdgePct,
		ExpectedRatio: paper.ExpectedFillRate(sim.Config()),
	}

	var edgeSum, latencySum float64
	for range runs {
		result := sim.Decide(opp)

		summary.Counts[result.Status]++
		if result.Filled {
			summary.Filled++
		}
		edgeSum += result.FinalEdge
		latencySum += float64(result.LatencyMs)
		summary.WorstEdge = min(summary.WorstEdge, result.FinalEdge)
	}

	summary.AvgFinalEdge = arbitrage.Round2(edgeSum / float64(runs))
	summary.AvgLatencyMs = latencySum / float64(runs)
	return summary
}

func renderSimulation(out io.Writer, s SimulationSummary) {
	table := tablewriter.NewWriter(out)
	table.Header("Status", "Count", "Share")
	for _, status := range []paper.Status{paper.StatusOpen, paper.StatusMissed, paper.StatusEdgeLost} {
		n := s.Counts[status]
		table.Append(string(status), fmt.Sprintf("%d", n), fmt.Sprintf("%.1f%%", float64(n)/float64(s.Runs)*100))
	}
	table.Render()

	fmt.Fprintf(out, "\nRuns: %d | Filled: %d (%.1f%%, model estimate %.1f%%)\n",
		s.Runs, s.Filled, float64(s.Filled)/float64(s.Runs)*100, s.ExpectedRatio*100)
	fmt.Fprintf(out, "Edge: original %+.2f%% | average final %+.2f%% | worst %+.2f%%\n",
		s.OriginalEdge, s.AvgFinalEdge, s.WorstEdge)
	fmt.Fprintf(out, "Average latency: %.0f ms\n", s.AvgLatencyMs)
}
