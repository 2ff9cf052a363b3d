package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/stakes"
)

//nolint:gochecknoglobals // Cobra boilerplate
var stakesCmd = &cobra.Command{
	Use:   "stakes",
	Short: "Split a stake across legs",
	Long: `Splits a total stake across the given decimal odds. Arbitrages get
equal-payout stakes and a guaranteed profit; with --middle the two legs are
staked evenly and the result of each way the middle can land is shown.

Examples:
  odds-trader stakes --odds 2.10,2.05 --stake 100
  odds-trader stakes --odds 1.95,1.95 --middle
  odds-trader stakes --odds=+110,-105 --american`,
	RunE: runStakes,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(stakesCmd)
	stakesCmd.Flags().Float64Slice("odds", nil, "Odds of each leg (comma-separated)")
	stakesCmd.Flags().Float64("stake", 100, "Total stake")
	stakesCmd.Flags().Bool("middle", false, "Stake the legs as a 2-leg middle")
	stakesCmd.Flags().Bool("american", false, "Odds are American (+150, -110) instead of decimal")
	_ = stakesCmd.MarkFlagRequired("odds")
}

func runStakes(cmd *cobra.Command, args []string) error {
	odds, _ := cmd.Flags().GetFloat64Slice("odds")
	total, _ := cmd.Flags().GetFloat64("stake")
	middle, _ := cmd.Flags().GetBool("middle")
	american, _ := cmd.Flags().GetBool("american")

	legs, err := buildLegs(odds, american)
	if err != nil {
		return err
	}

	return renderStakes(cmd.OutOrStdout(), legs, total, middle)
}

// buildLegs turns a list of odds into anonymous legs, converting from
// American odds when asked.
func buildLegs(odds []float64, american bool) ([]arbitrage.Leg, error) {
	if len(odds) < 2 {
		return nil, errors.New("at least two odds are required")
	}

	legs := make([]arbitrage.Leg, len(odds))
	for i, o := range odds {
		if american {
			if o > -100 && o < 100 {
				return nil, fmt.Errorf("american odds %v must be <= -100 or >= +100", o)
			}
			o = arbitrage.Round2(stakes.AmericanToDecimal(o))
		}
		legs[i] = arbitrage.Leg{Outcome: fmt.Sprintf("Leg %d", i+1), Odds: o}
	}

	return legs, nil
}

func renderStakes(out io.Writer, legs []arbitrage.Leg, total float64, middle bool) error {
	edge := arbitrage.Round2(arbitrage.CalculateEdge(legs))

	var (
		staked []arbitrage.Leg
		err    error
	)
	if middle {
		staked, err = stakes.MiddleStakes(legs, total)
	} else {
		staked, err = stakes.ArbStakes(legs, total)
	}
	if err != nil {
		return fmt.Errorf("calculate stakes: %w", err)
	}

	table := tablewriter.NewWriter(out)
	table.Header("Leg", "Odds", "American", "Implied", "Stake", "Payout")
	for _, leg := range staked {
		table.Append(
			leg.Outcome,
			fmt.Sprintf("%.2f", leg.Odds),
			fmt.Sprintf("%+.0f", stakes.DecimalToAmerican(leg.Odds)),
			fmt.Sprintf("%.2f%%", stakes.ImpliedProbability(leg.Odds)*100),
			"$"+stakes.FormatAmount(*leg.Stake),
			"$"+stakes.FormatAmount(stakes.Payout(*leg.Stake, leg.Odds)),
		)
	}
	table.Render()

	fmt.Fprintf(out, "\nTotal stake: $%s | Edge: %+.2f%%\n", stakes.FormatAmount(total), edge)

	if middle {
		outcomes, err := stakes.MiddleOutcomes(legs, total)
		if err != nil {
			return fmt.Errorf("calculate middle outcomes: %w", err)
		}
		fmt.Fprintf(out, "Both win: $%s | Leg 1 only: $%s | Leg 2 only: $%s\n",
			stakes.FormatAmount(outcomes.BothWin),
			stakes.FormatAmount(outcomes.Leg1Wins),
			stakes.FormatAmount(outcomes.Leg2Wins))
		return nil
	}

	profit, err := stakes.GuaranteedProfit(legs, total)
	if err != nil {
		return fmt.Errorf("calculate profit: %w", err)
	}
	fmt.Fprintf(out, "Guaranteed profit: $%s (ROI %.2f%%)\n",
		stakes.FormatAmount(profit), stakes.ROI(profit, total))

	return nil
}
