package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/christopherhenripage/odds-trader/internal/app"
	"github.com/christopherhenripage/odds-trader/internal/arbitrage"
	"github.com/christopherhenripage/odds-trader/internal/scanner"
	"github.com/christopherhenripage/odds-trader/internal/stakes"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanOnceCmd = &cobra.Command{
	Use:   "scan-once",
	Short: "Run a single scan and print the opportunities found",
	Long: `Fetches odds once, runs detection and prints every arbitrage and middle
found. Nothing is persisted, deduplicated or sent.`,
	RunE: runScanOnce,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanOnceCmd)
	scanOnceCmd.Flags().StringSlice("sports", nil, "Sport keys to scan (overrides SPORTS)")
	scanOnceCmd.Flags().Float64("stake", 0, "Total stake used for the leg breakdown (defaults to STAKE_DEFAULT)")
	scanOnceCmd.Flags().Bool("json", false, "Print opportunities as JSON")
	scanOnceCmd.Flags().Duration("timeout", 2*time.Minute, "Overall scan timeout")
}

func runScanOnce(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	err = cfg.ValidateProvider()
	if err != nil {
		return fmt.Errorf("validate provider config: %w", err)
	}

	sports, _ := cmd.Flags().GetStringSlice("sports")
	if len(sports) == 0 {
		sports = cfg.Sports
	}
	stake, _ := cmd.Flags().GetFloat64("stake")
	if stake <= 0 {
		stake = cfg.StakeDefault
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	oddsProvider, providerCache, err := app.NewProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	defer providerCache.Close()

	svc := scanner.New(scanner.Config{
		Provider: oddsProvider,
		Detector: app.NewDetector(cfg, logger),
		Sports:   sports,
		Markets:  cfg.Markets,
		Logger:   logger,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	opps, err := svc.ScanOnce(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(opps)
	}

	quota := oddsProvider.RateLimit()
	fmt.Fprintf(out, "Scanned %s: %d opportunities, %d API calls, %d requests remaining\n\n",
		strings.Join(sports, ","), len(opps), oddsProvider.APICalls(), quota.Remaining)
	if len(opps) == 0 {
		return nil
	}

	return renderOpportunities(out, opps, stake)
}

// renderOpportunities prints a summary table followed by the staked legs of
// each opportunity.
func renderOpportunities(out io.Writer, opps []*arbitrage.Opportunity, stake float64) error {
	table := tablewriter.NewWriter(out)
	table.Header("#", "Type", "Sport", "Matchup", "Market", "Edge", "Width", "Commence")

	for i, opp := range opps {
		width := "-"
		if opp.MiddleWidth != nil {
			width = fmt.Sprintf("%.1f", *opp.MiddleWidth)
		}

		table.Append(
			fmt.Sprintf("%d", i+1),
			string(opp.Type),
			opp.SportTitle,
			opp.Matchup(),
			string(opp.MarketKey),
			fmt.Sprintf("%+.2f%%", opp.EdgePct),
			width,
			opp.CommenceTime.Format(time.RFC3339),
		)
	}
	table.Render()

	for i, opp := range opps {
		staked, err := stakes.WithStakes(opp, stake)
		if err != nil {
			return fmt.Errorf("stake opportunity %d: %w", i+1, err)
		}

		fmt.Fprintf(out, "\n#%d %s %s (stake $%s", i+1, opp.Type, opp.Matchup(), stakes.FormatAmount(stake))
		if opp.Type == arbitrage.TypeArb {
			fmt.Fprintf(out, ", guaranteed profit $%s", stakes.FormatAmount(staked.GuaranteedProfit))
		}
		fmt.Fprintln(out, ")")

		legs := tablewriter.NewWriter(out)
		legs.Header("Outcome", "Point", "Odds", "Bookmaker", "Stake")
		for _, leg := range staked.Legs {
			legs.Append(legRow(leg)...)
		}
		legs.Render()
	}

	return nil
}

func legRow(leg arbitrage.Leg) []any {
	point := "-"
	if leg.Point != nil {
		point = fmt.Sprintf("%+g", *leg.Point)
	}
	stake := "-"
	if leg.Stake != nil {
		stake = "$" + stakes.FormatAmount(*leg.Stake)
	}
	book := leg.BookmakerTitle
	if book == "" {
		book = leg.Bookmaker
	}

	return []any{leg.Outcome, point, fmt.Sprintf("%.2f", leg.Odds), book, stake}
}
