package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/christopherhenripage/odds-trader/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scanner worker and HTTP server",
	Long: `Starts the scanner, which on every SCAN_INTERVAL will:
1. Fetch odds for the selected sports from the odds provider
2. Detect arbitrages and middles across bookmakers
3. Bundle them per event and drop ones already seen inside DEDUPE_TTL
4. Persist, notify subscribed users and paper-fill auto-fill accounts

The HTTP server exposes /metrics, /health, /ready, /status, /api/bundles,
/api/stakes and the /ws bundle stream.

Use --sports to scan a subset of sports instead of SPORTS.`,
	RunE: runWorker,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSlice("sports", nil, "Sport keys to scan (overrides SPORTS)")
}

func runWorker(cmd *cobra.Command, args []string) error {
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

	application, err := app.New(cfg, logger, &app.Options{Sports: sports})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
