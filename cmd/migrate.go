package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/christopherhenripage/odds-trader/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema",
	Long:  `Creates the tables used by STORAGE_MODE=postgres. Safe to run repeatedly.`,
	RunE:  runMigrate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, err := app.NewPostgresStorage(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	err = store.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger.Info("schema-migrated",
		zap.String("host", cfg.PostgresHost),
		zap.String("database", cfg.PostgresDB))
	return nil
}
