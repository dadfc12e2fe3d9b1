package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/skillhub/internal/config"
	"github.com/terra-clan/skillhub/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	setupLogging(config.LoadLogLevel())

	db := config.LoadDatabase()
	if !db.Enabled() {
		return errors.New("DATABASE_DSN is required to run migrations")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	applied, err := storage.MigrateFromDSN(ctx, db.DSN, db.MigrationsDir)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("migrations complete", "dir", db.MigrationsDir, "applied", applied)
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
	return nil
}
