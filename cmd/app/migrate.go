package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	pg "pathtech-academy/internal/infra/db/postgres"
	"pathtech-academy/internal/infra/logging"
)

func newMigrateCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}
	for _, sub := range []struct{ name, short string }{
		{"up", "Apply all pending migrations"},
		{"down", "Roll back the latest migration"},
		{"status", "Show migration status"},
		{"redo", "Roll back and re-apply the latest migration"},
		{"version", "Print the current schema version"},
	} {
		name := sub.name
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), flags, name)
			},
		})
	}
	return cmd
}

func runMigrate(ctx context.Context, flags *rootFlags, command string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, command); err != nil {
		return err
	}
	logger.Info().Str("command", command).Msg("migrate done")
	return nil
}
