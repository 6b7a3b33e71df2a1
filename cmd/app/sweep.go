package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pathtech-academy/internal/infra/logging"
	"pathtech-academy/internal/infra/metrics"
)

func newSweepCommand(flags *rootFlags) *cobra.Command {
	var withReminders bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one expiration sweep and exit (for cron or a k8s CronJob)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd.Context(), flags, withReminders)
		},
	}
	cmd.Flags().BoolVar(&withReminders, "reminders", false, "also send due expiry reminders")
	return cmd
}

func runSweep(parent context.Context, flags *rootFlags, withReminders bool) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	// close stops the job pool, which flushes queued notifications
	defer c.close()
	c.jobs.Start(ctx)

	res, err := c.expiryWorker.RunOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info().
		Int("deactivated", res.DeactivatedCount).
		Int("users", res.UsersReconciled).
		Bool("skipped", res.Skipped).
		Msg("sweep finished")

	if withReminders {
		n, err := c.reminders.SendExpiryReminders(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("sent", n).Msg("reminders finished")
	}
	return nil
}
