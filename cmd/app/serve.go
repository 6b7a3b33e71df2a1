package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pathtech-academy/internal/infra/api"
	pg "pathtech-academy/internal/infra/db/postgres"
	"pathtech-academy/internal/infra/logging"
	"pathtech-academy/internal/infra/metrics"
)

func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the expiry and reminder workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(parent context.Context, flags *rootFlags) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(ctx, c.pool, "up"); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	srv := api.NewServer(api.Deps{
		Gateway:  c.gateway,
		Payments: c.payments,
		Receipts: c.receipts,
		Sweeper:  c.sweeper,
		Sweep:    c.expiryWorker,
		Verifier: api.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Health:   c.health,
	}, api.Options{
		Port:            cfg.HTTP.Port,
		RequestTimeout:  cfg.HTTP.RequestTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		ReceiptMaxBytes: cfg.Storage.MaxBytes,
	}, logger)

	// detached so queued notifications still flush during shutdown
	c.jobs.Start(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return ignoreCanceled(c.expiryWorker.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(c.reminderWorker.Run(gctx)) })
	g.Go(func() error {
		pg.ReportPoolStats(gctx, c.pool, 15*time.Second, logger)
		return nil
	})

	err = g.Wait()
	logger.Info().Msg("shutdown complete")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
