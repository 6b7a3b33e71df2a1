package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/infra/metrics"
	"pathtech-academy/internal/usecase"
)

// ExpiryWorker runs the expiration sweep on a fixed interval.
type ExpiryWorker struct {
	interval    time.Duration
	skipStartup bool
	sweeper     usecase.ExpirationSweeper
	log         *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, skipStartup bool, sweeper usecase.ExpirationSweeper, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:    interval,
		skipStartup: skipStartup,
		sweeper:     sweeper,
		log:         &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	if !w.skipStartup {
		w.RunOnce(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and records its outcome.
func (w *ExpiryWorker) RunOnce(ctx context.Context) (usecase.SweepResult, error) {
	res, err := w.sweeper.Sweep(ctx)
	switch {
	case err != nil:
		metrics.IncSweeperRun("error")
		w.log.Error().Err(err).Msg("expiry sweep failed")
	case res.Skipped:
		metrics.IncSweeperRun("skipped")
	default:
		metrics.IncSweeperRun("ok")
		metrics.AddAccessRecordsDeactivated(res.DeactivatedCount)
	}
	return res, err
}
