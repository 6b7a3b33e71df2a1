package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/usecase"
)

type ReminderWorker struct {
	interval  time.Duration
	reminders usecase.ReminderService
	log       *zerolog.Logger
}

func NewReminderWorker(interval time.Duration, reminders usecase.ReminderService, logger *zerolog.Logger) *ReminderWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	compLog := logger.With().Str("component", "ReminderWorker").Logger()
	return &ReminderWorker{
		interval:  interval,
		reminders: reminders,
		log:       &compLog,
	}
}

func (w *ReminderWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting reminder worker")
	// Run once on startup, then on every tick
	w.runCheck(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reminder worker")
			return ctx.Err()
		case <-ticker.C:
			w.runCheck(ctx)
		}
	}
}

func (w *ReminderWorker) runCheck(ctx context.Context) {
	// bounded so a stuck notifier cannot stall the next tick
	runCtx, cancel := context.WithTimeout(ctx, w.interval)
	defer cancel()
	sent, err := w.reminders.SendExpiryReminders(runCtx)
	if err != nil {
		w.log.Error().Err(err).Msg("reminder check failed")
	}
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("expiry reminders sent")
	}
}
