package usecase

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/domain/ports/repository"
	"pathtech-academy/internal/infra/metrics"
)

// Compile-time check
var _ ReminderService = (*reminderUC)(nil)

const reminderKindExpiring = string(adapter.NotifyAccessExpiring)

type ReminderService interface {
	// SendExpiryReminders reports grants crossing a reminder threshold to the
	// notifier (the admin chats in production) and returns how many were delivered.
	SendExpiryReminders(ctx context.Context) (int, error)
}

type reminderUC struct {
	sweeper    ExpirationSweeper
	logs       repository.NotificationLogRepository
	deliver    func(context.Context, adapter.Notification) error
	clock      adapter.Clock
	thresholds []int
	log        *zerolog.Logger
}

func NewReminderService(
	sweeper ExpirationSweeper,
	logs repository.NotificationLogRepository,
	notifier adapter.Notifier,
	clock adapter.Clock,
	thresholds []int,
	logger *zerolog.Logger,
) *reminderUC {
	if clock == nil {
		clock = adapter.SystemClock()
	}
	ts := make([]int, 0, len(thresholds))
	for _, t := range thresholds {
		if t > 0 {
			ts = append(ts, t)
		}
	}
	if len(ts) == 0 {
		ts = []int{7, 1}
	}
	sort.Ints(ts)
	// Reminders are logged only after delivery; queueing notifiers are bypassed.
	deliver := notifier.Notify
	if d, ok := notifier.(adapter.DirectNotifier); ok {
		deliver = d.Deliver
	}
	l := logger.With().Str("component", "reminders").Logger()
	return &reminderUC{sweeper: sweeper, logs: logs, deliver: deliver, clock: clock, thresholds: ts, log: &l}
}

func (uc *reminderUC) SendExpiryReminders(ctx context.Context) (int, error) {
	widest := uc.thresholds[len(uc.thresholds)-1]
	recs, err := uc.sweeper.ListExpiringSoon(ctx, widest)
	if err != nil {
		return 0, err
	}

	now := uc.clock.Now()
	sent := 0
	for _, rec := range recs {
		days := rec.DaysRemaining(now)
		threshold := uc.thresholdFor(days)
		if threshold == 0 {
			continue
		}
		done, err := uc.logs.Exists(ctx, repository.NoTX, rec.ID, reminderKindExpiring, threshold)
		if err != nil {
			uc.log.Warn().Err(err).Str("record_id", rec.ID).Msg("reminder log lookup failed")
			continue
		}
		if done {
			continue
		}

		n := adapter.Notification{
			Kind:   adapter.NotifyAccessExpiring,
			UserID: rec.UserID,
			Args:   []any{rec.Item.Key(), days, rec.EndDate.Format("2006-01-02")},
		}
		if err := uc.deliver(ctx, n); err != nil {
			uc.log.Warn().Err(err).Str("record_id", rec.ID).Msg("reminder not delivered")
			continue
		}
		if err := uc.logs.Save(ctx, repository.NoTX, rec.ID, rec.UserID, reminderKindExpiring, threshold); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// Another worker got there first.
				continue
			}
			uc.log.Warn().Err(err).Str("record_id", rec.ID).Msg("failed to log reminder")
		}
		sent++
		metrics.IncReminderSent(strconv.Itoa(threshold))
	}

	if sent > 0 {
		uc.log.Info().Int("sent", sent).Msg("expiry reminders sent")
	}
	return sent, nil
}

// thresholdFor picks the tightest threshold days falls under, or 0.
func (uc *reminderUC) thresholdFor(days int) int {
	for _, t := range uc.thresholds {
		if days <= t {
			return t
		}
	}
	return 0
}
