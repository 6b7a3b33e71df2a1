package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/domain/ports/repository"
)

const sweeperLockKey = "lock:expiration_sweeper"

// Compile-time check
var _ ExpirationSweeper = (*expiryUC)(nil)

// SweepResult reports one sweep. Skipped is set when another worker held the lock.
type SweepResult struct {
	DeactivatedCount int
	UsersReconciled  int
	Skipped          bool
}

// ExpirationSweeper deactivates lapsed grants and keeps user summaries in line
// with the access records.
type ExpirationSweeper interface {
	Sweep(ctx context.Context) (SweepResult, error)
	// ListExpiringSoon returns active grants ending within windowDays, soonest first.
	ListExpiringSoon(ctx context.Context, windowDays int) ([]*model.AccessRecord, error)
	RebuildSummary(ctx context.Context, userID string) (*model.UserSubscriptionSummary, error)
}

type expiryUC struct {
	records    repository.AccessRecordRepository
	summaries  repository.UserSummaryRepository
	tm         repository.TransactionManager
	locker     adapter.Locker // nil runs without cross-replica exclusion
	notifier   adapter.Notifier
	clock      adapter.Clock
	lockTTL    time.Duration
	windowDays int
	log        *zerolog.Logger
}

func NewExpirationSweeper(
	records repository.AccessRecordRepository,
	summaries repository.UserSummaryRepository,
	tm repository.TransactionManager,
	locker adapter.Locker,
	notifier adapter.Notifier,
	clock adapter.Clock,
	lockTTL time.Duration,
	windowDays int,
	logger *zerolog.Logger,
) *expiryUC {
	if clock == nil {
		clock = adapter.SystemClock()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	if windowDays <= 0 {
		windowDays = 7
	}
	l := logger.With().Str("component", "expiration_sweeper").Logger()
	return &expiryUC{
		records:    records,
		summaries:  summaries,
		tm:         tm,
		locker:     locker,
		notifier:   notifier,
		clock:      clock,
		lockTTL:    lockTTL,
		windowDays: windowDays,
		log:        &l,
	}
}

func (uc *expiryUC) Sweep(ctx context.Context) (SweepResult, error) {
	if uc.locker != nil {
		token, err := uc.locker.TryLock(ctx, sweeperLockKey, uc.lockTTL)
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			uc.log.Info().Msg("sweep skipped: another worker holds the lock")
			return SweepResult{Skipped: true}, nil
		case err != nil:
			// Deactivation is idempotent, so running unlocked is safe.
			uc.log.Warn().Err(err).Msg("sweeper lock unavailable; sweeping without it")
		default:
			defer func() {
				if err := uc.locker.Unlock(context.Background(), sweeperLockKey, token); err != nil {
					uc.log.Warn().Err(err).Msg("failed to release sweeper lock")
				}
			}()
		}
	}

	var res SweepResult
	now := uc.clock.Now()
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		changed, err := uc.records.DeactivateExpired(ctx, tx, now)
		if err != nil {
			return err
		}
		users := distinctUsers(changed)
		for _, userID := range users {
			if err := uc.rebuild(ctx, tx, userID, now); err != nil {
				return err
			}
		}
		res = SweepResult{DeactivatedCount: len(changed), UsersReconciled: len(users)}
		return nil
	})
	if err != nil {
		uc.log.Error().Err(err).Msg("sweep rolled back")
		return SweepResult{}, err
	}

	uc.log.Info().
		Int("deactivated", res.DeactivatedCount).
		Int("users", res.UsersReconciled).
		Msg("expiration sweep completed")
	if res.DeactivatedCount > 0 && uc.notifier != nil {
		n := adapter.Notification{
			Kind: adapter.NotifySweepCompleted,
			Args: []any{res.DeactivatedCount, res.UsersReconciled},
		}
		if err := uc.notifier.Notify(ctx, n); err != nil {
			uc.log.Warn().Err(err).Msg("sweep notification failed")
		}
	}
	return res, nil
}

func (uc *expiryUC) ListExpiringSoon(ctx context.Context, windowDays int) ([]*model.AccessRecord, error) {
	if windowDays <= 0 {
		windowDays = uc.windowDays
	}
	return uc.records.FindExpiring(ctx, repository.NoTX, uc.clock.Now(), time.Duration(windowDays)*24*time.Hour)
}

func (uc *expiryUC) RebuildSummary(ctx context.Context, userID string) (*model.UserSubscriptionSummary, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if err := uc.rebuild(ctx, repository.NoTX, userID, uc.clock.Now()); err != nil {
		return nil, err
	}
	return uc.summaries.Get(ctx, repository.NoTX, userID)
}

func (uc *expiryUC) rebuild(ctx context.Context, tx repository.Tx, userID string, now time.Time) error {
	recs, err := uc.records.ListByUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	return uc.summaries.Upsert(ctx, tx, model.DeriveSummary(userID, recs, now))
}

func distinctUsers(recs []*model.AccessRecord) []string {
	set := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		set[r.UserID] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
