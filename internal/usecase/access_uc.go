package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/adapter"
	"pathtech-academy/internal/domain/ports/repository"
	"pathtech-academy/internal/infra/metrics"
)

// Compile-time check
var _ AccessEvaluator = (*accessUC)(nil)

// AccessEvaluator answers whether a user may open an item. It is fail-closed:
// any doubt yields a denial, never an error.
type AccessEvaluator interface {
	Evaluate(ctx context.Context, userID string, item *model.PurchasableItem) model.AccessDecision
	// EvaluateRef resolves ref through the catalog first.
	EvaluateRef(ctx context.Context, userID string, ref model.ItemRef) model.AccessDecision
	// Decide is EvaluateRef that also reports the store error behind a forced denial.
	// The decision is always usable.
	Decide(ctx context.Context, userID string, ref model.ItemRef) (model.AccessDecision, error)
}

type accessUC struct {
	records repository.AccessRecordRepository
	items   repository.ItemRepository
	clock   adapter.Clock
	timeout time.Duration
	log     *zerolog.Logger
}

func NewAccessEvaluator(
	records repository.AccessRecordRepository,
	items repository.ItemRepository,
	clock adapter.Clock,
	timeout time.Duration,
	logger *zerolog.Logger,
) *accessUC {
	if clock == nil {
		clock = adapter.SystemClock()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	l := logger.With().Str("component", "access_evaluator").Logger()
	return &accessUC{records: records, items: items, clock: clock, timeout: timeout, log: &l}
}

func (uc *accessUC) Evaluate(ctx context.Context, userID string, item *model.PurchasableItem) model.AccessDecision {
	start := time.Now()
	var ref model.ItemRef
	if item != nil {
		ref = item.Ref
	}
	d, err := uc.evaluate(ctx, userID, item)
	uc.observe(userID, ref, d, err, start)
	return d
}

func (uc *accessUC) EvaluateRef(ctx context.Context, userID string, ref model.ItemRef) model.AccessDecision {
	d, _ := uc.Decide(ctx, userID, ref)
	return d
}

func (uc *accessUC) Decide(ctx context.Context, userID string, ref model.ItemRef) (model.AccessDecision, error) {
	start := time.Now()
	if err := ref.Validate(); err != nil {
		uc.observe(userID, ref, model.NoAccess(), err, start)
		return model.NoAccess(), err
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	item, err := uc.items.FindByRef(ctx, repository.NoTX, ref)
	if err != nil {
		uc.observe(userID, ref, model.NoAccess(), err, start)
		return model.NoAccess(), err
	}
	d, err := uc.evaluate(ctx, userID, item)
	uc.observe(userID, ref, d, err, start)
	return d, err
}

func (uc *accessUC) evaluate(ctx context.Context, userID string, item *model.PurchasableItem) (model.AccessDecision, error) {
	if item == nil {
		return model.NoAccess(), domain.ErrInvalidArgument
	}
	if item.IsFree {
		return model.FreeAccess(), nil
	}
	if userID == "" {
		return model.NoAccess(), nil
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	now := uc.clock.Now()
	rec, err := uc.records.FindValid(ctx, repository.NoTX, userID, item.Ref, now)
	if err == nil {
		return model.DecisionFromRecord(rec, now), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return model.NoAccess(), err
	}

	// No valid grant: tell a lapsed purchase apart from one that never happened.
	last, err := uc.records.FindLatest(ctx, repository.NoTX, userID, item.Ref)
	switch {
	case err == nil:
		return model.DecisionFromRecord(last, now), nil
	case errors.Is(err, domain.ErrNotFound):
		return model.NoAccess(), nil
	default:
		return model.NoAccess(), err
	}
}

func (uc *accessUC) observe(userID string, ref model.ItemRef, d model.AccessDecision, err error, start time.Time) {
	result := string(d.AccessType)
	if err != nil {
		result = "error"
		uc.log.Warn().Err(err).
			Str("user_id", userID).
			Str("item", ref.Key()).
			Msg("access evaluation failed closed")
	}
	metrics.ObserveAccessEvaluation(result, time.Since(start).Seconds())
}
