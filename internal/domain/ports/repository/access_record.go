package repository

import (
	"context"
	"time"

	"pathtech-academy/internal/domain/model"
)

// AccessRecordRepository is the port for access grants.
type AccessRecordRepository interface {
	Save(ctx context.Context, tx Tx, r *model.AccessRecord) error
	// FindValid returns the active record for (user, item) with end_date > now and
	// the latest end_date, or domain.ErrNotFound.
	FindValid(ctx context.Context, tx Tx, userID string, item model.ItemRef, now time.Time) (*model.AccessRecord, error)
	// FindLatest returns the record with the latest end_date regardless of validity.
	FindLatest(ctx context.Context, tx Tx, userID string, item model.ItemRef) (*model.AccessRecord, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.AccessRecord, error)
	// FindExpiring lists active records with now < end_date <= now+within, soonest first.
	FindExpiring(ctx context.Context, tx Tx, now time.Time, within time.Duration) ([]*model.AccessRecord, error)
	// DeactivateExpired flips is_active off for active records with end_date < now
	// and returns the rows it changed.
	DeactivateExpired(ctx context.Context, tx Tx, now time.Time) ([]*model.AccessRecord, error)
}
