package repository

import (
	"context"

	"pathtech-academy/internal/domain/model"
)

// UserSummaryRepository stores the denormalized per-user subscription summary.
type UserSummaryRepository interface {
	Get(ctx context.Context, tx Tx, userID string) (*model.UserSubscriptionSummary, error)
	Upsert(ctx context.Context, tx Tx, s *model.UserSubscriptionSummary) error
}
