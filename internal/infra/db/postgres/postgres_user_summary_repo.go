package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/repository"
)

var _ repository.UserSummaryRepository = (*userSummaryRepo)(nil)

type userSummaryRepo struct{ pool *pgxpool.Pool }

func NewUserSummaryRepo(pool *pgxpool.Pool) *userSummaryRepo {
	return &userSummaryRepo{pool: pool}
}

func scanSummary(row pgx.Row) (*model.UserSubscriptionSummary, error) {
	s := new(model.UserSubscriptionSummary)
	var status string
	if err := row.Scan(&s.UserID, &status, &s.StartDate, &s.EndDate, &s.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if s.Status, err = model.ParseSubscriptionStatus(status); err != nil {
		return nil, badColumn("status", err)
	}
	return s, nil
}

func (r *userSummaryRepo) Get(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscriptionSummary, error) {
	const q = `SELECT user_id, status, start_date, end_date, updated_at FROM user_subscription_summaries WHERE user_id=$1`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	s, err := scanSummary(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return s, nil
}

func (r *userSummaryRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.UserSubscriptionSummary) error {
	const q = `
INSERT INTO user_subscription_summaries (user_id, status, start_date, end_date, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET
  status=$2, start_date=$3, end_date=$4, updated_at=$5`
	_, err := execSQL(ctx, r.pool, tx, q, s.UserID, string(s.Status), s.StartDate, s.EndDate, s.UpdatedAt)
	return err
}
