package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"pathtech-academy/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationLogRepo(pool *pgxpool.Pool) repository.NotificationLogRepository {
	return &notificationLogRepo{pool: pool}
}

func (r *notificationLogRepo) Save(ctx context.Context, tx repository.Tx, recordID, userID, kind string, thresholdDays int) error {
	// The UNIQUE (access_record_id, kind, threshold_days) constraint rejects duplicates.
	const q = `
INSERT INTO access_reminders (id, access_record_id, user_id, kind, threshold_days)
VALUES ($1, $2, $3, $4, $5)`

	_, err := execSQL(ctx, r.pool, tx, q, uuid.NewString(), recordID, userID, kind, thresholdDays)
	return err
}

func (r *notificationLogRepo) Exists(ctx context.Context, tx repository.Tx, recordID, kind string, thresholdDays int) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM access_reminders
    WHERE access_record_id = $1 AND kind = $2 AND threshold_days = $3
)`
	row, err := pickRow(ctx, r.pool, tx, q, recordID, kind, thresholdDays)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, scanErr(err)
	}
	return exists, nil
}
