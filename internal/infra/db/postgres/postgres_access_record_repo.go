package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/repository"
)

var _ repository.AccessRecordRepository = (*accessRecordRepo)(nil)

type accessRecordRepo struct{ pool *pgxpool.Pool }

func NewAccessRecordRepo(pool *pgxpool.Pool) *accessRecordRepo {
	return &accessRecordRepo{pool: pool}
}

const accessRecordColumns = `id, user_id, item_kind, item_id, plan_type, start_date, end_date, is_active, payment_id, created_at, updated_at`

func scanAccessRecord(row pgx.Row) (*model.AccessRecord, error) {
	r := new(model.AccessRecord)
	var kind, plan string
	if err := row.Scan(&r.ID, &r.UserID, &kind, &r.Item.ID, &plan, &r.StartDate, &r.EndDate, &r.IsActive, &r.PaymentID, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if r.Item.Kind, err = model.ParseItemKind(kind); err != nil {
		return nil, badColumn("item_kind", err)
	}
	if r.PlanType, err = model.ParsePlanType(plan); err != nil {
		return nil, badColumn("plan_type", err)
	}
	return r, nil
}

func (r *accessRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	const q = `
INSERT INTO access_records (
  id, user_id, item_kind, item_id, plan_type, start_date, end_date, is_active, payment_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
) ON CONFLICT (id) DO UPDATE SET
  is_active=$8, updated_at=$11;`

	_, err := execSQL(ctx, r.pool, tx, q, rec.ID, rec.UserID, string(rec.Item.Kind), rec.Item.ID, string(rec.PlanType), rec.StartDate, rec.EndDate, rec.IsActive, rec.PaymentID, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *accessRecordRepo) FindValid(ctx context.Context, tx repository.Tx, userID string, item model.ItemRef, now time.Time) (*model.AccessRecord, error) {
	const q = `SELECT ` + accessRecordColumns + ` FROM access_records
WHERE user_id=$1 AND item_kind=$2 AND item_id=$3 AND is_active AND end_date > $4
ORDER BY end_date DESC LIMIT 1`
	return r.one(ctx, tx, q, userID, string(item.Kind), item.ID, now)
}

func (r *accessRecordRepo) FindLatest(ctx context.Context, tx repository.Tx, userID string, item model.ItemRef) (*model.AccessRecord, error) {
	const q = `SELECT ` + accessRecordColumns + ` FROM access_records
WHERE user_id=$1 AND item_kind=$2 AND item_id=$3
ORDER BY end_date DESC LIMIT 1`
	return r.one(ctx, tx, q, userID, string(item.Kind), item.ID)
}

func (r *accessRecordRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.AccessRecord, error) {
	const q = `SELECT ` + accessRecordColumns + ` FROM access_records WHERE user_id=$1 ORDER BY end_date DESC`
	return r.list(ctx, tx, q, userID)
}

func (r *accessRecordRepo) FindExpiring(ctx context.Context, tx repository.Tx, now time.Time, within time.Duration) ([]*model.AccessRecord, error) {
	const q = `SELECT ` + accessRecordColumns + ` FROM access_records
WHERE is_active AND end_date > $1 AND end_date <= $2
ORDER BY end_date ASC`
	return r.list(ctx, tx, q, now, now.Add(within))
}

// DeactivateExpired flips every overdue grant in one statement, so a failure
// leaves nothing half-applied.
func (r *accessRecordRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.AccessRecord, error) {
	const q = `UPDATE access_records SET is_active = FALSE, updated_at = $1
WHERE is_active AND end_date < $1
RETURNING ` + accessRecordColumns
	return r.list(ctx, tx, q, now)
}

func (r *accessRecordRepo) one(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.AccessRecord, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	rec, err := scanAccessRecord(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return rec, nil
}

func (r *accessRecordRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.AccessRecord, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AccessRecord
	for rows.Next() {
		rec, err := scanAccessRecord(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
