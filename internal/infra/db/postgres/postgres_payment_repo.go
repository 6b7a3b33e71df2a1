package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, item_kind, item_id, plan_type, amount, currency, receipt_ref, status, admin_notes, processed_by, processed_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := new(model.Payment)
	var kind, plan, status string
	if err := row.Scan(&p.ID, &p.UserID, &kind, &p.Item.ID, &plan, &p.Amount, &p.Currency, &p.ReceiptRef, &status, &p.AdminNotes, &p.ProcessedBy, &p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Item.Kind, err = model.ParseItemKind(kind); err != nil {
		return nil, badColumn("item_kind", err)
	}
	if p.PlanType, err = model.ParsePlanType(plan); err != nil {
		return nil, badColumn("plan_type", err)
	}
	if p.Status, err = model.ParsePaymentStatus(status); err != nil {
		return nil, badColumn("status", err)
	}
	return p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, item_kind, item_id, plan_type, amount, currency, receipt_ref, status, admin_notes, processed_by, processed_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  receipt_ref=$8, status=$9, admin_notes=$10, processed_by=$11, processed_at=$12, updated_at=$14;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, string(p.Item.Kind), p.Item.ID, string(p.PlanType), p.Amount, p.Currency, p.ReceiptRef, string(p.Status), p.AdminNotes, p.ProcessedBy, p.ProcessedAt, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, scanErr(err)
	}
	return p, nil
}

func (r *paymentRepo) SetReceiptIfPending(ctx context.Context, tx repository.Tx, id, receiptRef string, at time.Time) (bool, error) {
	const q = `UPDATE payments SET receipt_ref=$2, updated_at=$3 WHERE id=$1 AND status='pending'`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, receiptRef, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// UpdateStatusIfPending is the compare-and-set that serializes admin decisions:
// of two concurrent callers exactly one sees a changed row.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, ch repository.StatusChange) (bool, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           processed_by = $3,
           processed_at = $4,
           admin_notes = COALESCE($5, admin_notes),
           updated_at = $4
     WHERE id = $1
       AND status = 'pending'`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(ch.Status), ch.ProcessedBy, ch.ProcessedAt, ch.AdminNotes)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *paymentRepo) ListPending(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' ORDER BY created_at DESC LIMIT $1`
	return r.list(ctx, tx, q, limit)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, tx, q, userID)
}

func (r *paymentRepo) HasPending(ctx context.Context, tx repository.Tx, userID string, item model.ItemRef) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM payments
    WHERE user_id = $1 AND item_kind = $2 AND item_id = $3 AND status = 'pending'
)`
	row, err := pickRow(ctx, r.pool, tx, q, userID, string(item.Kind), item.ID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, scanErr(err)
	}
	return exists, nil
}

func (r *paymentRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}
