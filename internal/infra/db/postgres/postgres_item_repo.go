package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"pathtech-academy/internal/domain"
	"pathtech-academy/internal/domain/model"
	"pathtech-academy/internal/domain/ports/repository"
)

var _ repository.ItemRepository = (*itemRepo)(nil)

// itemRepo reads courses and course packs; the kind picks the table.
type itemRepo struct{ pool *pgxpool.Pool }

func NewItemRepo(pool *pgxpool.Pool) *itemRepo {
	return &itemRepo{pool: pool}
}

func (r *itemRepo) FindByRef(ctx context.Context, tx repository.Tx, ref model.ItemRef) (*model.PurchasableItem, error) {
	var q string
	switch ref.Kind {
	case model.ItemKindCourse:
		q = `SELECT id, title, is_free, monthly_price, yearly_price, currency FROM courses WHERE id=$1`
	case model.ItemKindPack:
		q = `SELECT id, title, is_free, monthly_price, yearly_price, currency FROM course_packs WHERE id=$1`
	default:
		return nil, domain.ErrInvalidArgument
	}
	row, err := pickRow(ctx, r.pool, tx, q, ref.ID)
	if err != nil {
		return nil, err
	}
	it := &model.PurchasableItem{Ref: model.ItemRef{Kind: ref.Kind}}
	if err := row.Scan(&it.Ref.ID, &it.Title, &it.IsFree, &it.MonthlyPrice, &it.YearlyPrice, &it.Currency); err != nil {
		return nil, scanErr(err)
	}
	return it, nil
}
