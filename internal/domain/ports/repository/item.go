package repository

import (
	"context"

	"pathtech-academy/internal/domain/model"
)

// ItemRepository reads the catalog fields the access model needs.
type ItemRepository interface {
	FindByRef(ctx context.Context, tx Tx, ref model.ItemRef) (*model.PurchasableItem, error)
}
