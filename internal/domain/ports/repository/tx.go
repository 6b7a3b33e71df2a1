package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and hands the
// transaction to fn as `tx`. Repository methods accept that handle, or NoTX
// for the non-transactional path.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		ok, err := payments.UpdateStatusIfPending(ctx, tx, ...)
//		...
//		return records.Save(ctx, tx, rec)
//	})
//
// Returning an error from fn rolls everything back.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
