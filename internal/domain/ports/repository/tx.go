package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn inside a single storage transaction and passes the
// backend's handle through tx.
//
// Repositories detect the handle on their side: the Postgres backend receives a pgx.Tx and
// uses it for SELECT ... FOR UPDATE and tx-bound writes, the in-memory backend receives its
// own journal handle. Repository methods MUST accept NoTX (nil) as the non-transactional path.
//
// If fn returns an error nothing it wrote is visible afterwards.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

// Serializable is the isolation used by every mutating ledger operation.
var Serializable = pgx.TxOptions{IsoLevel: pgx.Serializable}

// ReadCommitted is used by writes that bump a single counter row. The row lock taken by
// UPDATE ... RETURNING orders concurrent writers, which then wait instead of failing.
var ReadCommitted = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
