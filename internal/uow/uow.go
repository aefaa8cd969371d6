package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	postgres "github.com/kirinyoku/tixmint/internal/repository/postgres"
	"github.com/kirinyoku/tixmint/internal/sale"
)

const defaultAttempts = 3

// UoW runs sale units of work inside postgres transactions.
type UoW struct {
	store    *postgres.Store
	attempts int
}

var _ sale.Store = (*UoW)(nil)

func NewUoW(store *postgres.Store) *UoW {
	return &UoW{store: store, attempts: defaultAttempts}
}

// Atomic runs fn in a serializable transaction. Serialization failures and
// deadlocks restart fn from scratch on a fresh transaction.
func (u *UoW) Atomic(ctx context.Context, fn func(ctx context.Context, tx sale.Tx) error) error {
	return u.DoWithOpts(ctx, nil, fn)
}

// View runs fn in a read-only snapshot.
func (u *UoW) View(ctx context.Context, fn func(ctx context.Context, tx sale.Tx) error) error {
	return u.DoWithOpts(ctx, &pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, fn)
}

func (u *UoW) DoWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx sale.Tx) error,
) error {
	var err error

	for attempt := 0; attempt < u.attempts; attempt++ {
		err = u.store.RunTx(ctx, opts, func(ctx context.Context, db postgres.DB) error {
			return fn(ctx, bound{store: u.store, db: db})
		})
		if err == nil || !postgres.IsRetryable(err) {
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return err
}

type bound struct {
	store *postgres.Store
	db    postgres.DB
}

func (b bound) Ledger() sale.Ledger     { return b.store.Ledger().With(b.db) }
func (b bound) Registry() sale.Registry { return b.store.Registry().With(b.db) }
func (b bound) Journal() sale.Journal   { return b.store.Journal().With(b.db) }
