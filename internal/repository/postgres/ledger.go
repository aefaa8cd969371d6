package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
)

type LedgerRepo struct {
	pool *pgxpool.Pool
	db   DB
}

var _ sale.Ledger = (*LedgerRepo)(nil)

func (r *LedgerRepo) With(db DB) *LedgerRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *LedgerRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Balance returns the balance of addr. Unknown accounts hold zero.
func (r *LedgerRepo) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	const op = "postgres.LedgerRepo.Balance"

	bal, err := readBalance(ctx, r.handle(), addr)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return bal, nil
}

// Transfer moves amount from one account to another.
//
// Returns:
//   - error: sale.ErrInsufficientFunds if from cannot cover amount.
//   - error: sale.ErrOverflow if the credit does not fit.
func (r *LedgerRepo) Transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	const op = "postgres.LedgerRepo.Transfer"

	if err := r.run(ctx, from, sale.Leg{To: to, Amount: amount}); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// TransferPair debits from once for amt1+amt2 and credits both recipients.
// Affordability is validated for the total before any row is written.
//
// Returns:
//   - error: sale.ErrInsufficientFunds if from cannot cover amt1+amt2.
//   - error: sale.ErrOverflow if a credit does not fit.
func (r *LedgerRepo) TransferPair(
	ctx context.Context,
	from, to1 domain.Address, amt1 uint64,
	to2 domain.Address, amt2 uint64,
) error {
	const op = "postgres.LedgerRepo.TransferPair"

	legs := []sale.Leg{{To: to1, Amount: amt1}, {To: to2, Amount: amt2}}
	if err := r.run(ctx, from, legs...); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (r *LedgerRepo) run(ctx context.Context, from domain.Address, legs ...sale.Leg) error {
	if r.db != nil {
		return r.applyCore(ctx, r.db, from, legs...)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return translateDBErr(err)
	}

	defer tx.Rollback(ctx)

	if err := r.applyCore(ctx, tx, from, legs...); err != nil {
		return err
	}

	return translateDBErr(tx.Commit(ctx))
}

func (r *LedgerRepo) applyCore(ctx context.Context, db DB, from domain.Address, legs ...sale.Leg) error {
	const op = "postgres.LedgerRepo.applyCore"

	// lock every touched row in a stable order
	addrs := []string{string(from)}
	for _, l := range legs {
		addrs = append(addrs, string(l.To))
	}
	sort.Strings(addrs)

	rows, err := db.Query(ctx,
		`SELECT address FROM accounts
		 WHERE address = ANY($1)
		 ORDER BY address
		 FOR UPDATE`,
		addrs,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	next, err := sale.Settle(ctx, func(ctx context.Context, addr domain.Address) (uint64, error) {
		return readBalance(ctx, db, addr)
	}, from, legs...)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if len(next) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for addr, bal := range next {
		v, err := toDB(bal)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		batch.Queue(
			`INSERT INTO accounts(address, balance)
			 VALUES ($1, $2)
			 ON CONFLICT (address) DO UPDATE
			 SET balance = EXCLUDED.balance, updated_at = now()`,
			string(addr), v,
		)
	}

	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func readBalance(ctx context.Context, db DB, addr domain.Address) (uint64, error) {
	var bal int64
	err := db.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE address = $1`,
		string(addr),
	).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, translateDBErr(err)
	}

	return fromDB(bal), nil
}
