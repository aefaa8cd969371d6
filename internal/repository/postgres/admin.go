package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/repository"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		address    TEXT PRIMARY KEY,
		balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sale_counter (
		id            SMALLINT PRIMARY KEY CHECK (id = 1),
		ticket_cap    BIGINT NOT NULL CHECK (ticket_cap > 0),
		last_token_id BIGINT NOT NULL DEFAULT 0,
		CHECK (last_token_id >= 0 AND last_token_id <= ticket_cap)
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id         BIGINT PRIMARY KEY CHECK (id > 0),
		owner      TEXT NOT NULL,
		minted_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS sale_events (
		seq        BIGSERIAL PRIMARY KEY,
		id         UUID NOT NULL UNIQUE,
		kind       TEXT NOT NULL,
		token_id   BIGINT,
		from_addr  TEXT,
		to_addr    TEXT,
		amount     BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sale_events_token_idx ON sale_events (token_id, seq)`,
}

type AdminRepo struct {
	pool      *pgxpool.Pool
	ticketCap uint64
}

// Migrate creates the schema and the counter row. The cap is fixed by the
// first run; a later run with a different cap fails.
//
// Returns:
//   - error: repository.ErrCapMismatch if the stored cap differs.
func (r *AdminRepo) Migrate(ctx context.Context) error {
	const op = "postgres.AdminRepo.Migrate"

	ticketCap, err := toDB(r.ticketCap)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	for _, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO sale_counter(id, ticket_cap) VALUES (1, $1)
		 ON CONFLICT (id) DO NOTHING`,
		ticketCap,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	var stored int64
	if err := tx.QueryRow(ctx,
		`SELECT ticket_cap FROM sale_counter WHERE id = 1`,
	).Scan(&stored); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if stored != ticketCap {
		return fmt.Errorf("%s: stored %d, configured %d:%w", op, stored, ticketCap, repository.ErrCapMismatch)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// SeedGenesis creates accounts with their opening balances. Accounts that
// already exist keep their balance, so seeding is applied once.
func (r *AdminRepo) SeedGenesis(ctx context.Context, balances map[domain.Address]uint64) error {
	const op = "postgres.AdminRepo.SeedGenesis"

	if len(balances) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for addr, amt := range balances {
		v, err := toDB(amt)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		batch.Queue(
			`INSERT INTO accounts(address, balance) VALUES ($1, $2)
			 ON CONFLICT (address) DO NOTHING`,
			string(addr), v,
		)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
