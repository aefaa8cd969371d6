package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/repository"
	"github.com/kirinyoku/tixmint/internal/sale"
)

// RegistryRepo keeps the ticket counter in the single sale_counter row and
// ownership in tickets. Writes must run inside a transaction (see With).
type RegistryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

var _ sale.Registry = (*RegistryRepo)(nil)

func (r *RegistryRepo) With(db DB) *RegistryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *RegistryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// NextID locks the counter row and returns the id the next mint will get.
//
// Returns:
//   - error: sale.ErrSoldOut if last_token_id already equals the cap.
//   - error: repository.ErrNotFound if the sale was never initialised.
func (r *RegistryRepo) NextID(ctx context.Context) (uint64, error) {
	const op = "postgres.RegistryRepo.NextID"

	var last, ticketCap int64
	err := r.handle().QueryRow(ctx,
		`SELECT last_token_id, ticket_cap
		 FROM sale_counter
		 WHERE id = 1
		 FOR UPDATE`,
	).Scan(&last, &ticketCap)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if last >= ticketCap {
		return 0, fmt.Errorf("%s:%w", op, sale.ErrSoldOut)
	}

	return fromDB(last) + 1, nil
}

// CommitMint advances the counter to id and records owner.
//
// Returns:
//   - error: sale.ErrOutOfSequence if id is not last_token_id+1 or exceeds the cap.
func (r *RegistryRepo) CommitMint(ctx context.Context, id uint64, owner domain.Address) error {
	const op = "postgres.RegistryRepo.CommitMint"

	if owner == "" {
		return fmt.Errorf("%s:%w", op, sale.ErrInvalidAddress)
	}

	v, err := toDB(id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, sale.ErrOutOfSequence)
	}

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE sale_counter
		 SET last_token_id = $1
		 WHERE id = 1
		   AND last_token_id = $1 - 1
		   AND $1 <= ticket_cap`,
		v,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() != 1 {
		return fmt.Errorf("%s:%w", op, sale.ErrOutOfSequence)
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO tickets(id, owner) VALUES ($1, $2)`,
		v, string(owner),
	); err != nil {
		err = translateDBErr(err)
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%s:%w", op, sale.ErrOutOfSequence)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Owner returns the holder of id; ok is false if id was never minted.
func (r *RegistryRepo) Owner(ctx context.Context, id uint64) (domain.Address, bool, error) {
	const op = "postgres.RegistryRepo.Owner"

	v, err := toDB(id)
	if err != nil {
		return "", false, nil
	}

	var owner string
	err = r.handle().QueryRow(ctx,
		`SELECT owner FROM tickets WHERE id = $1`,
		v,
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return domain.Address(owner), true, nil
}

func (r *RegistryRepo) LastTokenID(ctx context.Context) (uint64, error) {
	const op = "postgres.RegistryRepo.LastTokenID"

	var last int64
	err := r.handle().QueryRow(ctx,
		`SELECT last_token_id FROM sale_counter WHERE id = 1`,
	).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return fromDB(last), nil
}

// TransferOwnership reassigns id to newOwner when requester holds it.
//
// Returns:
//   - error: sale.ErrNotFound if id was never minted.
//   - error: sale.ErrNotOwner if requester is not the current owner.
func (r *RegistryRepo) TransferOwnership(ctx context.Context, id uint64, requester, newOwner domain.Address) error {
	const op = "postgres.RegistryRepo.TransferOwnership"

	if newOwner == "" {
		return fmt.Errorf("%s:%w", op, sale.ErrInvalidAddress)
	}

	v, err := toDB(id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, sale.ErrNotFound)
	}

	db := r.handle()

	var owner string
	err = db.QueryRow(ctx,
		`SELECT owner FROM tickets WHERE id = $1 FOR UPDATE`,
		v,
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s:%w", op, sale.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if domain.Address(owner) != requester {
		return fmt.Errorf("%s:%w", op, sale.ErrNotOwner)
	}

	if _, err := db.Exec(ctx,
		`UPDATE tickets SET owner = $2, updated_at = now() WHERE id = $1`,
		v, string(newOwner),
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
