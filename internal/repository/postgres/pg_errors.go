package postgres

import (
	"errors"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kirinyoku/tixmint/internal/repository"
	"github.com/kirinyoku/tixmint/internal/sale"
)

// IsRetryable reports serialization failures and deadlocks, which are safe
// to retry as a whole transaction.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}

	return false
}

func translateDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch pge.Code {
		// unique_violation
		case "23505":
			return repository.ErrConflict
		// check_violation
		case "23514":
			return repository.ErrConstraint
		}
	}

	return err
}

// amounts are stored as BIGINT
func toDB(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, sale.ErrOverflow
	}

	return int64(v), nil
}

func fromDB(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}
