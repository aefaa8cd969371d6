package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
)

type JournalRepo struct {
	pool *pgxpool.Pool
	db   DB
}

var _ sale.Journal = (*JournalRepo)(nil)

func (r *JournalRepo) With(db DB) *JournalRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *JournalRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Append stores events in order.
func (r *JournalRepo) Append(ctx context.Context, events ...domain.Event) error {
	const op = "postgres.JournalRepo.Append"

	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		var tokenID *int64
		if e.Kind != domain.EventFundsTransfer {
			v, err := toDB(e.TokenID)
			if err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
			tokenID = &v
		}

		amount, err := toDB(e.Amount)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		batch.Queue(
			`INSERT INTO sale_events(id, kind, token_id, from_addr, to_addr, amount, created_at)
			 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)`,
			e.ID, string(e.Kind), tokenID, string(e.From), string(e.To), amount, e.CreatedAt,
		)
	}

	if err := r.handle().SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// ByToken lists the ticket events of tokenID, oldest first.
func (r *JournalRepo) ByToken(ctx context.Context, tokenID uint64) ([]domain.Event, error) {
	const op = "postgres.JournalRepo.ByToken"

	v, err := toDB(tokenID)
	if err != nil {
		return nil, nil
	}

	rows, err := r.handle().Query(ctx,
		`SELECT id, kind, token_id, COALESCE(from_addr, ''), COALESCE(to_addr, ''), amount, created_at
		 FROM sale_events
		 WHERE token_id = $1
		 ORDER BY seq`,
		v,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var (
			id       uuid.UUID
			kind     string
			token    int64
			from, to string
			amount   int64
			e        domain.Event
		)

		if err := rows.Scan(&id, &kind, &token, &from, &to, &amount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		e.ID = id
		e.Kind = domain.EventKind(kind)
		e.TokenID = fromDB(token)
		e.From = domain.Address(from)
		e.To = domain.Address(to)
		e.Amount = fromDB(amount)

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
