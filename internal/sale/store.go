package sale

import (
	"context"

	"github.com/kirinyoku/tixmint/internal/domain"
)

// Leg is one credit of a batched transfer.
type Leg struct {
	To     domain.Address
	Amount uint64
}

// Ledger moves value between accounts. Every method either applies its whole
// effect or returns an error without touching any balance.
type Ledger interface {
	Balance(ctx context.Context, addr domain.Address) (uint64, error)
	Transfer(ctx context.Context, from, to domain.Address, amount uint64) error
	// TransferPair debits from once for amt1+amt2 and credits to1 and to2.
	// Affordability of the total is checked before anything is applied.
	TransferPair(ctx context.Context, from, to1 domain.Address, amt1 uint64, to2 domain.Address, amt2 uint64) error
}

// Registry allocates ticket ids and tracks ownership.
type Registry interface {
	// NextID returns last_token_id+1, or ErrSoldOut when the cap is reached.
	NextID(ctx context.Context) (uint64, error)
	// CommitMint records owner for id and advances the counter to id.
	// id must equal last_token_id+1.
	CommitMint(ctx context.Context, id uint64, owner domain.Address) error
	Owner(ctx context.Context, id uint64) (domain.Address, bool, error)
	LastTokenID(ctx context.Context) (uint64, error)
	TransferOwnership(ctx context.Context, id uint64, requester, newOwner domain.Address) error
}

type Journal interface {
	Append(ctx context.Context, events ...domain.Event) error
	ByToken(ctx context.Context, tokenID uint64) ([]domain.Event, error)
}

// Tx exposes the components bound to a single atomic unit.
type Tx interface {
	Ledger() Ledger
	Registry() Registry
	Journal() Journal
}

// Store runs fn as one atomic unit: if fn returns an error none of its
// writes are visible afterwards. Units never observe each other's
// intermediate state.
type Store interface {
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
