package memory

import (
	"context"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
)

type registry tx

func (r *registry) NextID(context.Context) (uint64, error) {
	if r.lastID >= r.s.ticketCap {
		return 0, sale.ErrSoldOut
	}

	return r.lastID + 1, nil
}

func (r *registry) CommitMint(_ context.Context, id uint64, owner domain.Address) error {
	if owner == "" {
		return sale.ErrInvalidAddress
	}

	if id != r.lastID+1 || id > r.s.ticketCap {
		return sale.ErrOutOfSequence
	}

	r.owners[id] = owner
	r.lastID = id

	return nil
}

func (r *registry) Owner(_ context.Context, id uint64) (domain.Address, bool, error) {
	if id == 0 || id > r.lastID {
		return "", false, nil
	}

	if owner, ok := r.owners[id]; ok {
		return owner, true, nil
	}

	owner, ok := r.s.owners[id]

	return owner, ok, nil
}

func (r *registry) LastTokenID(context.Context) (uint64, error) {
	return r.lastID, nil
}

func (r *registry) TransferOwnership(ctx context.Context, id uint64, requester, newOwner domain.Address) error {
	owner, ok, _ := r.Owner(ctx, id)
	if !ok {
		return sale.ErrNotFound
	}

	if requester != owner {
		return sale.ErrNotOwner
	}

	if newOwner == "" {
		return sale.ErrInvalidAddress
	}

	r.owners[id] = newOwner

	return nil
}
