package memory

import (
	"context"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
)

type ledger tx

func (l *ledger) Balance(_ context.Context, addr domain.Address) (uint64, error) {
	if bal, ok := l.balances[addr]; ok {
		return bal, nil
	}

	return l.s.balances[addr], nil
}

func (l *ledger) Transfer(ctx context.Context, from, to domain.Address, amount uint64) error {
	return l.apply(ctx, from, sale.Leg{To: to, Amount: amount})
}

func (l *ledger) TransferPair(
	ctx context.Context,
	from, to1 domain.Address, amt1 uint64,
	to2 domain.Address, amt2 uint64,
) error {
	return l.apply(ctx, from, sale.Leg{To: to1, Amount: amt1}, sale.Leg{To: to2, Amount: amt2})
}

func (l *ledger) apply(ctx context.Context, from domain.Address, legs ...sale.Leg) error {
	next, err := sale.Settle(ctx, l.Balance, from, legs...)
	if err != nil {
		return err
	}

	for addr, bal := range next {
		l.balances[addr] = bal
	}

	return nil
}
