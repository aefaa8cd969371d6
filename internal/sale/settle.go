package sale

import (
	"context"

	"github.com/kirinyoku/tixmint/internal/domain"
)

// BalanceFunc reads the current balance of an account; unknown accounts hold zero.
type BalanceFunc func(ctx context.Context, addr domain.Address) (uint64, error)

// Settle computes the balances that result from debiting from by the sum of
// legs and crediting every leg. Nothing is written: the caller applies the
// returned balances as one batch, or drops them on error.
//
// Zero-amount legs are ignored. A leg whose recipient is from nets out.
func Settle(ctx context.Context, balance BalanceFunc, from domain.Address, legs ...Leg) (map[domain.Address]uint64, error) {
	if from == "" {
		return nil, ErrInvalidAddress
	}

	var total uint64
	for _, l := range legs {
		if l.Amount == 0 {
			continue
		}

		if l.To == "" {
			return nil, ErrInvalidAddress
		}

		if total+l.Amount < total {
			return nil, ErrOverflow
		}
		total += l.Amount
	}

	next := make(map[domain.Address]uint64, len(legs)+1)
	if total == 0 {
		return next, nil
	}

	fromBal, err := balance(ctx, from)
	if err != nil {
		return nil, err
	}

	if fromBal < total {
		return nil, ErrInsufficientFunds
	}

	next[from] = fromBal - total

	for _, l := range legs {
		if l.Amount == 0 {
			continue
		}

		cur, ok := next[l.To]
		if !ok {
			cur, err = balance(ctx, l.To)
			if err != nil {
				return nil, err
			}
		}

		if cur+l.Amount < cur {
			return nil, ErrOverflow
		}

		next[l.To] = cur + l.Amount
	}

	return next, nil
}
