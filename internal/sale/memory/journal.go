package memory

import (
	"context"

	"github.com/kirinyoku/tixmint/internal/domain"
)

type journal tx

func (j *journal) Append(_ context.Context, events ...domain.Event) error {
	j.events = append(j.events, events...)
	return nil
}

func (j *journal) ByToken(_ context.Context, tokenID uint64) ([]domain.Event, error) {
	var out []domain.Event

	for _, list := range [][]domain.Event{j.s.events, j.events} {
		for _, e := range list {
			if e.TokenID == tokenID && e.Kind != domain.EventFundsTransfer {
				out = append(out, e)
			}
		}
	}

	return out, nil
}
