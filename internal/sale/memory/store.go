// Package memory keeps sale state in process. A single mutex serializes
// units of work; writes are staged in an overlay and merged only when the
// unit succeeds.
package memory

import (
	"context"
	"sync"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
)

type Store struct {
	mu        sync.Mutex
	ticketCap uint64
	balances  map[domain.Address]uint64
	owners    map[uint64]domain.Address
	lastID    uint64
	events    []domain.Event
}

var _ sale.Store = (*Store)(nil)

func NewStore(ticketCap uint64) *Store {
	return &Store{
		ticketCap: ticketCap,
		balances:  make(map[domain.Address]uint64),
		owners:    make(map[uint64]domain.Address),
	}
}

// Seed credits genesis balances. It fails on overflow without applying any credit.
func (s *Store) Seed(balances map[domain.Address]uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[domain.Address]uint64, len(balances))
	for addr, amt := range balances {
		if addr == "" {
			return sale.ErrInvalidAddress
		}

		cur := s.balances[addr]
		if cur+amt < cur {
			return sale.ErrOverflow
		}
		next[addr] = cur + amt
	}

	for addr, bal := range next {
		s.balances[addr] = bal
	}

	return nil
}

func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, tx sale.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	t := newTx(s)
	if err := fn(ctx, t); err != nil {
		return err
	}

	t.commit()

	return nil
}

// View runs fn against a throwaway overlay; anything it writes is dropped.
func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx sale.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	return fn(ctx, newTx(s))
}

type tx struct {
	s        *Store
	balances map[domain.Address]uint64
	owners   map[uint64]domain.Address
	lastID   uint64
	events   []domain.Event
}

func newTx(s *Store) *tx {
	return &tx{
		s:        s,
		balances: make(map[domain.Address]uint64),
		owners:   make(map[uint64]domain.Address),
		lastID:   s.lastID,
	}
}

func (t *tx) Ledger() sale.Ledger     { return (*ledger)(t) }
func (t *tx) Registry() sale.Registry { return (*registry)(t) }
func (t *tx) Journal() sale.Journal   { return (*journal)(t) }

func (t *tx) commit() {
	for addr, bal := range t.balances {
		t.s.balances[addr] = bal
	}

	for id, owner := range t.owners {
		t.s.owners[id] = owner
	}

	t.s.lastID = t.lastID
	t.s.events = append(t.s.events, t.events...)
}
