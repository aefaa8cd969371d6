package memory_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
	"github.com/kirinyoku/tixmint/internal/sale/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice domain.Address = "alice"
	bob   domain.Address = "bob"
	carol domain.Address = "carol"
)

func balanceOf(t *testing.T, s *memory.Store, addr domain.Address) uint64 {
	t.Helper()

	var bal uint64
	err := s.View(context.Background(), func(ctx context.Context, tx sale.Tx) error {
		var err error
		bal, err = tx.Ledger().Balance(ctx, addr)
		return err
	})
	require.NoError(t, err)

	return bal
}

func TestAtomic_FailedUnitLeavesNoTrace(t *testing.T) {
	s := memory.NewStore(10)
	require.NoError(t, s.Seed(map[domain.Address]uint64{alice: 100}))

	boom := errors.New("boom")
	err := s.Atomic(context.Background(), func(ctx context.Context, tx sale.Tx) error {
		require.NoError(t, tx.Ledger().Transfer(ctx, alice, bob, 40))
		require.NoError(t, tx.Registry().CommitMint(ctx, 1, alice))
		require.NoError(t, tx.Journal().Append(ctx, domain.Event{Kind: domain.EventTicketMint, TokenID: 1}))

		// the unit sees its own writes
		bal, err := tx.Ledger().Balance(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, uint64(40), bal)

		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, uint64(100), balanceOf(t, s, alice))
	assert.Equal(t, uint64(0), balanceOf(t, s, bob))

	err = s.View(context.Background(), func(ctx context.Context, tx sale.Tx) error {
		last, err := tx.Registry().LastTokenID(ctx)
		require.NoError(t, err)
		assert.Zero(t, last)

		events, err := tx.Journal().ByToken(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, events)
		return nil
	})
	require.NoError(t, err)
}

func TestView_DropsWrites(t *testing.T) {
	s := memory.NewStore(10)
	require.NoError(t, s.Seed(map[domain.Address]uint64{alice: 100}))

	err := s.View(context.Background(), func(ctx context.Context, tx sale.Tx) error {
		return tx.Ledger().Transfer(ctx, alice, bob, 10)
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(100), balanceOf(t, s, alice))
}

func TestLedger_TransferPairIsAllOrNothing(t *testing.T) {
	s := memory.NewStore(10)
	require.NoError(t, s.Seed(map[domain.Address]uint64{alice: 100}))

	err := s.Atomic(context.Background(), func(ctx context.Context, tx sale.Tx) error {
		return tx.Ledger().TransferPair(ctx, alice, bob, 97, carol, 4)
	})
	assert.ErrorIs(t, err, sale.ErrInsufficientFunds)
	assert.Equal(t, uint64(100), balanceOf(t, s, alice))
	assert.Equal(t, uint64(0), balanceOf(t, s, bob))
	assert.Equal(t, uint64(0), balanceOf(t, s, carol))

	err = s.Atomic(context.Background(), func(ctx context.Context, tx sale.Tx) error {
		return tx.Ledger().TransferPair(ctx, alice, bob, 97, carol, 3)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balanceOf(t, s, alice))
	assert.Equal(t, uint64(97), balanceOf(t, s, bob))
	assert.Equal(t, uint64(3), balanceOf(t, s, carol))
}

func TestLedger_OverflowIsRejected(t *testing.T) {
	s := memory.NewStore(10)
	require.NoError(t, s.Seed(map[domain.Address]uint64{alice: 10, bob: math.MaxUint64}))

	err := s.Atomic(context.Background(), func(ctx context.Context, tx sale.Tx) error {
		return tx.Ledger().Transfer(ctx, alice, bob, 1)
	})
	assert.ErrorIs(t, err, sale.ErrOverflow)
	assert.Equal(t, uint64(10), balanceOf(t, s, alice))
}

func TestRegistry(t *testing.T) {
	s := memory.NewStore(2)
	ctx := context.Background()

	mint := func() (uint64, error) {
		var id uint64
		err := s.Atomic(ctx, func(ctx context.Context, tx sale.Tx) error {
			var err error
			id, err = tx.Registry().NextID(ctx)
			if err != nil {
				return err
			}
			return tx.Registry().CommitMint(ctx, id, alice)
		})
		return id, err
	}

	id, err := mint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id, err = mint()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	_, err = mint()
	assert.ErrorIs(t, err, sale.ErrSoldOut)

	err = s.Atomic(ctx, func(ctx context.Context, tx sale.Tx) error {
		return tx.Registry().CommitMint(ctx, 5, alice)
	})
	assert.ErrorIs(t, err, sale.ErrOutOfSequence)

	err = s.Atomic(ctx, func(ctx context.Context, tx sale.Tx) error {
		return tx.Registry().TransferOwnership(ctx, 1, bob, carol)
	})
	assert.ErrorIs(t, err, sale.ErrNotOwner)

	err = s.Atomic(ctx, func(ctx context.Context, tx sale.Tx) error {
		return tx.Registry().TransferOwnership(ctx, 3, alice, carol)
	})
	assert.ErrorIs(t, err, sale.ErrNotFound)

	err = s.Atomic(ctx, func(ctx context.Context, tx sale.Tx) error {
		return tx.Registry().TransferOwnership(ctx, 1, alice, carol)
	})
	require.NoError(t, err)

	err = s.View(ctx, func(ctx context.Context, tx sale.Tx) error {
		owner, ok, err := tx.Registry().Owner(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, carol, owner)
		return nil
	})
	require.NoError(t, err)
}

func TestSeed_OverflowAppliesNothing(t *testing.T) {
	s := memory.NewStore(1)
	require.NoError(t, s.Seed(map[domain.Address]uint64{alice: math.MaxUint64}))

	err := s.Seed(map[domain.Address]uint64{alice: 1, bob: 5})
	assert.ErrorIs(t, err, sale.ErrOverflow)
	assert.Equal(t, uint64(0), balanceOf(t, s, bob))
}

func TestAtomic_SerializesConcurrentMints(t *testing.T) {
	s := memory.NewStore(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make(chan uint64, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Atomic(ctx, func(ctx context.Context, tx sale.Tx) error {
				id, err := tx.Registry().NextID(ctx)
				if err != nil {
					return err
				}
				if err := tx.Registry().CommitMint(ctx, id, alice); err != nil {
					return err
				}
				ids <- id
				return nil
			})
		}()
	}

	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, 50)
}
