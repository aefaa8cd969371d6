package sale_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/sale"
	"github.com/kirinyoku/tixmint/internal/sale/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issuer      domain.Address = "ST1ISSUER"
	beneficiary domain.Address = "ST9FEES"
	wallet3     domain.Address = "ST3WALLET"
	wallet7     domain.Address = "ST7WALLET"
	poor        domain.Address = "ST5POOR"
)

func newSale(t *testing.T) (*sale.Sale, *memory.Store) {
	t.Helper()

	cfg, err := sale.NewConfig(domain.SaleParams{
		BasePrice:      97,
		Fee:            3,
		TicketCap:      100,
		SlotSize:       100000,
		SlotCount:      0,
		Issuer:         issuer,
		FeeBeneficiary: beneficiary,
	})
	require.NoError(t, err)

	store := memory.NewStore(cfg.TicketCap())
	require.NoError(t, store.Seed(map[domain.Address]uint64{
		wallet3: 100000000000000,
		wallet7: 100000000000000,
		issuer:  100000000000000,
		poor:    50,
	}))

	return sale.New(cfg, store), store
}

type balances map[domain.Address]uint64

func snapshot(t *testing.T, s *sale.Sale, addrs ...domain.Address) balances {
	t.Helper()

	out := make(balances, len(addrs))
	for _, a := range addrs {
		bal, err := s.Balance(context.Background(), a)
		require.NoError(t, err)
		out[a] = bal
	}

	return out
}

func TestMint_ReturnsFirstTicketAndSplitsPayment(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	before := snapshot(t, s, wallet3, issuer, beneficiary)

	rcpt, err := s.Mint(ctx, wallet3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rcpt.TokenID)
	assert.Equal(t, uint64(100), rcpt.Amount)

	after := snapshot(t, s, wallet3, issuer, beneficiary)
	assert.Equal(t, before[wallet3]-100, after[wallet3])
	assert.Equal(t, before[issuer]+97, after[issuer])
	assert.Equal(t, before[beneficiary]+3, after[beneficiary])

	require.Len(t, rcpt.Events, 3)
	assert.Equal(t, domain.EventFundsTransfer, rcpt.Events[0].Kind)
	assert.Equal(t, uint64(97), rcpt.Events[0].Amount)
	assert.Equal(t, wallet3, rcpt.Events[0].From)
	assert.Equal(t, issuer, rcpt.Events[0].To)
	assert.Equal(t, uint64(3), rcpt.Events[1].Amount)
	assert.Equal(t, beneficiary, rcpt.Events[1].To)
	assert.Equal(t, domain.EventTicketMint, rcpt.Events[2].Kind)
	assert.Equal(t, uint64(1), rcpt.Events[2].TokenID)
	assert.Equal(t, wallet3, rcpt.Events[2].To)
}

func TestMint_IncrementsTicketID(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	for want := uint64(1); want <= 3; want++ {
		rcpt, err := s.Mint(ctx, wallet3)
		require.NoError(t, err)
		assert.Equal(t, want, rcpt.TokenID)
	}

	last, err := s.LastTokenID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
}

func TestMint_SoldOutAfterCap(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	for i := 1; i <= 100; i++ {
		rcpt, err := s.Mint(ctx, wallet3)
		require.NoError(t, err)
		require.Equal(t, uint64(i), rcpt.TokenID)
	}

	before := snapshot(t, s, wallet3, issuer, beneficiary)

	for i := 0; i < 5; i++ {
		_, err := s.Mint(ctx, wallet3)
		assert.ErrorIs(t, err, sale.ErrSoldOut)
	}

	last, err := s.LastTokenID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), last)
	assert.Equal(t, before, snapshot(t, s, wallet3, issuer, beneficiary))
}

func TestMint_InsufficientFundsChangesNothing(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	before := snapshot(t, s, poor, issuer, beneficiary)

	_, err := s.Mint(ctx, poor)
	assert.ErrorIs(t, err, sale.ErrInsufficientFunds)

	assert.Equal(t, before, snapshot(t, s, poor, issuer, beneficiary))

	last, err := s.LastTokenID(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	owner, ok, err := s.Owner(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, owner)
}

func TestMint_CoverOnlyPriceIsRejected(t *testing.T) {
	s, store := newSale(t)
	ctx := context.Background()

	const short domain.Address = "ST6SHORT"
	require.NoError(t, store.Seed(map[domain.Address]uint64{short: 99}))

	_, err := s.Mint(ctx, short)
	assert.ErrorIs(t, err, sale.ErrInsufficientFunds)

	bal, err := s.Balance(ctx, short)
	require.NoError(t, err)
	assert.Equal(t, uint64(99), bal)
}

func TestMint_RejectsEmptyBuyer(t *testing.T) {
	s, _ := newSale(t)

	_, err := s.Mint(context.Background(), "")
	assert.ErrorIs(t, err, sale.ErrInvalidAddress)
}

func TestOwner(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	_, err := s.Mint(ctx, wallet3)
	require.NoError(t, err)

	owner, ok, err := s.Owner(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, wallet3, owner)

	for _, id := range []uint64{0, 2, 1000} {
		_, ok, err := s.Owner(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, "id %d", id)
	}
}

func TestTokenURI_AlwaysEmpty(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	_, err := s.Mint(ctx, wallet3)
	require.NoError(t, err)

	for _, id := range []uint64{0, 1, 2} {
		uri, ok, err := s.TokenURI(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, uri)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can transfer", func(t *testing.T) {
		s, _ := newSale(t)
		_, err := s.Mint(ctx, wallet3)
		require.NoError(t, err)

		rcpt, err := s.Transfer(ctx, 1, wallet3, wallet7, wallet3)
		require.NoError(t, err)
		require.Len(t, rcpt.Events, 1)
		assert.Equal(t, domain.EventTicketTransfer, rcpt.Events[0].Kind)
		assert.Equal(t, wallet3, rcpt.Events[0].From)
		assert.Equal(t, wallet7, rcpt.Events[0].To)

		owner, _, err := s.Owner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, wallet7, owner)

		// the new owner can pass it on again
		_, err = s.Transfer(ctx, 1, wallet7, wallet3, wallet7)
		require.NoError(t, err)
		owner, _, err = s.Owner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, wallet3, owner)
	})

	t.Run("non owner caller is rejected", func(t *testing.T) {
		s, _ := newSale(t)
		_, err := s.Mint(ctx, wallet3)
		require.NoError(t, err)

		_, err = s.Transfer(ctx, 1, wallet3, wallet7, wallet7)
		assert.ErrorIs(t, err, sale.ErrNotOwner)

		owner, _, err := s.Owner(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, wallet3, owner)
	})

	t.Run("sender must be owner", func(t *testing.T) {
		s, _ := newSale(t)
		_, err := s.Mint(ctx, wallet3)
		require.NoError(t, err)

		_, err = s.Transfer(ctx, 1, wallet7, wallet7, wallet3)
		assert.ErrorIs(t, err, sale.ErrNotOwner)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		s, _ := newSale(t)

		_, err := s.Transfer(ctx, 1, wallet3, wallet7, wallet3)
		assert.ErrorIs(t, err, sale.ErrNotFound)
	})

	t.Run("transfer moves no funds", func(t *testing.T) {
		s, _ := newSale(t)
		_, err := s.Mint(ctx, wallet3)
		require.NoError(t, err)

		before := snapshot(t, s, wallet3, wallet7, issuer, beneficiary)
		_, err = s.Transfer(ctx, 1, wallet3, wallet7, wallet3)
		require.NoError(t, err)
		assert.Equal(t, before, snapshot(t, s, wallet3, wallet7, issuer, beneficiary))
	})
}

func TestFund(t *testing.T) {
	ctx := context.Background()

	t.Run("moves slot size to issuer", func(t *testing.T) {
		s, _ := newSale(t)
		before := snapshot(t, s, wallet7, issuer)

		rcpt, err := s.Fund(ctx, wallet7)
		require.NoError(t, err)
		assert.Equal(t, uint64(100000), rcpt.Amount)
		require.Len(t, rcpt.Events, 1)
		assert.Equal(t, wallet7, rcpt.Events[0].From)
		assert.Equal(t, issuer, rcpt.Events[0].To)

		after := snapshot(t, s, wallet7, issuer)
		assert.Equal(t, before[wallet7]-100000, after[wallet7])
		assert.Equal(t, before[issuer]+100000, after[issuer])
	})

	t.Run("is not capped by slot count", func(t *testing.T) {
		s, _ := newSale(t)
		for i := 0; i < 3; i++ {
			_, err := s.Fund(ctx, wallet7)
			require.NoError(t, err)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		s, _ := newSale(t)
		before := snapshot(t, s, poor, issuer)

		_, err := s.Fund(ctx, poor)
		assert.ErrorIs(t, err, sale.ErrInsufficientFunds)
		assert.Equal(t, before, snapshot(t, s, poor, issuer))
	})

	t.Run("issuer funding itself nets out", func(t *testing.T) {
		s, _ := newSale(t)
		before := snapshot(t, s, issuer)

		_, err := s.Fund(ctx, issuer)
		require.NoError(t, err)
		assert.Equal(t, before, snapshot(t, s, issuer))
	})
}

func TestEvents_ByToken(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	_, err := s.Mint(ctx, wallet3)
	require.NoError(t, err)
	_, err = s.Mint(ctx, wallet7)
	require.NoError(t, err)
	_, err = s.Transfer(ctx, 1, wallet3, wallet7, wallet3)
	require.NoError(t, err)

	events, err := s.Events(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTicketMint, events[0].Kind)
	assert.Equal(t, domain.EventTicketTransfer, events[1].Kind)
}

func TestInfo(t *testing.T) {
	s, _ := newSale(t)
	ctx := context.Background()

	_, err := s.Mint(ctx, wallet3)
	require.NoError(t, err)

	info, err := s.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(97), info.BasePrice)
	assert.Equal(t, uint64(3), info.Fee)
	assert.Equal(t, uint64(100), info.TicketCap)
	assert.Equal(t, uint64(1), info.LastTokenID)
	assert.Equal(t, uint64(99), info.Remaining)
	assert.Equal(t, issuer, info.Issuer)
}

// failingStore fails the last step of every unit so rollback can be observed.
type failingStore struct {
	*memory.Store
}

type failingTx struct {
	sale.Tx
}

type failingJournal struct{}

var errJournal = errors.New("journal down")

func (failingJournal) Append(context.Context, ...domain.Event) error { return errJournal }
func (failingJournal) ByToken(context.Context, uint64) ([]domain.Event, error) {
	return nil, errJournal
}

func (t failingTx) Journal() sale.Journal { return failingJournal{} }

func (s failingStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx sale.Tx) error) error {
	return s.Store.Atomic(ctx, func(ctx context.Context, tx sale.Tx) error {
		return fn(ctx, failingTx{tx})
	})
}

func TestMint_LateFailureRollsBackEverything(t *testing.T) {
	good, store := newSale(t)
	ctx := context.Background()

	bad := sale.New(good.Config(), failingStore{store})
	before := snapshot(t, good, wallet3, issuer, beneficiary)

	_, err := bad.Mint(ctx, wallet3)
	assert.ErrorIs(t, err, errJournal)

	assert.Equal(t, before, snapshot(t, good, wallet3, issuer, beneficiary))
	last, err := good.LastTokenID(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)
}
