package query_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/kirinyoku/tixmint/internal/domain"
	redisrepo "github.com/kirinyoku/tixmint/internal/repository/redis"
	"github.com/kirinyoku/tixmint/internal/sale"
	"github.com/kirinyoku/tixmint/internal/sale/memory"
	"github.com/kirinyoku/tixmint/internal/service/query"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issuer      domain.Address = "ST1ISSUER"
	beneficiary domain.Address = "ST9FEES"
	buyer       domain.Address = "ST3WALLET"
)

func newSale(t *testing.T) *sale.Sale {
	t.Helper()

	cfg, err := sale.NewConfig(domain.SaleParams{
		BasePrice:      97,
		Fee:            3,
		TicketCap:      10,
		SlotSize:       100000,
		Issuer:         issuer,
		FeeBeneficiary: beneficiary,
	})
	require.NoError(t, err)

	store := memory.NewStore(cfg.TicketCap())
	require.NoError(t, store.Seed(map[domain.Address]uint64{buyer: 1000}))

	return sale.New(cfg, store)
}

func TestQueries_WithoutCache(t *testing.T) {
	s := newSale(t)
	q := query.New(s, nil, query.Config{})
	ctx := context.Background()

	_, ok, err := q.Owner(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = q.Events(ctx, 1)
	assert.ErrorIs(t, err, sale.ErrNotFound)

	_, err = s.Mint(ctx, buyer)
	require.NoError(t, err)

	owner, ok, err := q.Owner(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, buyer, owner)

	events, err := q.Events(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTicketMint, events[0].Kind)

	info, err := q.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.LastTokenID)
	assert.Equal(t, uint64(9), info.Remaining)

	uri, ok, err := q.TokenURI(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, uri)

	_, err = q.Balance(ctx, "")
	assert.ErrorIs(t, err, sale.ErrInvalidAddress)
}

func TestQueries_ServeFromCacheUntilInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := redisrepo.New(rdb)

	s := newSale(t)
	q := query.New(s, cache, query.Config{})
	ctx := context.Background()

	bal, err := q.Balance(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal)
	assert.True(t, mr.Exists(redisrepo.KeyBalance(buyer)))

	rcpt, err := s.Mint(ctx, buyer)
	require.NoError(t, err)

	// stale until the committed events are applied to the cache
	bal, err = q.Balance(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), bal)

	require.NoError(t, cache.Invalidate(ctx, rcpt.Events))

	bal, err = q.Balance(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, uint64(900), bal)
}
