package query

import (
	"context"
	"fmt"
	"time"

	"github.com/kirinyoku/tixmint/internal/domain"
	redisrepo "github.com/kirinyoku/tixmint/internal/repository/redis"
	"github.com/kirinyoku/tixmint/internal/sale"
)

type Config struct {
	InfoTTL    time.Duration
	OwnerTTL   time.Duration
	BalanceTTL time.Duration
	EventsTTL  time.Duration
}

// Service answers read-only sale queries, through the cache when one is set.
type Service struct {
	sale  *sale.Sale
	cache *redisrepo.Cache
	cfg   Config
}

func New(s *sale.Sale, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.InfoTTL <= 0 {
		cfg.InfoTTL = 5 * time.Second
	}

	if cfg.OwnerTTL <= 0 {
		cfg.OwnerTTL = 60 * time.Second
	}

	if cfg.BalanceTTL <= 0 {
		cfg.BalanceTTL = 10 * time.Second
	}

	if cfg.EventsTTL <= 0 {
		cfg.EventsTTL = 60 * time.Second
	}

	return &Service{
		sale:  s,
		cache: cache,
		cfg:   cfg,
	}
}

type ownerEntry struct {
	Owner domain.Address `json:"owner"`
	Found bool           `json:"found"`
}

func cached[T any](
	ctx context.Context,
	c *redisrepo.Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil {
		return loader(ctx)
	}

	return redisrepo.GetOrSetJSON(ctx, c, key, ttl, loader)
}

// Info returns the sale parameters together with its progress.
func (s *Service) Info(ctx context.Context) (domain.SaleInfo, error) {
	const op = "service.query.Info"

	info, err := cached(ctx, s.cache, redisrepo.KeySaleInfo(), s.cfg.InfoTTL, s.sale.Info)
	if err != nil {
		return domain.SaleInfo{}, fmt.Errorf("%s:%w", op, err)
	}

	return info, nil
}

func (s *Service) LastTokenID(ctx context.Context) (uint64, error) {
	const op = "service.query.LastTokenID"

	last, err := cached(ctx, s.cache, redisrepo.KeyLastTokenID(), s.cfg.InfoTTL, s.sale.LastTokenID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return last, nil
}

// Owner returns the holder of a ticket.
//
// Parameters:
//   - ctx: request-scoped context.
//   - tokenID: ticket to look up.
//
// Returns:
//   - domain.Address: current owner.
//   - bool: false if the ticket was never minted.
//   - error: storage or cache failures only.
func (s *Service) Owner(ctx context.Context, tokenID uint64) (domain.Address, bool, error) {
	const op = "service.query.Owner"

	e, err := cached(ctx, s.cache, redisrepo.KeyTicketOwner(tokenID), s.cfg.OwnerTTL,
		func(ctx context.Context) (ownerEntry, error) {
			owner, ok, err := s.sale.Owner(ctx, tokenID)
			return ownerEntry{Owner: owner, Found: ok}, err
		},
	)
	if err != nil {
		return "", false, fmt.Errorf("%s:%w", op, err)
	}

	return e.Owner, e.Found, nil
}

// TokenURI is not cached; it never has a value.
func (s *Service) TokenURI(ctx context.Context, tokenID uint64) (string, bool, error) {
	return s.sale.TokenURI(ctx, tokenID)
}

func (s *Service) Balance(ctx context.Context, addr domain.Address) (uint64, error) {
	const op = "service.query.Balance"

	if addr == "" {
		return 0, fmt.Errorf("%s:%w", op, sale.ErrInvalidAddress)
	}

	bal, err := cached(ctx, s.cache, redisrepo.KeyBalance(addr), s.cfg.BalanceTTL,
		func(ctx context.Context) (uint64, error) {
			return s.sale.Balance(ctx, addr)
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return bal, nil
}

// Events lists the journal entries of one ticket, oldest first.
//
// Returns:
//   - error: sale.ErrNotFound if the ticket was never minted.
func (s *Service) Events(ctx context.Context, tokenID uint64) ([]domain.Event, error) {
	const op = "service.query.Events"

	if _, ok, err := s.Owner(ctx, tokenID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	} else if !ok {
		return nil, fmt.Errorf("%s:%w", op, sale.ErrNotFound)
	}

	events, err := cached(ctx, s.cache, redisrepo.KeyTicketEvents(tokenID), s.cfg.EventsTTL,
		func(ctx context.Context) ([]domain.Event, error) {
			return s.sale.Events(ctx, tokenID)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return events, nil
}
