package mint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/tixmint/internal/domain"
	redisrepo "github.com/kirinyoku/tixmint/internal/repository/redis"
	"github.com/kirinyoku/tixmint/internal/sale"
)

// Publisher forwards committed events to watchers.
type Publisher interface {
	Publish(ctx context.Context, events []domain.Event) error
}

type Invalidator interface {
	Invalidate(ctx context.Context, events []domain.Event) error
}

type Limiter interface {
	Allow(ctx context.Context, key string) (redisrepo.Decision, error)
}

// Service runs the mutating sale operations and, once they are committed,
// refreshes caches and publishes the resulting events. Cache, limiter and
// publishers are optional.
type Service struct {
	sale       *sale.Sale
	cache      Invalidator
	limiter    Limiter
	publishers []Publisher
	logger     *slog.Logger
}

func New(
	s *sale.Sale,
	cache Invalidator,
	limiter Limiter,
	logger *slog.Logger,
	publishers ...Publisher,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		sale:       s,
		cache:      cache,
		limiter:    limiter,
		publishers: publishers,
		logger:     logger,
	}
}

// Mint sells the next ticket to buyer.
//
// Parameters:
//   - ctx: request-scoped context.
//   - buyer: account that pays and receives the ticket.
//   - rlKey: rate limit bucket; empty disables limiting.
//
// Returns:
//   - sale.Receipt: the new ticket id and committed events.
//   - error: sale.ErrSoldOut, sale.ErrInsufficientFunds, mint.ErrRateLimited.
func (s *Service) Mint(ctx context.Context, buyer domain.Address, rlKey string) (sale.Receipt, error) {
	const op = "service.mint.Mint"

	if err := s.allow(ctx, rlKey); err != nil {
		return sale.Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	rcpt, err := s.sale.Mint(ctx, buyer)
	if err != nil {
		return sale.Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	s.afterCommit(ctx, rcpt.Events)

	return rcpt, nil
}

// Fund deposits one slot size from caller into the issuer account.
//
// Returns:
//   - sale.Receipt: Amount is the deposited slot size.
//   - error: sale.ErrInsufficientFunds if caller's balance is short.
func (s *Service) Fund(ctx context.Context, caller domain.Address) (sale.Receipt, error) {
	const op = "service.mint.Fund"

	rcpt, err := s.sale.Fund(ctx, caller)
	if err != nil {
		return sale.Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	s.afterCommit(ctx, rcpt.Events)

	return rcpt, nil
}

// Transfer hands a ticket from sender to recipient on behalf of caller.
//
// Returns:
//   - error: sale.ErrNotFound if the ticket does not exist.
//   - error: sale.ErrNotOwner if caller or sender is not the owner.
func (s *Service) Transfer(
	ctx context.Context,
	tokenID uint64,
	sender, recipient, caller domain.Address,
) (sale.Receipt, error) {
	const op = "service.mint.Transfer"

	rcpt, err := s.sale.Transfer(ctx, tokenID, sender, recipient, caller)
	if err != nil {
		return sale.Receipt{}, fmt.Errorf("%s:%w", op, err)
	}

	s.afterCommit(ctx, rcpt.Events)

	return rcpt, nil
}

func (s *Service) allow(ctx context.Context, rlKey string) error {
	if s.limiter == nil || rlKey == "" {
		return nil
	}

	d, err := s.limiter.Allow(ctx, rlKey)
	if err != nil {
		return err
	}

	if !d.Allowed {
		return RateLimitedError{RetryAfter: d.RetryAfter}
	}

	return nil
}

// afterCommit never fails the request: the state change is already durable.
func (s *Service) afterCommit(ctx context.Context, events []domain.Event) {
	if len(events) == 0 {
		return
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, events); err != nil {
			s.logger.Warn("cache invalidation failed", "error", err)
		}
	}

	for _, p := range s.publishers {
		if err := p.Publish(ctx, events); err != nil {
			s.logger.Warn("event publish failed", "error", err, "events", len(events))
		}
	}
}
