package service

import (
	"log/slog"

	redis "github.com/kirinyoku/tixmint/internal/repository/redis"
	"github.com/kirinyoku/tixmint/internal/sale"
	"github.com/kirinyoku/tixmint/internal/service/mint"
	"github.com/kirinyoku/tixmint/internal/service/query"
)

type Services struct {
	Mint  *mint.Service
	Query *query.Service
}

type Config struct {
	Query query.Config
}

// NewServices wires the sale coordinator to its optional cache, limiter and
// event publishers. cache and limiter may be nil.
func NewServices(
	s *sale.Sale,
	cache *redis.Cache,
	limiter *redis.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
	publishers ...mint.Publisher,
) *Services {
	var inv mint.Invalidator
	if cache != nil {
		inv = cache
	}

	var lim mint.Limiter
	if limiter != nil {
		lim = limiter
	}

	return &Services{
		Mint:  mint.New(s, inv, lim, logger, publishers...),
		Query: query.New(s, cache, cfg.Query),
	}
}
