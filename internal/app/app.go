package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixmint/internal/config"
	"github.com/kirinyoku/tixmint/internal/domain"
	"github.com/kirinyoku/tixmint/internal/kafka"
	"github.com/kirinyoku/tixmint/internal/postgres"
	"github.com/kirinyoku/tixmint/internal/redis"
	postgresrepo "github.com/kirinyoku/tixmint/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tixmint/internal/repository/redis"
	"github.com/kirinyoku/tixmint/internal/sale"
	"github.com/kirinyoku/tixmint/internal/sale/memory"
	"github.com/kirinyoku/tixmint/internal/service"
	"github.com/kirinyoku/tixmint/internal/service/mint"
	httpgin "github.com/kirinyoku/tixmint/internal/transport/http/gin"
	"github.com/kirinyoku/tixmint/internal/uow"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	pool     *pgxpool.Pool
	rdb      *goredis.Client
	pubsub   *redisrepo.EventsPubSub
	producer *kafka.Producer
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	saleCfg, err := sale.NewConfig(cfg.Sale.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	a := &App{cfg: cfg, logger: logger}

	store, err := a.initStore(ctx, saleCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		cache   *redisrepo.Cache
		limiter *redisrepo.SlidingWindowLimiter
		idem    *redisrepo.IdempotencyStore
		pubs    []mint.Publisher
	)

	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: failed to initialize redis: %w", op, err)
		}

		a.rdb = rdb
		a.pubsub = redisrepo.NewEventsPubSub(rdb)

		cache = redisrepo.New(rdb)
		idem = redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)
		if cfg.Server.MintRateLimit > 0 {
			limiter = redisrepo.NewSlidingWindowLimiter(rdb, "mint", cfg.Server.MintRateLimit, time.Minute)
		}
		pubs = append(pubs, a.pubsub)
	}

	if cfg.Kafka.Enabled {
		a.producer = kafka.NewProducer(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		pubs = append(pubs, a.producer)
	}

	services := service.NewServices(sale.New(saleCfg, store), cache, limiter, logger, service.Config{}, pubs...)

	router := httpgin.NewRouter(services, idem, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("application initialized",
		"store", cfg.Store.Driver,
		"redis", cfg.Redis.Enabled,
		"kafka", cfg.Kafka.Enabled,
		"ticket_cap", saleCfg.TicketCap(),
	)

	return a, nil
}

func (a *App) initStore(ctx context.Context, saleCfg sale.Config) (sale.Store, error) {
	genesis := a.cfg.Sale.Genesis

	if a.cfg.Store.Driver == config.DriverMemory {
		store := memory.NewStore(saleCfg.TicketCap())
		if err := store.Seed(genesis); err != nil {
			return nil, fmt.Errorf("failed to seed genesis balances: %w", err)
		}
		return store, nil
	}

	pg := a.cfg.Postgres
	pool, err := postgres.New(ctx, postgres.Config{
		DSN: postgres.DSN(pg.User, pg.Password, pg.Host, pg.Port, pg.Name, pg.SSLMode),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.pool = pool

	store := postgresrepo.NewStore(pool, saleCfg.TicketCap())
	if err := store.Admin().Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	if err := store.Admin().SeedGenesis(ctx, genesis); err != nil {
		return nil, fmt.Errorf("failed to seed genesis balances: %w", err)
	}

	return uow.NewUoW(store), nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.Close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Event feed
	if a.pubsub != nil {
		g.Go(func() error {
			a.logger.Info("subscribed to sale events")
			err := a.pubsub.Subscribe(gCtx, func(_ context.Context, e domain.Event) {
				a.logger.Info("sale event",
					"kind", e.Kind,
					"token_id", e.TokenID,
					"from", e.From,
					"to", e.To,
					"amount", e.Amount,
				)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("event subscriber: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// Close releases external connections. It is safe on a partially built App.
func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", "error", err)
		}
		a.producer = nil
	}

	if a.rdb != nil {
		_ = a.rdb.Close()
		a.rdb = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
