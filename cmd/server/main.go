package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/goledger/internal/adapter/http"
	"github.com/iho/goledger/internal/adapter/http/handler"
	"github.com/iho/goledger/internal/adapter/http/middleware"
	"github.com/iho/goledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/goledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/goledger/internal/adapter/repository/redis"
	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/config"
	"github.com/iho/goledger/internal/infrastructure/eventpublisher"
	"github.com/iho/goledger/internal/infrastructure/logger"
	"github.com/iho/goledger/internal/infrastructure/metrics"
	"github.com/iho/goledger/internal/infrastructure/postgres"
	"github.com/iho/goledger/internal/infrastructure/redis"
	"github.com/iho/goledger/internal/usecase"
)

const (
	limiterCleanupInterval = time.Minute
	limiterIdleTimeout     = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "goledger"})
	logger.SetGlobal(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, l, metrics.New(), promhttp.Handler())
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialise ledger")
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("server failed")
	}

	l.Info().Msg("server stopped")
}

// storage groups the repositories of one storage driver.
type storage struct {
	tx       usecase.TransactionManager
	accounts usecase.AccountRepository
	types    usecase.AccountTypeRepository
	entries  usecase.JournalEntryRepository
	ledger   usecase.LedgerRepository
	outbox   usecase.OutboxRepository
	retrier  usecase.Retrier
	ping     handler.Pinger
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		store := memory.NewStore()
		return &storage{
			tx:       store,
			accounts: memory.NewAccountRepository(store),
			types:    memory.NewAccountTypeRepository(store),
			entries:  memory.NewJournalEntryRepository(store),
			ledger:   memory.NewLedgerRepository(store),
			outbox:   memory.NewOutboxRepository(store),
			close:    func() {},
		}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &storage{
		tx:       postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout)),
		accounts: postgresRepo.NewAccountRepository(pool),
		types:    postgresRepo.NewAccountTypeRepository(pool),
		entries:  postgresRepo.NewJournalEntryRepository(pool),
		ledger:   postgresRepo.NewLedgerRepository(pool),
		outbox:   postgresRepo.NewOutboxRepository(pool),
		retrier:  postgresRepo.NewRetrier(),
		ping:     pool,
		close:    pool.Close,
	}, nil
}

// app is the wired ledger service.
type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	handler     http.Handler
	rateLimiter *middleware.RateLimiter
	publisher   *eventpublisher.EventPublisher
	closers     []func()
}

func newApp(
	ctx context.Context,
	cfg *config.Config,
	l zerolog.Logger,
	m *metrics.Metrics,
	metricsHandler http.Handler,
) (*app, error) {
	a := &app{cfg: cfg, logger: l}

	rules, err := config.LoadPostingRules(cfg.PostingRulesPath)
	if err != nil {
		return nil, err
	}

	st, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	pingers := map[string]handler.Pinger{}
	if st.ping != nil {
		pingers["postgres"] = st.ping
	}

	var (
		redisClient      *goredis.Client
		cache            usecase.BalanceCache
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, redis.WithPoolSize(cfg.RedisPoolSize))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { redisClient.Close() })

		cache = redisRepo.NewBalanceCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		pingers["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	idGen := postgresRepo.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(st.tx, st.accounts, st.types, st.ledger, st.outbox, idGen, cache, m).
		WithSearchLimit(cfg.SearchLimit)
	journalUC := usecase.NewJournalUseCase(st.tx, st.accounts, st.entries, st.ledger, st.outbox, idGen, st.retrier, cache, m)
	balanceUC := usecase.NewBalanceUseCase(st.accounts, st.ledger, cache, cfg.BalanceCacheTTL, m)
	ledgerUC := usecase.NewLedgerUseCase(st.accounts, st.ledger)
	postingUC := usecase.NewPostingUseCase(accountUC, journalUC, rules, m)
	reportUC := usecase.NewReportUseCase(st.accounts, st.types, st.ledger)
	reconcileUC := usecase.NewReconciliationUseCase(st.accounts, st.ledger, cache)

	if cfg.SeedDefaultChart {
		created, err := accountUC.SeedChart(ctx, domain.DefaultChart())
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed chart of accounts: %w", err)
		}
		l.Info().Int("created", created).Msg("chart of accounts seeded")
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	}

	if cfg.OutboxEnabled {
		var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(l)
		if cfg.OutboxStream != "" && redisClient != nil {
			publisher = eventpublisher.NewRedisStreamPublisher(redisClient, cfg.OutboxStream, cfg.OutboxStreamLen)
		}
		a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: st.outbox,
			Publisher:  publisher,
			Metrics:    m,
			Logger:     &l,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
		})
	}

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC, balanceUC),
		JournalHandler:   handler.NewJournalHandler(journalUC),
		PostingHandler:   handler.NewPostingHandler(postingUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC, reportUC, reconcileUC),
		HealthHandler:    handler.NewHealthHandler(pingers),
		IdempotencyStore: idempotencyStore,
		RateLimiter:      a.rateLimiter,
		Metrics:          m,
		MetricsHandler:   metricsHandler,
		Logger:           l,
		IdempotencyTTL:   cfg.IdempotencyTTL,
	}
	a.handler = httpAdapter.NewRouter(routerCfg)

	l.Info().
		Str("storage", cfg.StorageDriver).
		Bool("redis", redisClient != nil).
		Bool("outbox", a.publisher != nil).
		Msg("ledger initialised")

	return a, nil
}

// Run serves HTTP and the background workers until ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", a.cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTPReadTimeout,
		WriteTimeout: a.cfg.HTTPWriteTimeout,
		IdleTimeout:  a.cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("port", a.cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if a.rateLimiter != nil {
		g.Go(func() error {
			a.rateLimiter.RunCleanup(gctx, limiterCleanupInterval, limiterIdleTimeout)
			return nil
		})
	}

	if a.publisher != nil {
		g.Go(func() error {
			if err := a.publisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// Close releases storage and Redis connections in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
