package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/goledger/internal/adapter/http/handler"
	"github.com/iho/goledger/internal/adapter/http/middleware"
	"github.com/iho/goledger/internal/infrastructure/metrics"
	"github.com/iho/goledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	JournalHandler   *handler.JournalHandler
	PostingHandler   *handler.PostingHandler
	LedgerHandler    *handler.LedgerHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	// MetricsHandler serves /metrics; nil uses the default Prometheus registry.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
	IdempotencyTTL time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Get("/account-types", cfg.AccountHandler.ListTypes)

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/search", cfg.AccountHandler.Search)
			r.Get("/tree", cfg.AccountHandler.Tree)
			r.Get("/by-number/{number}", cfg.AccountHandler.GetByNumber)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Patch("/{id}", cfg.AccountHandler.Update)
			r.Delete("/{id}", cfg.AccountHandler.Delete)
			r.Get("/{id}/balance", cfg.AccountHandler.Balance)
			r.Get("/{id}/lines", cfg.LedgerHandler.AccountLines)
		})

		// Journal entries
		r.Route("/journal-entries", func(r chi.Router) {
			r.Post("/", cfg.JournalHandler.Create)
			r.Get("/", cfg.JournalHandler.List)
			r.Get("/next-number", cfg.JournalHandler.NextNumber)
			r.Get("/{id}", cfg.JournalHandler.Get)
			r.Patch("/{id}", cfg.JournalHandler.Update)
			r.Post("/{id}/post", cfg.JournalHandler.Post)
		})

		// Business events
		r.Route("/postings", func(r chi.Router) {
			r.Post("/invoices", cfg.PostingHandler.Invoice)
			r.Post("/expenses", cfg.PostingHandler.Expense)
			r.Post("/payroll", cfg.PostingHandler.Payroll)
		})

		r.Get("/reports/trial-balance", cfg.LedgerHandler.TrialBalance)
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
		r.Post("/ledger/reconcile", cfg.LedgerHandler.Reconcile)
	})

	return r
}
