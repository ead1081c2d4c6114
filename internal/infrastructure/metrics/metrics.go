package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Journal entry metrics
	EntriesCreated        *prometheus.CounterVec
	EntriesPosted         prometheus.Counter
	EntriesRejected       *prometheus.CounterVec
	EntryNumberConflicts  prometheus.Counter
	EntryPostingDuration  prometheus.Histogram
	GeneratedEntryAmounts *prometheus.HistogramVec

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsDeleted *prometheus.CounterVec

	// Balance metrics
	BalanceCacheLookups *prometheus.CounterVec

	// Outbox metrics
	EventsPublished      *prometheus.CounterVec
	EventPublishFailures *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates and registers all Prometheus metrics on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Journal entry metrics
		EntriesCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_journal_entries_created_total",
				Help: "Total number of journal entries created by number prefix",
			},
			[]string{"prefix"},
		),
		EntriesPosted: f.NewCounter(prometheus.CounterOpts{
			Name: "goledger_journal_entries_posted_total",
			Help: "Total number of journal entries posted",
		}),
		EntriesRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_journal_entries_rejected_total",
				Help: "Total number of journal entry writes rejected by reason",
			},
			[]string{"reason"},
		),
		EntryNumberConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "goledger_entry_number_conflicts_total",
			Help: "Total number of generated entry numbers that collided and were retried",
		}),
		EntryPostingDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "goledger_entry_posting_duration_seconds",
			Help:    "Duration of posting operations",
			Buckets: prometheus.DefBuckets,
		}),
		GeneratedEntryAmounts: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goledger_generated_entry_amount",
				Help:    "Debit totals of entries generated from business events",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"source"},
		),

		// Account metrics
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "goledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeleted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_accounts_deleted_total",
				Help: "Total number of account deletions by mode (hard, soft)",
			},
			[]string{"mode"},
		),

		// Balance metrics
		BalanceCacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_balance_cache_total",
				Help: "Balance cache lookups by result",
			},
			[]string{"result"},
		),

		// Outbox metrics
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_outbox_events_published_total",
				Help: "Outbox events handed to the publisher by event type",
			},
			[]string{"event_type"},
		),
		EventPublishFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_outbox_publish_failures_total",
				Help: "Outbox events the publisher failed to deliver by event type",
			},
			[]string{"event_type"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "goledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "goledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}
