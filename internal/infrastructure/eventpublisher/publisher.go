// Package eventpublisher relays committed ledger events from the outbox to an
// external sink.
package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
	"github.com/iho/goledger/internal/usecase"
)

// Publisher delivers one event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     *zerolog.Logger
	BatchSize  int
	Interval   time.Duration
}

// EventPublisher polls the outbox and hands pending events to a Publisher.
//
// Events of one aggregate are delivered in the order they were written: when
// an event fails, the later events of the same journal entry or account are
// held back until the next round. Delivery is at least once.
type EventPublisher struct {
	outbox    usecase.OutboxRepository
	sink      Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
	batchSize int
	interval  time.Duration
}

// NewEventPublisher creates an EventPublisher. Zero BatchSize and Interval
// default to 100 events every five seconds.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &EventPublisher{
		outbox:    cfg.OutboxRepo,
		sink:      cfg.Publisher,
		metrics:   cfg.Metrics,
		logger:    logger.With().Str("component", "outbox").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
	}
}

// Start relays events every interval until ctx is done.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	for {
		if _, err := ep.Flush(ctx); err != nil && ctx.Err() == nil {
			ep.logger.Error().Err(err).Msg("outbox relay failed")
		}

		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Flush relays one batch and returns how many events were acknowledged.
func (ep *EventPublisher) Flush(ctx context.Context) (int, error) {
	pending, err := ep.outbox.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	blocked := make(map[string]bool)
	delivered := make([]string, 0, len(pending))
	for _, ev := range pending {
		key := ev.AggregateType + "/" + ev.AggregateID
		if blocked[key] {
			continue
		}

		if err := ep.sink.Publish(ctx, ev); err != nil {
			blocked[key] = true
			ep.logger.Warn().
				Err(err).
				Str("event_id", ev.ID).
				Str("event_type", ev.EventType).
				Str("aggregate", key).
				Msg("event not delivered")
			if ep.metrics != nil {
				ep.metrics.EventPublishFailures.WithLabelValues(ev.EventType).Inc()
			}
			continue
		}

		delivered = append(delivered, ev.ID)
		if ep.metrics != nil {
			ep.metrics.EventsPublished.WithLabelValues(ev.EventType).Inc()
		}
	}

	if len(delivered) == 0 {
		return 0, nil
	}
	if err := ep.outbox.MarkPublished(ctx, delivered, ep.now()); err != nil {
		return 0, err
	}

	ep.logger.Debug().
		Int("delivered", len(delivered)).
		Int("pending", len(pending)).
		Msg("outbox batch relayed")

	return len(delivered), nil
}

// LogPublisher writes each event to a logger. It is the sink when no broker
// is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event with its payload.
func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		Time("created_at", event.CreatedAt).
		RawJSON("payload", payload).
		Msg("ledger event")

	return nil
}
