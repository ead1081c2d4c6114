package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/postgres/generated"
	"github.com/iho/goledger/internal/usecase"
)

// OutboxRepository stores ledger events next to the rows that produced them
// so that an event exists if and only if its transaction committed.
type OutboxRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db generated.DBTX) *OutboxRepository {
	return &OutboxRepository{db: db, queries: generated.New(db)}
}

// Create inserts event inside tx.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.EventType, err)
	}

	err = queriesFor(r.db, tx).CreateOutboxEvent(ctx, generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	})
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// GetUnpublished returns up to limit pending events in commit order.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("load pending events: %w", err)
	}

	pending := make([]*domain.OutboxEvent, len(rows))
	for i, row := range rows {
		ev, err := outboxEventFromRow(row)
		if err != nil {
			return nil, err
		}
		pending[i] = ev
	}
	return pending, nil
}

// MarkPublished acknowledges delivered events in a single statement.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []string, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.queries.MarkEventsPublished(ctx, generated.MarkEventsPublishedParams{
		PublishedAt: timeToPgTimestamptz(publishedAt),
		Ids:         ids,
	})
}

func outboxEventFromRow(row generated.OutboxEvent) (*domain.OutboxEvent, error) {
	ev := &domain.OutboxEvent{
		ID:            row.ID,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		EventType:     row.EventType,
		CreatedAt:     row.CreatedAt.Time.UTC(),
		PublishedAt:   pgTimestamptzToPtr(row.PublishedAt),
		Published:     row.Published,
	}
	if len(row.Payload) > 0 {
		if err := json.Unmarshal(row.Payload, &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of event %s: %w", row.ID, err)
		}
	}
	return ev, nil
}
