package memory

import (
	"context"
	"time"

	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create stores an event inside tx.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return r.store.update(tx, func(st *state) error {
		st.outbox = append(st.outbox, copyEvent(event))
		return nil
	})
}

// GetUnpublished returns up to limit unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	events := []*domain.OutboxEvent{}
	err := r.store.view(nil, func(st *state) error {
		for _, ev := range st.outbox {
			if !ev.Published {
				events = append(events, copyEvent(ev))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page(events, limit, 0), nil
}

// MarkPublished flags the events with the given IDs as delivered. Events
// already delivered keep their first timestamp.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []string, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	return r.store.autocommit(ctx, func(st *state) error {
		for _, ev := range st.outbox {
			if wanted[ev.ID] && !ev.Published {
				at := publishedAt
				ev.Published = true
				ev.PublishedAt = &at
			}
		}
		return nil
	})
}
