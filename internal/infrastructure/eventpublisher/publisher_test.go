package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/goledger/internal/adapter/repository/memory"
	"github.com/iho/goledger/internal/domain"
	"github.com/iho/goledger/internal/infrastructure/metrics"
)

type recordingSink struct {
	delivered []string
	failOn    map[string]error
}

func (s *recordingSink) Publish(_ context.Context, event *domain.OutboxEvent) error {
	if err := s.failOn[event.ID]; err != nil {
		return err
	}
	s.delivered = append(s.delivered, event.ID)
	return nil
}

func seedOutbox(t *testing.T, events ...*domain.OutboxEvent) *memory.OutboxRepository {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	outbox := memory.NewOutboxRepository(store)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	for _, ev := range events {
		require.NoError(t, outbox.Create(ctx, tx, ev))
	}
	require.NoError(t, tx.Commit(ctx))
	return outbox
}

func entryEvent(id, entryID, eventType string) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            id,
		AggregateType: domain.AggregateTypeJournalEntry,
		AggregateID:   entryID,
		EventType:     eventType,
		Payload:       map[string]any{"entry_id": entryID},
	}
}

func newRelay(outbox *memory.OutboxRepository, sink Publisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: outbox,
		Publisher:  sink,
		Metrics:    metrics.NewWithRegistry(prometheus.NewRegistry()),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

func TestFlushDeliversAndAcknowledges(t *testing.T) {
	outbox := seedOutbox(t,
		entryEvent("e1", "1", domain.EventTypeJournalEntryCreated),
		entryEvent("e2", "1", domain.EventTypeJournalEntryPosted),
	)
	sink := &recordingSink{}
	relay := newRelay(outbox, sink)

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e1", "e2"}, sink.delivered)
	assert.Equal(t, float64(1), testutil.ToFloat64(relay.metrics.EventsPublished.WithLabelValues(domain.EventTypeJournalEntryPosted)))

	pending, err := outbox.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFlushHoldsBackLaterEventsOfFailedAggregate(t *testing.T) {
	outbox := seedOutbox(t,
		entryEvent("e1", "1", domain.EventTypeJournalEntryCreated),
		entryEvent("e2", "2", domain.EventTypeJournalEntryCreated),
		entryEvent("e3", "1", domain.EventTypeJournalEntryPosted),
	)
	sink := &recordingSink{failOn: map[string]error{"e1": errors.New("broker unavailable")}}
	relay := newRelay(outbox, sink)

	n, err := relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"e2"}, sink.delivered)
	assert.Equal(t, float64(1), testutil.ToFloat64(relay.metrics.EventPublishFailures.WithLabelValues(domain.EventTypeJournalEntryCreated)))

	pending, err := outbox.GetUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e1", pending[0].ID)
	assert.Equal(t, "e3", pending[1].ID)

	sink.failOn = nil
	n, err = relay.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e2", "e1", "e3"}, sink.delivered)
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	outbox := seedOutbox(t, entryEvent("e1", "1", domain.EventTypeJournalEntryCreated))
	sink := &recordingSink{}
	relay := newRelay(outbox, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Start(ctx) }()

	require.Eventually(t, func() bool {
		pending, err := outbox.GetUnpublished(context.Background(), 10)
		return err == nil && len(pending) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}
