package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/luisarreguin/delifast-backend/pkg/docstore"
	"github.com/luisarreguin/delifast-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceOpsBuildsPendingEvent(t *testing.T) {
	store := docstore.NewMemoryStore()
	svc := NewService(store)

	ops, err := svc.Ops(DomainEvent{
		EventType: enums.EventOrderDeliveryCreated,
		OrderID:   "o1",
		Actor:     &ActorRef{UserID: "u1", Role: "user"},
		Data:      map[string]any{"orderId": "o1", "status": "created"},
	})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	require.NoError(t, store.AtomicWrite(context.Background(), ops))

	docs, err := store.List(context.Background(), Collection+"/")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	var event Event
	for _, raw := range docs {
		require.NoError(t, json.Unmarshal(raw, &event))
	}
	assert.Equal(t, enums.EventOrderDeliveryCreated, event.EventType)
	assert.Equal(t, enums.OutboxStatusPending, event.Status)
	assert.Equal(t, "o1", event.OrderID)
	assert.Equal(t, 1, event.Payload.Version)
	assert.Equal(t, event.EventID, event.Payload.EventID)
	assert.Equal(t, "u1", event.Payload.Actor.UserID)
	assert.NotEmpty(t, event.CreatedAt)
}

func TestRepositoryFetchPendingOrdersOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	svc := NewService(store)
	repo := NewRepository(store)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		store.WithClock(func() time.Time { return at })
		ops, err := svc.Ops(DomainEvent{
			EventType: enums.EventOrderDeliveryCreated,
			OrderID:   "o1",
			Data:      map[string]any{"seq": i},
		})
		require.NoError(t, err)
		require.NoError(t, store.AtomicWrite(ctx, ops))
	}

	events, err := repo.FetchPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first, ok := events[0].CreatedAt.(string)
	require.True(t, ok)
	second, ok := events[1].CreatedAt.(string)
	require.True(t, ok)
	assert.LessOrEqual(t, first, second)
}

func TestRepositoryFetchPendingHandlesMissingTimestamps(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	repo := NewRepository(store)

	// Documents written before the timestamp field existed, or with a
	// non-string value, must still come back in a stable order.
	seed := []Event{
		{EventID: "ev-c", Status: enums.OutboxStatusPending, CreatedAt: "2026-03-14T10:02:00Z"},
		{EventID: "ev-a", Status: enums.OutboxStatusPending},
		{EventID: "ev-b", Status: enums.OutboxStatusPending, CreatedAt: 1757856000},
		{EventID: "ev-d", Status: enums.OutboxStatusPending, CreatedAt: "2026-03-14T10:01:00Z"},
	}
	for _, event := range seed {
		ops := []docstore.WriteOp{docstore.Put(docstore.Join(Collection, event.EventID), event)}
		require.NoError(t, store.AtomicWrite(ctx, ops))
	}

	events, err := repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 4)

	// Timestamp-less events first, ordered by id, then timestamped oldest first.
	got := make([]string, 0, len(events))
	for _, event := range events {
		got = append(got, event.EventID)
	}
	assert.Equal(t, []string{"ev-a", "ev-b", "ev-d", "ev-c"}, got)
}

func TestRepositoryMarkPublishedRemovesFromPending(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	svc := NewService(store)
	repo := NewRepository(store)

	ops, err := svc.Ops(DomainEvent{EventType: enums.EventOrderDeliveryCancelled, OrderID: "o1", Data: map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, store.AtomicWrite(ctx, ops))

	events, err := repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	require.NoError(t, repo.MarkPublished(ctx, events[0]))

	events, err = repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRepositoryMarkFailedGoesDeadAtMaxAttempts(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemoryStore()
	svc := NewService(store)
	repo := NewRepository(store)

	ops, err := svc.Ops(DomainEvent{EventType: enums.EventOrderDeliveryCreated, OrderID: "o1", Data: map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, store.AtomicWrite(ctx, ops))

	events, err := repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	cause := errors.New("topic unavailable")

	require.NoError(t, repo.MarkFailed(ctx, events[0], cause, 2))
	events, err = repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.OutboxStatusFailed, events[0].Status)
	assert.Equal(t, 1, events[0].AttemptCount)
	assert.Equal(t, "topic unavailable", events[0].LastError)

	require.NoError(t, repo.MarkFailed(ctx, events[0], cause, 2))
	events, err = repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
