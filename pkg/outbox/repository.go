package outbox

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/luisarreguin/delifast-backend/pkg/docstore"
	"github.com/luisarreguin/delifast-backend/pkg/enums"
)

// Repository reads and transitions outbox documents for the publisher loop.
type Repository struct {
	store docstore.Store
}

func NewRepository(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// FetchPending returns up to limit events still awaiting publication, oldest
// first. Events marked failed stay eligible until they go dead.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	raw, err := r.store.List(ctx, Collection+"/")
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(raw))
	for _, doc := range raw {
		var event Event
		if err := json.Unmarshal(doc, &event); err != nil {
			return nil, err
		}
		if event.Status != enums.OutboxStatusPending && event.Status != enums.OutboxStatusFailed {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool {
		a, aok := events[i].CreatedAt.(string)
		b, bok := events[j].CreatedAt.(string)
		// Events without a usable timestamp sort first.
		if aok != bok {
			return !aok
		}
		if aok && a != b {
			return a < b
		}
		return events[i].EventID < events[j].EventID
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// MarkPublished stamps the event as delivered.
func (r *Repository) MarkPublished(ctx context.Context, event Event) error {
	now := time.Now().UTC()
	event.Status = enums.OutboxStatusPublished
	event.PublishedAt = &now
	event.LastError = ""
	return r.write(ctx, event)
}

// MarkFailed records one more failed attempt. Once attempts reach
// maxAttempts the event is parked as dead and stops being fetched.
func (r *Repository) MarkFailed(ctx context.Context, event Event, cause error, maxAttempts int) error {
	event.AttemptCount++
	event.Status = enums.OutboxStatusFailed
	if maxAttempts > 0 && event.AttemptCount >= maxAttempts {
		event.Status = enums.OutboxStatusDead
	}
	if cause != nil {
		event.LastError = truncateError(cause.Error())
	}
	return r.write(ctx, event)
}

func (r *Repository) write(ctx context.Context, event Event) error {
	return r.store.AtomicWrite(ctx, []docstore.WriteOp{
		docstore.Put(docstore.Join(Collection, event.EventID), event),
	})
}

const maxErrorLen = 1024

func truncateError(message string) string {
	if len(message) <= maxErrorLen {
		return message
	}
	return message[:maxErrorLen]
}
