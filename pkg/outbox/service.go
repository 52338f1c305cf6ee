package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/luisarreguin/delifast-backend/pkg/docstore"
	"github.com/luisarreguin/delifast-backend/pkg/enums"
)

// Collection is the document tree holding pending and published events.
const Collection = "outboxDelivery"

// DomainEvent is what producers hand to the outbox.
type DomainEvent struct {
	EventType  enums.OutboxEventType
	OrderID    string
	Actor      *ActorRef
	Data       any
	Version    int
	OccurredAt time.Time
}

// Event is the persisted outbox document.
type Event struct {
	EventID      string                `json:"eventId"`
	EventType    enums.OutboxEventType `json:"eventType"`
	OrderID      string                `json:"orderId"`
	Status       enums.OutboxStatus    `json:"status"`
	Payload      PayloadEnvelope       `json:"payload"`
	AttemptCount int                   `json:"attemptCount"`
	LastError    string                `json:"lastError,omitempty"`
	CreatedAt    any                   `json:"createdAt"`
	PublishedAt  *time.Time            `json:"publishedAt,omitempty"`
}

// Service turns domain events into write ops that ride the producer's own
// atomic batch, so an event exists exactly when its order mutation does.
type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// Ops builds the write op for one event. The caller appends it to the same
// batch as the state change the event describes.
func (s *Service) Ops(event DomainEvent) ([]docstore.WriteOp, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.Version == 0 {
		event.Version = 1
	}
	eventID := uuid.NewString()
	doc := Event{
		EventID:   eventID,
		EventType: event.EventType,
		OrderID:   event.OrderID,
		Status:    enums.OutboxStatusPending,
		Payload: PayloadEnvelope{
			Version:    event.Version,
			EventID:    eventID,
			OccurredAt: event.OccurredAt.UTC(),
			Actor:      event.Actor,
			Data:       payload,
		},
		CreatedAt: s.store.ServerTimestamp(),
	}
	return []docstore.WriteOp{
		docstore.Put(docstore.Join(Collection, eventID), doc),
	}, nil
}
