package docstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a process-local Store used by unit tests and local tooling.
// A single mutex guards the whole map, so every batch is trivially atomic.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
	now  func() time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]json.RawMessage),
		now:  time.Now,
	}
}

// WithClock overrides the commit clock, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *MemoryStore) AllocateID(ctx context.Context, collection string) (string, error) {
	_ = collection
	return uuid.NewString(), nil
}

func (s *MemoryStore) ServerTimestamp() any {
	return Timestamp{}
}

func (s *MemoryStore) AtomicWrite(ctx context.Context, ops []WriteOp, preconds ...Precondition) error {
	if len(ops) == 0 {
		return nil
	}
	commitAt := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pre := range preconds {
		if err := checkPrecondition(s.docs[pre.Path], pre); err != nil {
			return err
		}
	}

	// Encode everything before touching the map so a marshal failure leaves
	// the store untouched.
	staged := make([]json.RawMessage, len(ops))
	for i, op := range ops {
		if op.Delete {
			continue
		}
		value, err := encodeValue(op.Value, commitAt)
		if err != nil {
			return err
		}
		staged[i] = value
	}

	for i, op := range ops {
		if op.Delete {
			delete(s.docs, op.Path)
			continue
		}
		s.docs[op.Path] = staged[i]
	}
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, path string, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.docs[path]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if dest == nil {
		return true, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage)
	for path, raw := range s.docs {
		if strings.HasPrefix(path, prefix) {
			out[path] = raw
		}
	}
	return out, nil
}
