package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

// ErrPreconditionFailed is returned by AtomicWrite when a Precondition no
// longer holds at commit time. The batch is not applied.
var ErrPreconditionFailed = errors.New("docstore: precondition failed")

// IsPreconditionFailed reports whether err came from a failed write guard.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// WriteOp is one location of an atomic batch: either an upsert of Value at
// Path or a deletion of Path.
type WriteOp struct {
	Path   string
	Value  any
	Delete bool
}

// Put builds an upsert op.
func Put(path string, value any) WriteOp {
	return WriteOp{Path: path, Value: value}
}

// Del builds a delete op.
func Del(path string) WriteOp {
	return WriteOp{Path: path, Delete: true}
}

// Precondition asserts that the document at Path has Field equal to Equals
// when the batch commits. Field is a dotted path inside the document; an
// absent document fails the precondition.
type Precondition struct {
	Path   string
	Field  string
	Equals any
}

// Store is the abstract transactional document store the order core writes
// against. A batch passed to AtomicWrite is applied in full or not at all.
type Store interface {
	// AllocateID returns a fresh unique identifier for a document in the
	// given collection.
	AllocateID(ctx context.Context, collection string) (string, error)
	// AtomicWrite applies every op in one transaction, first verifying the
	// preconditions. Returns ErrPreconditionFailed (possibly wrapped) when a
	// guard no longer holds.
	AtomicWrite(ctx context.Context, ops []WriteOp, preconds ...Precondition) error
	// Read unmarshals the document at path into dest and reports whether it
	// exists.
	Read(ctx context.Context, path string, dest any) (bool, error)
	// List returns the raw documents whose path starts with prefix, keyed by
	// full path.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)
	// ServerTimestamp returns a sentinel value resolved to the store's clock
	// at commit time.
	ServerTimestamp() any
}

// Timestamp is the server-timestamp sentinel. It marshals to a marker object
// that the store implementations replace with the commit time.
type Timestamp struct{}

const serverTimestampKey = ".sv/timestamp"

// TimeFormat is how resolved timestamps are stored inside documents.
const TimeFormat = time.RFC3339Nano

func (Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]bool{serverTimestampKey: true})
}

// Join builds a path from segments, rejecting empty segments.
func Join(segments ...string) string {
	clean := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.TrimSpace(strings.Trim(s, "/"))
		if s == "" {
			continue
		}
		clean = append(clean, s)
	}
	return strings.Join(clean, "/")
}

// encodeValue marshals a document value and resolves any server-timestamp
// sentinels against the provided commit time.
func encodeValue(value any, at time.Time) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	resolved := resolveTimestamps(decoded, at)
	out, err := json.Marshal(resolved)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

func resolveTimestamps(value any, at time.Time) any {
	switch v := value.(type) {
	case map[string]any:
		if isTimestampSentinel(v) {
			return at.UTC().Format(TimeFormat)
		}
		for key, nested := range v {
			v[key] = resolveTimestamps(nested, at)
		}
		return v
	case []any:
		for i, nested := range v {
			v[i] = resolveTimestamps(nested, at)
		}
		return v
	default:
		return value
	}
}

func isTimestampSentinel(v map[string]any) bool {
	if len(v) != 1 {
		return false
	}
	marker, ok := v[serverTimestampKey].(bool)
	return ok && marker
}

// checkPrecondition compares the dotted field inside raw against want. The
// expected value is JSON-normalized first so typed values (enums, ints)
// compare equal to their decoded form.
func checkPrecondition(raw json.RawMessage, pre Precondition) error {
	if raw == nil {
		return fmt.Errorf("%w: %s is absent", ErrPreconditionFailed, pre.Path)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode document %s: %w", pre.Path, err)
	}
	got, ok := fieldAt(doc, pre.Field)
	if !ok {
		return fmt.Errorf("%w: %s has no field %q", ErrPreconditionFailed, pre.Path, pre.Field)
	}
	want, err := normalize(pre.Equals)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(got, want) {
		return fmt.Errorf("%w: %s field %q is %v, expected %v", ErrPreconditionFailed, pre.Path, pre.Field, got, want)
	}
	return nil
}

func fieldAt(doc any, field string) (any, bool) {
	current := doc
	for _, segment := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func normalize(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize expected value: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
