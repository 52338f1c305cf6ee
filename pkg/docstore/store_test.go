package docstore

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "ordersDelivery/o1", Join("ordersDelivery", "o1"))
	assert.Equal(t, "ordersDelivery/o1/history/h1", Join("ordersDelivery/", "o1", "history", "h1"))
	assert.Equal(t, "ordersDelivery", Join("ordersDelivery", "", "  "))
}

func TestEncodeValueResolvesTimestamps(t *testing.T) {
	at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	raw, err := encodeValue(map[string]any{
		"status":    "created",
		"createdAt": Timestamp{},
		"history": []any{
			map[string]any{"at": Timestamp{}},
		},
	}, at)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	want := at.Format(TimeFormat)
	assert.Equal(t, want, decoded["createdAt"])
	assert.Equal(t, "created", decoded["status"])

	history := decoded["history"].([]any)
	entry := history[0].(map[string]any)
	assert.Equal(t, want, entry["at"])
}

func TestCheckPrecondition(t *testing.T) {
	doc := json.RawMessage(`{"status":"created","totals":{"total":"100"}}`)

	t.Run("match", func(t *testing.T) {
		err := checkPrecondition(doc, Precondition{Path: "ordersDelivery/o1", Field: "status", Equals: "created"})
		assert.NoError(t, err)
	})

	t.Run("nested field", func(t *testing.T) {
		err := checkPrecondition(doc, Precondition{Path: "ordersDelivery/o1", Field: "totals.total", Equals: "100"})
		assert.NoError(t, err)
	})

	t.Run("mismatch", func(t *testing.T) {
		err := checkPrecondition(doc, Precondition{Path: "ordersDelivery/o1", Field: "status", Equals: "cancelled"})
		assert.True(t, errors.Is(err, ErrPreconditionFailed))
	})

	t.Run("absent document", func(t *testing.T) {
		err := checkPrecondition(nil, Precondition{Path: "ordersDelivery/gone", Field: "status", Equals: "created"})
		assert.True(t, errors.Is(err, ErrPreconditionFailed))
	})

	t.Run("absent field", func(t *testing.T) {
		err := checkPrecondition(doc, Precondition{Path: "ordersDelivery/o1", Field: "cancel.reason", Equals: "x"})
		assert.True(t, errors.Is(err, ErrPreconditionFailed))
	})
}
