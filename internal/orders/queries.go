package orders

import (
	"context"
	"encoding/json"
	"sort"

	pkgerrors "github.com/luisarreguin/delifast-backend/pkg/errors"
)

// OrderDetail is an order together with its status history, oldest first.
type OrderDetail struct {
	Order   Order          `json:"order"`
	History []HistoryEntry `json:"history"`
}

// GetOrder loads one order and its full history log.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*OrderDetail, error) {
	if orderID == "" {
		return nil, missingField("orderId")
	}

	var order Order
	found, err := s.store.Read(ctx, orderPath(orderID), &order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	raw, err := s.store.List(ctx, historyPrefix(orderID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order history")
	}
	history := make([]HistoryEntry, 0, len(raw))
	for _, doc := range raw {
		var entry HistoryEntry
		if err := json.Unmarshal(doc, &entry); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode history entry")
		}
		history = append(history, entry)
	}
	sort.Slice(history, func(i, j int) bool {
		a, aok := history[i].At.(string)
		b, bok := history[j].At.(string)
		// Entries without a usable timestamp sort first.
		if !aok || !bok {
			return !aok && bok
		}
		return a < b
	})

	return &OrderDetail{Order: order, History: history}, nil
}

// ListByUser returns every order belonging to the user, via the user index.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	if userID == "" {
		return nil, missingField("userId")
	}
	return s.listFromIndex(ctx, byUserPrefix(userID))
}

// ListByLocal returns every order destined for the merchant.
func (s *Service) ListByLocal(ctx context.Context, localID string) ([]Order, error) {
	if localID == "" {
		return nil, missingField("localId")
	}
	return s.listFromIndex(ctx, byLocalPrefix(localID))
}

func (s *Service) listFromIndex(ctx context.Context, prefix string) ([]Order, error) {
	raw, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list index")
	}

	ids := make([]string, 0, len(raw))
	for _, doc := range raw {
		var entry IndexEntry
		if err := json.Unmarshal(doc, &entry); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode index entry")
		}
		if entry.OrderID != "" {
			ids = append(ids, entry.OrderID)
		}
	}
	sort.Strings(ids)

	out := make([]Order, 0, len(ids))
	for _, id := range ids {
		var order Order
		found, err := s.store.Read(ctx, orderPath(id), &order)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load indexed order")
		}
		if !found {
			// Index and primary write commit together, so a dangling entry
			// points at corrupted state.
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "index entry without order")
		}
		out = append(out, order)
	}
	return out, nil
}
