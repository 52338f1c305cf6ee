package orders

import (
	"context"
	"fmt"
	"math"

	"github.com/luisarreguin/delifast-backend/pkg/docstore"
	"github.com/luisarreguin/delifast-backend/pkg/enums"
	pkgerrors "github.com/luisarreguin/delifast-backend/pkg/errors"
	"github.com/luisarreguin/delifast-backend/pkg/logger"
	"github.com/luisarreguin/delifast-backend/pkg/outbox"
	"github.com/shopspring/decimal"
)

// actorUser is the only actor that drives transitions in this service.
const actorUser = "user"

type outboxEmitter interface {
	Ops(event outbox.DomainEvent) ([]docstore.WriteOp, error)
}

// OrderEvent is the payload published when an order is created or cancelled.
type OrderEvent struct {
	OrderID string            `json:"orderId"`
	UserID  string            `json:"userId"`
	LocalID string            `json:"localId"`
	Status  enums.OrderStatus `json:"status"`
	Reason  string            `json:"reason,omitempty"`
}

// Service owns order intake and cancellation against the document store.
type Service struct {
	store    docstore.Store
	outbox   outboxEmitter
	logg     *logger.Logger
	currency enums.Currency
}

// NewService builds the order service with the required dependencies.
func NewService(store docstore.Store, emitter outboxEmitter, logg *logger.Logger, currency string) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	cur := enums.CurrencyMXN
	if currency != "" {
		parsed, err := enums.ParseCurrency(currency)
		if err != nil {
			return nil, err
		}
		cur = parsed
	}
	return &Service{store: store, outbox: emitter, logg: logg, currency: cur}, nil
}

// CreateOrder validates and normalizes the intake request, computes totals,
// and persists the order, its first history entry and all three index
// entries in one atomic batch.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if err := validateIntake(input); err != nil {
		return nil, err
	}

	orderType, err := resolveOrderType(input.DeliveryMethod)
	if err != nil {
		return nil, err
	}
	paymentMethod, err := resolvePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, len(input.Items))
	subtotal := decimal.Zero
	for i, item := range input.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items[i] = LineItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Slug:       item.Slug,
			Image:      item.Image,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: lineTotal,
			Notes:      item.Notes,
		}
		subtotal = subtotal.Add(lineTotal)
	}

	total := subtotal.Add(input.DeliveryFee).Sub(input.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	orderID, err := s.store.AllocateID(ctx, CollectionOrders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order id")
	}
	historyID, err := s.store.AllocateID(ctx, historyPrefix(orderID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate history id")
	}

	order := Order{
		ID:       orderID,
		UserID:   input.UserID,
		LocalID:  input.LocalID,
		ZoneID:   input.ZoneID,
		Type:     orderType,
		Status:   enums.OrderStatusCreated,
		Location: *input.Location,
		Items:    items,
		Totals: Totals{
			Subtotal:    subtotal,
			DeliveryFee: input.DeliveryFee,
			Discount:    input.Discount,
			Total:       total,
			Currency:    s.currency,
		},
		Payment: Payment{
			Method: paymentMethod,
			Status: enums.PaymentStatusPending,
		},
		Customer:  input.Customer,
		Local:     input.Local,
		Notes:     input.Notes,
		CreatedAt: s.store.ServerTimestamp(),
		UpdatedAt: s.store.ServerTimestamp(),
	}

	entry := HistoryEntry{
		Status: enums.OrderStatusCreated,
		By:     actorUser,
		At:     s.store.ServerTimestamp(),
	}
	index := IndexEntry{OrderID: orderID, Status: enums.OrderStatusCreated}

	ops := []docstore.WriteOp{
		docstore.Put(orderPath(orderID), order),
		docstore.Put(historyPath(orderID, historyID), entry),
		docstore.Put(byUserPath(input.UserID, orderID), index),
		docstore.Put(byLocalPath(input.LocalID, orderID), index),
		docstore.Put(byStatusPath(enums.OrderStatusCreated, orderID), index),
	}

	eventOps, err := s.outbox.Ops(outbox.DomainEvent{
		EventType: enums.EventOrderDeliveryCreated,
		OrderID:   orderID,
		Actor:     &outbox.ActorRef{UserID: input.UserID, Role: actorUser},
		Data: OrderEvent{
			OrderID: orderID,
			UserID:  input.UserID,
			LocalID: input.LocalID,
			Status:  enums.OrderStatusCreated,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order event")
	}
	ops = append(ops, eventOps...)

	if err := s.store.AtomicWrite(ctx, ops); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	ctx = s.logg.WithOrderID(ctx, orderID)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"userId":  input.UserID,
		"localId": input.LocalID,
		"total":   total.String(),
	})
	s.logg.Info(ctx, "order created")

	return &order, nil
}

// CancelOrder cancels an order owned by the caller. The status mutation,
// history append and status-index move commit in one batch guarded by a
// compare-and-swap on the current status, so a concurrent transition makes
// the whole batch fail instead of leaving a stale index entry.
func (s *Service) CancelOrder(ctx context.Context, input CancelOrderInput) error {
	if input.UserID == "" {
		return missingField("userId")
	}
	if input.OrderID == "" {
		return missingField("orderId")
	}

	var order Order
	found, err := s.store.Read(ctx, orderPath(input.OrderID), &order)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.UserID != input.UserID {
		// Same generic message whether the order exists or not.
		return pkgerrors.New(pkgerrors.CodeForbidden, "not allowed")
	}
	priorStatus := order.Status
	if !priorStatus.CanCancel() {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot be cancelled from status %q", priorStatus)).
			WithDetails(map[string]any{"currentStatus": priorStatus})
	}

	historyID, err := s.store.AllocateID(ctx, historyPrefix(input.OrderID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate history id")
	}

	order.Status = enums.OrderStatusCancelled
	order.CancelReason = input.Reason
	order.UpdatedAt = s.store.ServerTimestamp()
	order.CancelledAt = s.store.ServerTimestamp()

	entry := HistoryEntry{
		Status: enums.OrderStatusCancelled,
		By:     actorUser,
		Reason: input.Reason,
		At:     s.store.ServerTimestamp(),
	}
	index := IndexEntry{OrderID: order.ID, Status: enums.OrderStatusCancelled}

	ops := []docstore.WriteOp{
		docstore.Put(orderPath(order.ID), order),
		docstore.Put(historyPath(order.ID, historyID), entry),
		docstore.Put(byUserPath(order.UserID, order.ID), index),
		docstore.Put(byLocalPath(order.LocalID, order.ID), index),
		docstore.Del(byStatusPath(priorStatus, order.ID)),
		docstore.Put(byStatusPath(enums.OrderStatusCancelled, order.ID), index),
	}

	eventOps, err := s.outbox.Ops(outbox.DomainEvent{
		EventType: enums.EventOrderDeliveryCancelled,
		OrderID:   order.ID,
		Actor:     &outbox.ActorRef{UserID: input.UserID, Role: actorUser},
		Data: OrderEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			LocalID: order.LocalID,
			Status:  enums.OrderStatusCancelled,
			Reason:  input.Reason,
		},
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cancel event")
	}
	ops = append(ops, eventOps...)

	err = s.store.AtomicWrite(ctx, ops, docstore.Precondition{
		Path:   orderPath(order.ID),
		Field:  "status",
		Equals: priorStatus,
	})
	if err != nil {
		if docstore.IsPreconditionFailed(err) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cancellation")
	}

	ctx = s.logg.WithOrderID(ctx, order.ID)
	ctx = s.logg.WithField(ctx, "priorStatus", priorStatus.String())
	s.logg.Info(ctx, "order cancelled")

	return nil
}

func validateIntake(input CreateOrderInput) error {
	if input.UserID == "" {
		return missingField("userId")
	}
	if input.LocalID == "" {
		return missingField("localId")
	}
	if input.ZoneID == "" {
		return missingField("zoneId")
	}
	if input.Location == nil {
		return missingField("location")
	}
	if !validLocation(*input.Location) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid location").
			WithDetails(map[string]any{"field": "location"})
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items").
			WithDetails(map[string]any{"field": "items"})
	}
	for i, item := range input.Items {
		if reason := invalidItemReason(item); reason != "" {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid item at index %d: %s", i, reason)).
				WithDetails(map[string]any{"index": i, "reason": reason})
		}
	}
	if input.DeliveryFee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "deliveryFee cannot be negative").
			WithDetails(map[string]any{"field": "deliveryFee"})
	}
	if input.Discount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative").
			WithDetails(map[string]any{"field": "discount"})
	}
	return nil
}

func missingField(field string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "missing "+field).
		WithDetails(map[string]any{"field": field})
}

func validLocation(loc Location) bool {
	if math.IsNaN(loc.Lat) || math.IsInf(loc.Lat, 0) {
		return false
	}
	if math.IsNaN(loc.Lng) || math.IsInf(loc.Lng, 0) {
		return false
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
		return false
	}
	return true
}

func invalidItemReason(item ItemInput) string {
	if item.ProductID == "" {
		return "missing productId"
	}
	if item.Quantity <= 0 {
		return "quantity must be positive"
	}
	if item.UnitPrice.IsNegative() {
		return "unitPrice cannot be negative"
	}
	return ""
}

func resolveOrderType(deliveryMethod string) (enums.OrderType, error) {
	if deliveryMethod == "" {
		return enums.OrderTypeDelivery, nil
	}
	orderType, err := enums.ParseOrderType(deliveryMethod)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid deliveryMethod").
			WithDetails(map[string]any{"field": "deliveryMethod"})
	}
	return orderType, nil
}

func resolvePaymentMethod(method string) (enums.PaymentMethod, error) {
	if method == "" {
		return enums.PaymentMethodCash, nil
	}
	parsed, err := enums.ParsePaymentMethod(method)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid paymentMethod").
			WithDetails(map[string]any{"field": "paymentMethod"})
	}
	return parsed, nil
}
