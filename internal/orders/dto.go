package orders

import (
	"github.com/luisarreguin/delifast-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CreateOrderInput is the already-parsed intake request. Location is nil when
// the caller never sent one.
type CreateOrderInput struct {
	UserID         string
	LocalID        string
	ZoneID         string
	Location       *Location
	Items          []ItemInput
	DeliveryMethod string
	PaymentMethod  string
	DeliveryFee    decimal.Decimal
	Discount       decimal.Decimal
	Notes          string
	Customer       *CustomerSnapshot
	Local          *LocalSnapshot
}

// ItemInput is one proposed basket line.
type ItemInput struct {
	ProductID string
	Name      string
	Slug      string
	Image     string
	Quantity  int
	UnitPrice decimal.Decimal
	Notes     string
}

// CancelOrderInput carries the data needed to cancel an existing order.
type CancelOrderInput struct {
	UserID  string
	OrderID string
	Reason  string
}

// Location is a geographic point inside the delivery zone, plus the display
// address the customer typed.
type Location struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ZoneName    string  `json:"zoneName,omitempty"`
	AddressText string  `json:"addressText,omitempty"`
	References  string  `json:"references,omitempty"`
}

// CustomerSnapshot is the display copy of the customer captured at creation
// time, never re-synced afterwards.
type CustomerSnapshot struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// LocalSnapshot is the display copy of the merchant captured at creation
// time, never re-synced afterwards.
type LocalSnapshot struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// LineItem is a persisted, normalized basket line.
type LineItem struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name,omitempty"`
	Slug       string          `json:"slug,omitempty"`
	Image      string          `json:"image,omitempty"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Notes      string          `json:"notes,omitempty"`
}

// Totals aggregates the money on an order. Subtotal is the sum of line
// totals; Total never goes below zero.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	Currency    enums.Currency  `json:"currency"`
}

// Payment is the placeholder recorded at intake; later stages transition it.
type Payment struct {
	Method enums.PaymentMethod `json:"method"`
	Status enums.PaymentStatus `json:"status"`
}

// Order is the aggregate document persisted per order. Timestamp fields hold
// the server-timestamp sentinel on write and RFC3339 strings on read.
// DeliveryManID stays null until a courier is assigned, which happens outside
// this service.
type Order struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	LocalID       string            `json:"localId"`
	ZoneID        string            `json:"zoneId"`
	DeliveryManID *string           `json:"deliveryManId"`
	Type          enums.OrderType   `json:"type"`
	Status        enums.OrderStatus `json:"status"`
	Location      Location          `json:"location"`
	Items         []LineItem        `json:"items"`
	Totals        Totals            `json:"totals"`
	Payment       Payment           `json:"payment"`
	Customer      *CustomerSnapshot `json:"customerSnapshot,omitempty"`
	Local         *LocalSnapshot    `json:"localSnapshot,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	CancelReason  string            `json:"cancelReason,omitempty"`
	CreatedAt     any               `json:"createdAt"`
	UpdatedAt     any               `json:"updatedAt"`
	CancelledAt   any               `json:"cancelledAt,omitempty"`
}

// HistoryEntry is an immutable record of one status transition.
type HistoryEntry struct {
	Status enums.OrderStatus `json:"status"`
	By     string            `json:"by"`
	Reason string            `json:"reason,omitempty"`
	At     any               `json:"at"`
}

// IndexEntry is the small document kept under each secondary index bucket.
// Membership is presence; the snapshot fields just save a read when listing.
type IndexEntry struct {
	OrderID string            `json:"orderId"`
	Status  enums.OrderStatus `json:"status"`
}
