package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/luisarreguin/delifast-backend/api/responses"
	"github.com/luisarreguin/delifast-backend/api/validators"
	internalorders "github.com/luisarreguin/delifast-backend/internal/orders"
	pkgerrors "github.com/luisarreguin/delifast-backend/pkg/errors"
	"github.com/luisarreguin/delifast-backend/pkg/logger"
)

type createOrderRequest struct {
	UserID         string           `json:"userId"`
	LocalID        string           `json:"localId"`
	ZoneID         string           `json:"zoneId"`
	Location       *locationPayload `json:"location"`
	Items          []itemPayload    `json:"items"`
	DeliveryMethod string           `json:"deliveryMethod"`
	PaymentMethod  string           `json:"paymentMethod"`
	DeliveryFee    *decimal.Decimal `json:"deliveryFee"`
	Discount       *decimal.Decimal `json:"discount"`
	Notes          string           `json:"notes"`
	Customer       *customerPayload `json:"customer"`
	Local          *localPayload    `json:"local"`
}

type locationPayload struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ZoneName    string  `json:"zoneName"`
	AddressText string  `json:"addressText"`
	References  string  `json:"references"`
}

type customerPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type localPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type itemPayload struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Notes     string          `json:"notes"`
}

type cancelOrderRequest struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type createOrderResponse struct {
	OK      bool   `json:"ok"`
	OrderID string `json:"orderId"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Create handles order intake.
func Create(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			UserID:         strings.TrimSpace(req.UserID),
			LocalID:        strings.TrimSpace(req.LocalID),
			ZoneID:         strings.TrimSpace(req.ZoneID),
			DeliveryMethod: strings.TrimSpace(req.DeliveryMethod),
			PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
			Notes:          strings.TrimSpace(req.Notes),
		}
		if req.Location != nil {
			input.Location = &internalorders.Location{
				Lat:         req.Location.Lat,
				Lng:         req.Location.Lng,
				ZoneName:    strings.TrimSpace(req.Location.ZoneName),
				AddressText: strings.TrimSpace(req.Location.AddressText),
				References:  strings.TrimSpace(req.Location.References),
			}
		}
		if req.Customer != nil {
			input.Customer = &internalorders.CustomerSnapshot{
				Name:  strings.TrimSpace(req.Customer.Name),
				Phone: strings.TrimSpace(req.Customer.Phone),
			}
		}
		if req.Local != nil {
			input.Local = &internalorders.LocalSnapshot{
				Name:    strings.TrimSpace(req.Local.Name),
				Address: strings.TrimSpace(req.Local.Address),
				Phone:   strings.TrimSpace(req.Local.Phone),
			}
		}
		if req.DeliveryFee != nil {
			input.DeliveryFee = *req.DeliveryFee
		}
		if req.Discount != nil {
			input.Discount = *req.Discount
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, internalorders.ItemInput{
				ProductID: strings.TrimSpace(item.ProductID),
				Name:      strings.TrimSpace(item.Name),
				Slug:      strings.TrimSpace(item.Slug),
				Image:     strings.TrimSpace(item.Image),
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				Notes:     strings.TrimSpace(item.Notes),
			})
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, createOrderResponse{OK: true, OrderID: order.ID})
	}
}

// Cancel handles user-initiated order cancellation.
func Cancel(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var req cancelOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.CancelOrder(r.Context(), internalorders.CancelOrderInput{
			UserID:  strings.TrimSpace(req.UserID),
			OrderID: strings.TrimSpace(req.OrderID),
			Reason:  strings.TrimSpace(req.Reason),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, okResponse{OK: true})
	}
}

// Detail returns one order with its status history.
func Detail(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderID")
		detail, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// ListByUser returns every order belonging to a user.
func ListByUser(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID := chi.URLParam(r, "userID")
		orders, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}

// ListByLocal returns every order destined for a merchant.
func ListByLocal(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		localID := chi.URLParam(r, "localID")
		orders, err := svc.ListByLocal(r.Context(), localID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"orders": orders})
	}
}
