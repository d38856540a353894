package createorder

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/storefront-labs/order-svc/internal/service/models/actor"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/service/services/ordersvc"
	"github.com/storefront-labs/order-svc/internal/service/services/reservation"
	"github.com/storefront-labs/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, act actor.Actor, model ordersvc.CreateOrderModel) (*order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"  validate:"gte=1"`
}

// shippingAddressRequest represents the shipping address in a create order request.
type shippingAddressRequest struct {
	Address    string `json:"address"    validate:"required"`
	City       string `json:"city"       validate:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	Items           []itemInCreateOrderRequest `json:"items"           validate:"required,min=1,dive"`
	Email           string                     `json:"email"           validate:"required,email"`
	ShippingAddress shippingAddressRequest     `json:"shippingAddress" validate:"required"`
	PaymentMethod   string                     `json:"paymentMethod"   validate:"required"`
	Notes           string                     `json:"notes"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toModel converts createOrderRequest to the service-layer checkout model.
func (r *createOrderRequest) toModel() (ordersvc.CreateOrderModel, error) {
	method, err := order.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return ordersvc.CreateOrderModel{}, errs.NewValidationError("unknown payment method %q", r.PaymentMethod)
	}

	items := make([]reservation.Line, len(r.Items))
	for i, item := range r.Items {
		items[i] = reservation.Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	return ordersvc.CreateOrderModel{
		Items: items,
		Email: r.Email,
		ShippingAddress: order.ShippingAddress{
			Address:    r.ShippingAddress.Address,
			City:       r.ShippingAddress.City,
			State:      r.ShippingAddress.State,
			PostalCode: r.ShippingAddress.PostalCode,
			Country:    r.ShippingAddress.Country,
		},
		PaymentMethod: method,
		Notes:         r.Notes,
	}, nil
}

// CreateOrder handles the checkout request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, r, errs.NewValidationError("failed to decode request body"))

		return
	}

	if err := req.Validate(); err != nil {
		httperr.Write(w, r, errs.NewValidationError("%s", err.Error()))

		return
	}

	model, err := req.toModel()
	if err != nil {
		httperr.Write(w, r, err)

		return
	}

	created, err := service.CreateOrder(r.Context(), actor.FromContext(r.Context()), model)
	if err != nil {
		httperr.Write(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}
