package payorder

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/storefront-labs/order-svc/internal/service/models/actor"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	MarkPaid(ctx context.Context, act actor.Actor, id string, result order.PaymentResult) (*order.Order, error)
}

// payOrderRequest carries the payment provider confirmation.
type payOrderRequest struct {
	ID         string `json:"id"         validate:"required"`
	Status     string `json:"status"     validate:"required"`
	UpdateTime string `json:"updateTime"`
	Email      string `json:"email"      validate:"omitempty,email"`
}

// Validate validates the pay order request.
func (r *payOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// PayOrder handles the payment confirmation request.
func PayOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := payOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, r, errs.NewValidationError("failed to decode request body"))

		return
	}

	if err := req.Validate(); err != nil {
		httperr.Write(w, r, errs.NewValidationError("%s", err.Error()))

		return
	}

	result := order.PaymentResult{
		ID:         req.ID,
		Status:     req.Status,
		UpdateTime: req.UpdateTime,
		Email:      req.Email,
	}

	paid, err := service.MarkPaid(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "orderID"), result)
	if err != nil {
		httperr.Write(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(paid)
}
