package updatestatus

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
	SetStatus(ctx context.Context, act actor.Actor, id string, status order.Status, trackingNumber string) (*order.Order, error)
}

// updateStatusRequest represents an admin status update.
type updateStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	TrackingNumber string `json:"trackingNumber"`
}

// Validate validates the update status request.
func (r *updateStatusRequest) Validate() error {
	return validator.New().Struct(r)
}

// UpdateStatus handles the admin status update request.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	req := updateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, r, errs.NewValidationError("failed to decode request body"))

		return
	}

	if err := req.Validate(); err != nil {
		httperr.Write(w, r, errs.NewValidationError("%s", err.Error()))

		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		httperr.Write(w, r, errs.NewValidationError("unknown status %q", req.Status))

		return
	}

	updated, err := service.SetStatus(
		r.Context(),
		actor.FromContext(r.Context()),
		chi.URLParam(r, "orderID"),
		status,
		req.TrackingNumber,
	)
	if err != nil {
		httperr.Write(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}
