package cancelorder

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storefront-labs/order-svc/internal/service/models/actor"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/transport/http/httperr"
)

// service is an interface for the service layer.
type service interface {
	Cancel(ctx context.Context, act actor.Actor, id string) (*order.Order, error)
}

// CancelOrder handles the cancellation request. It takes no body.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
	cancelled, err := service.Cancel(r.Context(), actor.FromContext(r.Context()), chi.URLParam(r, "orderID"))
	if err != nil {
		httperr.Write(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cancelled)
}
