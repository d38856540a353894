package getproduct

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
	"github.com/storefront-labs/order-svc/internal/transport/http/httperr"
)

type service interface {
	GetProduct(ctx context.Context, id string) (*product.Product, error)
}

// GetProduct handles the fetch-product request.
func GetProduct(w http.ResponseWriter, r *http.Request, service service) {
	p, err := service.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		httperr.Write(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}
