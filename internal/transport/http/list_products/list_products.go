package listproducts

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
	"github.com/storefront-labs/order-svc/internal/transport/http/httperr"
)

type service interface {
	GetProducts(ctx context.Context, model product.QueryProductsModel) ([]product.Product, error)
}

type queryProductsRequest struct {
	Ids        []string `schema:"ids,omitempty"`
	ActiveOnly bool     `schema:"activeOnly,omitempty"`
	Limit      int      `schema:"limit,omitempty"`
	Offset     int      `schema:"offset,omitempty"`
}

func (q *queryProductsRequest) ToModel() product.QueryProductsModel {
	return product.QueryProductsModel{
		Ids:        q.Ids,
		ActiveOnly: q.ActiveOnly,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
}

func ListProducts(w http.ResponseWriter, r *http.Request, service service) {
	decoder := schema.NewDecoder()
	query := &queryProductsRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		httperr.Write(w, r, errs.NewValidationError("failed to decode query: %s", err.Error()))

		return
	}

	products, err := service.GetProducts(r.Context(), query.ToModel())
	if err != nil {
		httperr.Write(w, r, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(products)
}
