package iproductrepo

import (
	"context"

	"github.com/storefront-labs/order-svc/internal/service/models/product"
)

// IProductRepository is the product store contract consumed by the order core.
// TryDecrementStock and IncrementStock are single indivisible operations
// against the store; they are the only way stock is ever mutated.
type IProductRepository interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error)

	// TryDecrementStock subtracts qty from the product's stock only if the
	// current stock covers it. It reports whether the decrement was applied.
	TryDecrementStock(ctx context.Context, id string, qty int) (bool, error)

	// IncrementStock adds qty back onto the product's stock.
	IncrementStock(ctx context.Context, id string, qty int) error
}
