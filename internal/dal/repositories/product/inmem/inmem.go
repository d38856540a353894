package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
)

// ProductRepository is a mutex-protected in-memory product store. It honors
// the same contract as the Postgres repository: stock is only mutated through
// conditional increments/decrements that are atomic with respect to each other.
type ProductRepository struct {
	mu       sync.Mutex
	products map[string]product.Product
}

// NewProductRepository creates an empty in-memory product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]product.Product),
	}
}

// Put stores or replaces a product. Used for seeding.
func (r *ProductRepository) Put(p product.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = p
}

// GetByID retrieves a single product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	return &p, nil
}

// Query retrieves products based on filter criteria.
func (r *ProductRepository) Query(
	ctx context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make(map[string]struct{}, len(filter.Ids))
	for _, id := range filter.Ids {
		ids[id] = struct{}{}
	}

	var result []product.Product
	for _, p := range r.products {
		if len(ids) > 0 {
			if _, ok := ids[p.ID]; !ok {
				continue
			}
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		result = append(result, p)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []product.Product{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// TryDecrementStock subtracts qty from the product's stock only if the current
// stock covers it. The mutex makes the check-and-subtract indivisible.
func (r *ProductRepository) TryDecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return false, errs.ErrNotFound
	}

	if p.Stock < qty {
		return false, nil
	}

	p.Stock -= qty
	r.products[id] = p

	return true, nil
}

// IncrementStock adds qty back onto the product's stock.
func (r *ProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return errs.ErrNotFound
	}

	p.Stock += qty
	r.products[id] = p

	return nil
}
