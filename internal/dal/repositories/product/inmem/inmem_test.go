package inmem

import (
	"context"
	"sync"
	"testing"

	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
	"github.com/stretchr/testify/require"
)

func TestTryDecrementStock(t *testing.T) {
	repo := NewProductRepository()
	repo.Put(product.Product{ID: "p1", Stock: 3})

	ok, err := repo.TryDecrementStock(context.Background(), "p1", 2)
	require.NoError(t, err)
	require.True(t, ok)

	// Remaining stock of 1 cannot cover another 2.
	ok, err = repo.TryDecrementStock(context.Background(), "p1", 2)
	require.NoError(t, err)
	require.False(t, ok)

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 1, p.Stock)

	_, err = repo.TryDecrementStock(context.Background(), "ghost", 1)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestConcurrentDecrementsNeverGoNegative(t *testing.T) {
	const (
		initialStock = 50
		workers      = 200
	)

	repo := NewProductRepository()
	repo.Put(product.Product{ID: "p1", Stock: initialStock})

	var wg sync.WaitGroup
	granted := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryDecrementStock(context.Background(), "p1", 1)
			require.NoError(t, err)
			if ok {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	require.Equal(t, initialStock, len(granted))

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 0, p.Stock)
}

func TestIncrementStock(t *testing.T) {
	repo := NewProductRepository()
	repo.Put(product.Product{ID: "p1", Stock: 1})

	require.NoError(t, repo.IncrementStock(context.Background(), "p1", 4))

	p, err := repo.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)

	require.ErrorIs(t, repo.IncrementStock(context.Background(), "ghost", 1), errs.ErrNotFound)
}

func TestQueryFilters(t *testing.T) {
	repo := NewProductRepository()
	repo.Put(product.Product{ID: "a", IsActive: true})
	repo.Put(product.Product{ID: "b", IsActive: false})
	repo.Put(product.Product{ID: "c", IsActive: true})

	active, err := repo.Query(context.Background(), &product.QueryProductsModel{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 2)

	byID, err := repo.Query(context.Background(), &product.QueryProductsModel{Ids: []string{"b"}})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	require.Equal(t, "b", byID[0].ID)

	paged, err := repo.Query(context.Background(), &product.QueryProductsModel{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "b", paged[0].ID)
}
