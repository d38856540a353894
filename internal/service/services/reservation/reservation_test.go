package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/storefront-labs/order-svc/internal/dal/repositories/product/inmem"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
	"github.com/stretchr/testify/require"
)

func newStore(products ...product.Product) *inmem.ProductRepository {
	store := inmem.NewProductRepository()
	for _, p := range products {
		store.Put(p)
	}

	return store
}

func stockOf(t *testing.T, store *inmem.ProductRepository, id string) int {
	t.Helper()

	p, err := store.GetByID(context.Background(), id)
	require.NoError(t, err)

	return p.Stock
}

func TestReserveSnapshotsDiscountedPrice(t *testing.T) {
	store := newStore(product.Product{
		ID:          "p1",
		Name:        "Mechanical Keyboard",
		ImageURL:    "/images/keyboard.jpg",
		PriceCents:  12500,
		DiscountPct: 10,
		Stock:       5,
		IsActive:    true,
	})
	mgr := NewManager(store)

	items, err := mgr.Reserve(context.Background(), []Line{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.Equal(t, "p1", items[0].ProductID)
	require.Equal(t, "Mechanical Keyboard", items[0].Name)
	require.EqualValues(t, 11250, items[0].PriceCents)
	require.Equal(t, 2, items[0].Quantity)

	require.Equal(t, 3, stockOf(t, store, "p1"))
}

func TestReserveRejectsUnknownProduct(t *testing.T) {
	mgr := NewManager(newStore())

	_, err := mgr.Reserve(context.Background(), []Line{{ProductID: "ghost", Quantity: 1}})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReserveRejectsInactiveProduct(t *testing.T) {
	store := newStore(product.Product{ID: "p1", PriceCents: 100, Stock: 10, IsActive: false})
	mgr := NewManager(store)

	_, err := mgr.Reserve(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})

	var unavailable *errs.ProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "p1", unavailable.ProductID)
	require.Equal(t, 10, stockOf(t, store, "p1"))
}

func TestReserveReportsAvailableStock(t *testing.T) {
	store := newStore(product.Product{ID: "p1", PriceCents: 100, Stock: 3, IsActive: true})
	mgr := NewManager(store)

	_, err := mgr.Reserve(context.Background(), []Line{{ProductID: "p1", Quantity: 5}})

	var insufficient *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "p1", insufficient.ProductID)
	require.Equal(t, 5, insufficient.Requested)
	require.Equal(t, 3, insufficient.Available)

	require.Equal(t, 3, stockOf(t, store, "p1"))
}

func TestReserveRejectsInvalidQuantity(t *testing.T) {
	store := newStore(product.Product{ID: "p1", PriceCents: 100, Stock: 10, IsActive: true})
	mgr := NewManager(store)

	_, err := mgr.Reserve(context.Background(), []Line{{ProductID: "p1", Quantity: 0}})

	var validation *errs.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, 10, stockOf(t, store, "p1"))
}

func TestReserveFailureCompensatesGrantedClaims(t *testing.T) {
	store := newStore(
		product.Product{ID: "a", PriceCents: 100, Stock: 10, IsActive: true},
		product.Product{ID: "b", PriceCents: 100, Stock: 10, IsActive: true},
		product.Product{ID: "c", PriceCents: 100, Stock: 10, IsActive: true},
	)
	// Fail the claim on "c" after "a" and "b" were already granted.
	mgr := NewManager(&conflictingRepo{ProductRepository: store, conflictOn: "c"})

	_, err := mgr.Reserve(context.Background(), []Line{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 3},
		{ProductID: "c", Quantity: 1},
	})

	var conflict *errs.ReservationConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "c", conflict.ProductID)

	// Net stock change must be zero.
	require.Equal(t, 10, stockOf(t, store, "a"))
	require.Equal(t, 10, stockOf(t, store, "b"))
	require.Equal(t, 10, stockOf(t, store, "c"))
}

func TestReserveCompensatesWhenContextCancelled(t *testing.T) {
	store := newStore(
		product.Product{ID: "a", PriceCents: 100, Stock: 10, IsActive: true},
		product.Product{ID: "b", PriceCents: 100, Stock: 10, IsActive: true},
	)
	mgr := NewManager(&conflictingRepo{ProductRepository: store, conflictOn: "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The in-memory store ignores ctx, so the claim on "a" succeeds and
	// the conflict on "b" triggers compensation under a cancelled context.
	_, err := mgr.Reserve(ctx, []Line{
		{ProductID: "a", Quantity: 4},
		{ProductID: "b", Quantity: 1},
	})
	require.Error(t, err)
	require.Equal(t, 10, stockOf(t, store, "a"))
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	const (
		initialStock = 5
		workers      = 20
	)

	store := newStore(product.Product{ID: "p1", PriceCents: 100, Stock: initialStock, IsActive: true})
	mgr := NewManager(store)

	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Reserve(context.Background(), []Line{{ProductID: "p1", Quantity: 1}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	granted := 0
	for err := range results {
		if err == nil {
			granted++
			continue
		}

		var conflict *errs.ReservationConflictError
		var insufficient *errs.InsufficientStockError
		require.True(t, errors.As(err, &conflict) || errors.As(err, &insufficient),
			"unexpected error: %v", err)
	}

	require.Equal(t, initialStock, granted)
	require.Equal(t, 0, stockOf(t, store, "p1"))
}

func TestReleaseRestoresStock(t *testing.T) {
	store := newStore(product.Product{ID: "p1", PriceCents: 100, Stock: 10, IsActive: true})
	mgr := NewManager(store)

	items, err := mgr.Reserve(context.Background(), []Line{{ProductID: "p1", Quantity: 4}})
	require.NoError(t, err)
	require.Equal(t, 6, stockOf(t, store, "p1"))

	mgr.Release(context.Background(), items)
	require.Equal(t, 10, stockOf(t, store, "p1"))
}

// conflictingRepo forces a lost decrement race on a chosen product while
// delegating everything else to the real in-memory store.
type conflictingRepo struct {
	*inmem.ProductRepository
	conflictOn string
}

func (r *conflictingRepo) TryDecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	if id == r.conflictOn {
		return false, nil
	}

	return r.ProductRepository.TryDecrementStock(ctx, id, qty)
}
