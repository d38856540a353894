package ordersvc

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	orderinmem "github.com/storefront-labs/order-svc/internal/dal/repositories/order/inmem"
	outboxinmem "github.com/storefront-labs/order-svc/internal/dal/repositories/outbox/inmem"
	productinmem "github.com/storefront-labs/order-svc/internal/dal/repositories/product/inmem"
	"github.com/storefront-labs/order-svc/internal/dal/uow"
	"github.com/storefront-labs/order-svc/internal/service/models/actor"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/service/models/outbox"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
	"github.com/storefront-labs/order-svc/internal/service/services/reservation"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *OrderService
	products *productinmem.ProductRepository
	outbox   *outboxinmem.OutboxRepository
}

func newFixture(t *testing.T, products ...product.Product) *fixture {
	t.Helper()

	productStore := productinmem.NewProductRepository()
	for _, p := range products {
		productStore.Put(p)
	}

	orderStore := orderinmem.NewOrderRepository()
	outboxStore := outboxinmem.NewOutboxRepository()
	work := uow.NewMemoryUnitOfWork(orderStore, outboxStore)

	svc := MustNewOrderService(
		WithProductRepository(productStore),
		WithUnitOfWorkFactory(func() UnitOfWork { return work }),
	)

	return &fixture{
		svc:      svc,
		products: productStore,
		outbox:   outboxStore,
	}
}

func (f *fixture) stockOf(t *testing.T, id string) int {
	t.Helper()

	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)

	return p.Stock
}

func (f *fixture) eventTypes(t *testing.T) []string {
	t.Helper()

	messages, err := f.outbox.GetPendingMessages(context.Background(), 100)
	require.NoError(t, err)

	types := make([]string, 0, len(messages))
	for _, msg := range messages {
		var event outbox.OrderEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		types = append(types, event.Type)
	}

	return types
}

var (
	customer      = actor.Actor{UserID: "user-1", Role: actor.RoleCustomer}
	otherCustomer = actor.Actor{UserID: "user-2", Role: actor.RoleCustomer}
	admin         = actor.Actor{UserID: "admin-1", Role: actor.RoleAdmin}
	guest         = actor.Actor{}
)

func checkoutModel(lines ...reservation.Line) CreateOrderModel {
	return CreateOrderModel{
		Items: lines,
		Email: "buyer@example.com",
		ShippingAddress: order.ShippingAddress{
			Address: "1 Main St",
			City:    "Springfield",
		},
		PaymentMethod: order.PaymentMethodCreditCard,
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", Name: "Cable", PriceCents: 1250, Stock: 10, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 2},
	))
	require.NoError(t, err)

	require.NotEmpty(t, o.ID)
	require.Equal(t, order.StatusPending, o.Status)
	require.Equal(t, "user-1", o.UserID)
	require.EqualValues(t, 2500, o.ItemsPriceCents)
	require.EqualValues(t, 200, o.TaxPriceCents)
	require.EqualValues(t, 1299, o.ShippingPriceCents)
	require.EqualValues(t, 3999, o.TotalPriceCents)
	require.False(t, o.IsPaid)
	require.Equal(t, "US", o.ShippingAddress.Country)

	require.Equal(t, 8, f.stockOf(t, "p1"))
	require.Equal(t, []string{outbox.EventOrderCreated}, f.eventTypes(t))
}

func TestCreateOrderFreeShippingStrictlyAboveThreshold(t *testing.T) {
	f := newFixture(t,
		product.Product{ID: "exact", PriceCents: 10000, Stock: 5, IsActive: true},
		product.Product{ID: "above", PriceCents: 10001, Stock: 5, IsActive: true},
	)

	atThreshold, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "exact", Quantity: 1},
	))
	require.NoError(t, err)
	require.EqualValues(t, 1299, atThreshold.ShippingPriceCents)

	aboveThreshold, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "above", Quantity: 1},
	))
	require.NoError(t, err)
	require.EqualValues(t, 0, aboveThreshold.ShippingPriceCents)
}

func TestCreateOrderSnapshotsProductAtReservationTime(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", Name: "Original Name", PriceCents: 2000, Stock: 10, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	// Catalog edits after checkout must not leak into the stored order.
	f.products.Put(product.Product{
		ID: "p1", Name: "Renamed", PriceCents: 9999, Stock: 9, IsActive: true,
	})

	stored, err := f.svc.GetOrder(context.Background(), customer, o.ID)
	require.NoError(t, err)
	require.Equal(t, "Original Name", stored.Items[0].Name)
	require.EqualValues(t, 2000, stored.Items[0].PriceCents)
}

func TestCreateOrderGuestCheckout(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), guest, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)
	require.Empty(t, o.UserID)

	// Guest orders have no owner; only admins may read them back.
	_, err = f.svc.GetOrder(context.Background(), guest, o.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)

	fromAdmin, err := f.svc.GetOrder(context.Background(), admin, o.ID)
	require.NoError(t, err)
	require.Equal(t, o.ID, fromAdmin.ID)
}

func TestCreateOrderValidationPrecedesStockMutation(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	cases := []struct {
		name  string
		model CreateOrderModel
	}{
		{
			name:  "empty cart",
			model: checkoutModel(),
		},
		{
			name: "zero quantity",
			model: checkoutModel(
				reservation.Line{ProductID: "p1", Quantity: 0},
			),
		},
		{
			name: "missing email",
			model: func() CreateOrderModel {
				m := checkoutModel(reservation.Line{ProductID: "p1", Quantity: 1})
				m.Email = ""
				return m
			}(),
		},
		{
			name: "unknown payment method",
			model: func() CreateOrderModel {
				m := checkoutModel(reservation.Line{ProductID: "p1", Quantity: 1})
				m.PaymentMethod = "bitcoin"
				return m
			}(),
		},
		{
			name: "missing shipping city",
			model: func() CreateOrderModel {
				m := checkoutModel(reservation.Line{ProductID: "p1", Quantity: 1})
				m.ShippingAddress.City = ""
				return m
			}(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), customer, tc.model)

			var validation *errs.ValidationError
			require.ErrorAs(t, err, &validation)
			require.Equal(t, 5, f.stockOf(t, "p1"))
		})
	}
}

func TestCreateOrderInsufficientStockLeavesNoTrace(t *testing.T) {
	f := newFixture(t,
		product.Product{ID: "a", PriceCents: 1000, Stock: 10, IsActive: true},
		product.Product{ID: "b", PriceCents: 1000, Stock: 1, IsActive: true},
	)

	_, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "a", Quantity: 2},
		reservation.Line{ProductID: "b", Quantity: 5},
	))

	var insufficient *errs.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 1, insufficient.Available)

	require.Equal(t, 10, f.stockOf(t, "a"))
	require.Equal(t, 1, f.stockOf(t, "b"))
	require.Empty(t, f.eventTypes(t))
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	result := order.PaymentResult{ID: "pay-1", Status: "COMPLETED", Email: "buyer@example.com"}

	paid, err := f.svc.MarkPaid(context.Background(), customer, o.ID, result)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	require.Equal(t, order.StatusProcessing, paid.Status)
	require.NotNil(t, paid.PaymentResult)
	require.Equal(t, "pay-1", paid.PaymentResult.ID)

	_, err = f.svc.MarkPaid(context.Background(), customer, o.ID, result)
	require.ErrorIs(t, err, errs.ErrAlreadyPaid)

	require.ElementsMatch(t, []string{outbox.EventOrderCreated, outbox.EventOrderPaid}, f.eventTypes(t))
}

func TestMarkPaidConcurrentConfirmationsHaveOneWinner(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.MarkPaid(context.Background(), customer, o.ID, order.PaymentResult{
				ID: "pay-1", Status: "COMPLETED",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		require.ErrorIs(t, err, errs.ErrAlreadyPaid)
	}

	require.Equal(t, 1, winners)
}

func TestMarkPaidTruncatesProviderFields(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}

	paid, err := f.svc.MarkPaid(context.Background(), customer, o.ID, order.PaymentResult{
		ID:     string(long),
		Status: string(long),
	})
	require.NoError(t, err)
	require.Len(t, paid.PaymentResult.ID, 200)
	require.Len(t, paid.PaymentResult.Status, 50)
}

func TestMarkPaidAuthorization(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(context.Background(), otherCustomer, o.ID, order.PaymentResult{ID: "pay-1"})
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.MarkPaid(context.Background(), admin, o.ID, order.PaymentResult{ID: "pay-1"})
	require.NoError(t, err)
}

func TestSetStatusIsAdminOnly(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), customer, o.ID, order.StatusShipped, "TRK-1")
	require.ErrorIs(t, err, errs.ErrForbidden)

	shipped, err := f.svc.SetStatus(context.Background(), admin, o.ID, order.StatusShipped, "TRK-1")
	require.NoError(t, err)
	require.Equal(t, order.StatusShipped, shipped.Status)
	require.Equal(t, "TRK-1", shipped.TrackingNumber)

	delivered, err := f.svc.SetStatus(context.Background(), admin, o.ID, order.StatusDelivered, "")
	require.NoError(t, err)
	require.Equal(t, order.StatusDelivered, delivered.Status)
	require.True(t, delivered.IsDelivered)
	require.NotNil(t, delivered.DeliveredAt)
	require.Equal(t, "TRK-1", delivered.TrackingNumber)
}

func TestSetStatusUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SetStatus(context.Background(), admin, "ghost", order.StatusShipped, "")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 3},
	))
	require.NoError(t, err)
	require.Equal(t, 2, f.stockOf(t, "p1"))

	cancelled, err := f.svc.Cancel(context.Background(), customer, o.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusCancelled, cancelled.Status)
	require.Equal(t, 5, f.stockOf(t, "p1"))

	require.ElementsMatch(t, []string{outbox.EventOrderCreated, outbox.EventOrderCancelled}, f.eventTypes(t))
}

func TestCancelBlockedAfterShipment(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 2},
	))
	require.NoError(t, err)

	_, err = f.svc.SetStatus(context.Background(), admin, o.ID, order.StatusShipped, "TRK-1")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), customer, o.ID)
	require.ErrorIs(t, err, errs.ErrInvalidState)

	// The claimed stock stays claimed.
	require.Equal(t, 3, f.stockOf(t, "p1"))
}

func TestCancelTwiceRestoresStockOnce(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 2},
	))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), customer, o.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), customer, o.ID)
	require.ErrorIs(t, err, errs.ErrInvalidState)

	require.Equal(t, 5, f.stockOf(t, "p1"))
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), otherCustomer, o.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Cancel(context.Background(), admin, o.ID)
	require.NoError(t, err)
}

func TestGetOrdersScopedToOwner(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 50, IsActive: true,
	})

	_, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(context.Background(), otherCustomer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	mine, err := f.svc.GetOrders(context.Background(), customer, order.QueryOrdersModel{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "user-1", mine[0].UserID)

	// A customer's filter for other users is overridden with their own id.
	filtered, err := f.svc.GetOrders(context.Background(), customer, order.QueryOrdersModel{
		UserIds: []string{"user-2"},
	})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "user-1", filtered[0].UserID)

	all, err := f.svc.GetOrders(context.Background(), admin, order.QueryOrdersModel{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = f.svc.GetOrders(context.Background(), guest, order.QueryOrdersModel{})
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestGetOrderAccessControl(t *testing.T) {
	f := newFixture(t, product.Product{
		ID: "p1", PriceCents: 1000, Stock: 5, IsActive: true,
	})

	o, err := f.svc.CreateOrder(context.Background(), customer, checkoutModel(
		reservation.Line{ProductID: "p1", Quantity: 1},
	))
	require.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), otherCustomer, o.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.GetOrder(context.Background(), admin, o.ID)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(context.Background(), customer, "ghost")
	require.ErrorIs(t, err, errs.ErrNotFound)
}
