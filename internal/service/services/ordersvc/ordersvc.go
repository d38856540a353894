package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/storefront-labs/order-svc/internal/dal/interfaces/iorderrepo"
	"github.com/storefront-labs/order-svc/internal/dal/interfaces/ioutboxrepo"
	"github.com/storefront-labs/order-svc/internal/dal/interfaces/iproductrepo"
	"github.com/storefront-labs/order-svc/internal/service/models/actor"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/service/models/outbox"
	"github.com/storefront-labs/order-svc/internal/service/models/product"
	"github.com/storefront-labs/order-svc/internal/service/services/pricing"
	"github.com/storefront-labs/order-svc/internal/service/services/reservation"
)

// UnitOfWork scopes order and outbox writes to one transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	Orders() iorderrepo.IOrderRepository
	Outbox() ioutboxrepo.IOutboxRepository
}

// OrderService is the order-processing core: checkout with stock reservation,
// payment confirmation, admin status updates and cancellation.
type OrderService struct {
	products     iproductrepo.IProductRepository
	reservations *reservation.Manager
	newUOW       func() UnitOfWork
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.products == nil || s.newUOW == nil {
		panic("ordersvc: product repository and unit of work factory are required")
	}

	s.reservations = reservation.NewManager(s.products)

	return s
}

// WithProductRepository sets the product store for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(products iproductrepo.IProductRepository) option {
	return func(s *OrderService) {
		s.products = products
	}
}

// WithUnitOfWorkFactory sets the unit of work factory for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() UnitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// CreateOrderModel is the service-layer input for checkout.
type CreateOrderModel struct {
	Items           []reservation.Line
	Email           string
	ShippingAddress order.ShippingAddress
	PaymentMethod   order.PaymentMethod
	Notes           string
}

func (m *CreateOrderModel) validate() error {
	if len(m.Items) == 0 {
		return errs.NewValidationError("order must contain at least one item")
	}
	for _, line := range m.Items {
		if line.ProductID == "" {
			return errs.NewValidationError("product id is required")
		}
		if line.Quantity < 1 {
			return errs.NewValidationError("quantity for product %s must be at least 1", line.ProductID)
		}
	}
	if m.Email == "" {
		return errs.NewValidationError("contact email is required")
	}
	if _, err := order.ParsePaymentMethod(m.PaymentMethod.String()); err != nil {
		return errs.NewValidationError("unknown payment method %q", m.PaymentMethod)
	}
	if m.ShippingAddress.Address == "" || m.ShippingAddress.City == "" {
		return errs.NewValidationError("shipping address and city are required")
	}

	return nil
}

// CreateOrder converts a cart into a durable order. Stock is claimed first,
// item by item; totals are recomputed server-side; the order and its created
// event are persisted in one transaction. If persistence fails after the
// claims were granted, the claims are released before returning.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	act actor.Actor,
	model CreateOrderModel,
) (*order.Order, error) {
	if err := model.validate(); err != nil {
		return nil, err
	}

	if model.ShippingAddress.Country == "" {
		model.ShippingAddress.Country = "US"
	}

	items, err := s.reservations.Reserve(ctx, model.Items)
	if err != nil {
		return nil, err
	}

	totals := pricing.ComputeTotals(items)
	now := time.Now()

	o := order.Order{
		ID:                 uuid.NewString(),
		UserID:             act.UserID,
		Email:              model.Email,
		Items:              items,
		ShippingAddress:    model.ShippingAddress,
		PaymentMethod:      model.PaymentMethod,
		ItemsPriceCents:    totals.ItemsPrice,
		TaxPriceCents:      totals.TaxPrice,
		ShippingPriceCents: totals.ShippingPrice,
		TotalPriceCents:    totals.TotalPrice,
		Status:             order.StatusPending,
		Notes:              model.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	stored, err := s.persistOrder(ctx, o)
	if err != nil {
		// The claims are already granted; release them so a failed
		// checkout leaves no inventory leak.
		s.reservations.Release(context.WithoutCancel(ctx), items)

		return nil, err
	}

	slog.Info("Order created",
		"order_id", stored.ID,
		"user_id", stored.UserID,
		"total_cents", int64(stored.TotalPriceCents),
	)

	return stored, nil
}

func (s *OrderService) persistOrder(ctx context.Context, o order.Order) (*order.Order, error) {
	work := s.newUOW()

	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	stored, err := work.Orders().Insert(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	msg, err := outbox.NewOrderEventMessage(outbox.OrdersQueue, outbox.OrderEvent{
		Type:       outbox.EventOrderCreated,
		OrderID:    stored.ID,
		UserID:     stored.UserID,
		Status:     stored.Status.String(),
		OccurredAt: stored.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build order event: %w", err)
	}

	if err := work.Outbox().Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to enqueue order event: %w", err)
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return &stored, nil
}

// GetOrder retrieves a single order for its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, act actor.Actor, id string) (*order.Order, error) {
	o, err := s.newUOW().Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !act.IsAdmin() && !o.OwnedBy(act.UserID) {
		return nil, errs.ErrForbidden
	}

	return o, nil
}

// GetOrders retrieves orders. Customers only see their own; admins may filter
// by arbitrary users.
func (s *OrderService) GetOrders(
	ctx context.Context,
	act actor.Actor,
	model order.QueryOrdersModel,
) ([]order.Order, error) {
	if !act.IsAdmin() {
		if act.IsGuest() {
			return nil, errs.ErrForbidden
		}
		model.UserIds = []string{act.UserID}
	}

	return s.newUOW().Orders().Query(ctx, &model)
}

// MarkPaid applies a payment confirmation at most once. The conditional write
// in the repository is the idempotency guard; losing it yields ErrAlreadyPaid.
func (s *OrderService) MarkPaid(
	ctx context.Context,
	act actor.Actor,
	id string,
	result order.PaymentResult,
) (*order.Order, error) {
	work := s.newUOW()

	o, err := work.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !act.IsAdmin() && !o.OwnedBy(act.UserID) {
		return nil, errs.ErrForbidden
	}

	paidAt := time.Now()
	won, err := work.Orders().MarkPaid(ctx, id, result.Sanitized(), paidAt)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment: %w", err)
	}
	if !won {
		return nil, errs.ErrAlreadyPaid
	}

	s.enqueueEvent(ctx, work, outbox.OrderEvent{
		Type:       outbox.EventOrderPaid,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     order.StatusProcessing.String(),
		OccurredAt: paidAt,
	})

	slog.Info("Order paid", "order_id", o.ID, "payment_id", result.Sanitized().ID)

	return work.Orders().GetByID(ctx, id)
}

// SetStatus sets an arbitrary status on the order. Admin only; transitions are
// deliberately unconstrained apart from the delivered bookkeeping.
func (s *OrderService) SetStatus(
	ctx context.Context,
	act actor.Actor,
	id string,
	status order.Status,
	trackingNumber string,
) (*order.Order, error) {
	if !act.IsAdmin() {
		return nil, errs.ErrForbidden
	}

	work := s.newUOW()

	if _, err := work.Orders().GetByID(ctx, id); err != nil {
		return nil, err
	}

	var deliveredAt *time.Time
	if status == order.StatusDelivered {
		now := time.Now()
		deliveredAt = &now
	}

	if err := work.Orders().UpdateStatus(ctx, id, status, trackingNumber, deliveredAt); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return work.Orders().GetByID(ctx, id)
}

// Cancel transitions the order to cancelled and restores the claimed stock.
// Restitution is best effort: each increment is atomic on its own, but the
// loop is not, so a crash partway through leaves some stock unrestored.
func (s *OrderService) Cancel(ctx context.Context, act actor.Actor, id string) (*order.Order, error) {
	work := s.newUOW()

	o, err := work.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !act.IsAdmin() && !o.OwnedBy(act.UserID) {
		return nil, errs.ErrForbidden
	}

	if o.Status.IsTerminal() {
		return nil, errs.ErrInvalidState
	}

	won, err := work.Orders().Cancel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if !won {
		// Another transition won the race; re-check would be stale, so
		// report the state conflict.
		return nil, errs.ErrInvalidState
	}

	s.reservations.Release(context.WithoutCancel(ctx), o.Items)

	s.enqueueEvent(ctx, work, outbox.OrderEvent{
		Type:       outbox.EventOrderCancelled,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     order.StatusCancelled.String(),
		OccurredAt: time.Now(),
	})

	slog.Info("Order cancelled", "order_id", o.ID)

	return work.Orders().GetByID(ctx, id)
}

// enqueueEvent writes a lifecycle event to the outbox. Best effort: the state
// change already committed, so a failed enqueue is logged, not surfaced.
func (s *OrderService) enqueueEvent(ctx context.Context, work UnitOfWork, event outbox.OrderEvent) {
	msg, err := outbox.NewOrderEventMessage(outbox.OrdersQueue, event)
	if err != nil {
		slog.Error("Failed to build order event", "order_id", event.OrderID, "error", err)

		return
	}

	if err := work.Outbox().Insert(ctx, msg); err != nil {
		slog.Error("Failed to enqueue order event",
			"order_id", event.OrderID,
			"type", event.Type,
			"error", err,
		)
	}
}

// GetProduct retrieves a single catalog product.
func (s *OrderService) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return s.products.GetByID(ctx, id)
}

// GetProducts retrieves catalog products.
func (s *OrderService) GetProducts(
	ctx context.Context,
	model product.QueryProductsModel,
) ([]product.Product, error) {
	return s.products.Query(ctx, &model)
}
