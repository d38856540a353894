package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/order"
	"github.com/storefront-labs/order-svc/internal/service/models/orderitem"
)

// OrderRepository is a mutex-protected in-memory order store mirroring the
// conditional-write semantics of the Postgres repository.
type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]order.Order
	nextID int64
}

// NewOrderRepository creates an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]order.Order),
	}
}

func cloneOrder(o order.Order) order.Order {
	items := make([]orderitem.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items

	if o.PaymentResult != nil {
		res := *o.PaymentResult
		o.PaymentResult = &res
	}

	return o
}

// Insert persists a new order together with its items.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneOrder(o)
	for i := range stored.Items {
		r.nextID++
		stored.Items[i].ID = r.nextID
		stored.Items[i].OrderID = stored.ID
	}
	r.orders[stored.ID] = stored

	return cloneOrder(stored), nil
}

// GetByID retrieves a single order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, errs.ErrNotFound
	}

	clone := cloneOrder(o)

	return &clone, nil
}

// Query retrieves orders based on filter criteria.
func (r *OrderRepository) Query(
	ctx context.Context,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make(map[string]struct{}, len(filter.Ids))
	for _, id := range filter.Ids {
		ids[id] = struct{}{}
	}
	userIds := make(map[string]struct{}, len(filter.UserIds))
	for _, id := range filter.UserIds {
		userIds[id] = struct{}{}
	}

	result := []order.Order{}
	for _, o := range r.orders {
		if len(ids) > 0 {
			if _, ok := ids[o.ID]; !ok {
				continue
			}
		}
		if len(userIds) > 0 {
			if _, ok := userIds[o.UserID]; !ok {
				continue
			}
		}
		result = append(result, cloneOrder(o))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []order.Order{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// MarkPaid applies the payment confirmation only while isPaid is still false.
func (r *OrderRepository) MarkPaid(
	ctx context.Context,
	id string,
	result order.PaymentResult,
	paidAt time.Time,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, errs.ErrNotFound
	}

	if o.IsPaid {
		return false, nil
	}

	o.IsPaid = true
	o.PaidAt = &paidAt
	o.Status = order.StatusProcessing
	o.PaymentResult = &result
	o.UpdatedAt = paidAt
	r.orders[id] = o

	return true, nil
}

// UpdateStatus sets the order status and optional tracking number.
func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status order.Status,
	trackingNumber string,
	deliveredAt *time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return errs.ErrNotFound
	}

	o.Status = status
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	if deliveredAt != nil {
		o.IsDelivered = true
		o.DeliveredAt = deliveredAt
	}
	o.UpdatedAt = time.Now()
	r.orders[id] = o

	return nil
}

// Cancel flips the order to cancelled only while it is still cancellable.
func (r *OrderRepository) Cancel(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, errs.ErrNotFound
	}

	if o.Status.IsTerminal() || o.Status == order.StatusCancelled {
		return false, nil
	}

	o.Status = order.StatusCancelled
	o.UpdatedAt = time.Now()
	r.orders[id] = o

	return true, nil
}
