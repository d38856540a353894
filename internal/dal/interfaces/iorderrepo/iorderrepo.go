package iorderrepo

import (
	"context"
	"time"

	"github.com/storefront-labs/order-svc/internal/service/models/order"
)

// IOrderRepository is the order store contract.
type IOrderRepository interface {
	// Insert persists a new order together with its items and returns the
	// stored copy with generated item ids.
	Insert(ctx context.Context, o order.Order) (order.Order, error)

	GetByID(ctx context.Context, id string) (*order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)

	// MarkPaid atomically sets isPaid, paidAt, status=processing and the
	// payment result, only where isPaid is still false. It reports whether
	// this call won the conditional write.
	MarkPaid(ctx context.Context, id string, result order.PaymentResult, paidAt time.Time) (bool, error)

	// UpdateStatus sets the order status and tracking number. When
	// deliveredAt is non-nil the delivered flag and timestamp are set too.
	UpdateStatus(ctx context.Context, id string, status order.Status, trackingNumber string, deliveredAt *time.Time) error

	// Cancel atomically sets status=cancelled only while the order is still
	// cancellable (not shipped, delivered or already cancelled). It reports
	// whether this call won the conditional write.
	Cancel(ctx context.Context, id string) (bool, error)
}
