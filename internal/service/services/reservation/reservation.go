package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/storefront-labs/order-svc/internal/dal/interfaces/iproductrepo"
	"github.com/storefront-labs/order-svc/internal/service/models/errs"
	"github.com/storefront-labs/order-svc/internal/service/models/orderitem"
)

// Line is a requested claim on a product's stock.
type Line struct {
	ProductID string
	Quantity  int
}

// Manager performs per-item stock claims against the product store. Each claim
// is one atomic conditional decrement; there is no multi-item transaction and
// no external lock. A failed sequence is compensated by incrementing back every
// claim granted before the failure, so a failure return leaves zero net stock
// change.
type Manager struct {
	products iproductrepo.IProductRepository
}

// NewManager creates a reservation manager over the given product store.
func NewManager(products iproductrepo.IProductRepository) *Manager {
	return &Manager{products: products}
}

// Reserve claims stock for every line, in the order given, and returns priced
// snapshots of the products. On any failure the already granted claims are
// released before returning, including on panic.
func (m *Manager) Reserve(ctx context.Context, lines []Line) ([]orderitem.OrderItem, error) {
	if len(lines) == 0 {
		return nil, errs.NewValidationError("order must contain at least one item")
	}

	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, errs.NewValidationError("quantity for product %s must be at least 1", line.ProductID)
		}
	}

	items, err := m.snapshot(ctx, lines)
	if err != nil {
		return nil, err
	}

	granted := make([]Line, 0, len(lines))
	committed := false
	defer func() {
		if committed {
			return
		}
		// Unwind every claim granted before the failure. The detached
		// context keeps compensation running when the caller's context
		// is already cancelled.
		m.release(context.WithoutCancel(ctx), granted)
	}()

	for _, line := range lines {
		ok, err := m.products.TryDecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to claim stock for product %s: %w", line.ProductID, err)
		}
		if !ok {
			// A concurrent reservation won the race since the
			// snapshot check. The conflicting item itself was never
			// decremented.
			return nil, &errs.ReservationConflictError{ProductID: line.ProductID}
		}
		granted = append(granted, line)
	}

	committed = true

	return items, nil
}

// snapshot validates availability and builds priced item snapshots without
// mutating any stock.
func (m *Manager) snapshot(ctx context.Context, lines []Line) ([]orderitem.OrderItem, error) {
	now := time.Now()
	items := make([]orderitem.OrderItem, 0, len(lines))

	for _, line := range lines {
		p, err := m.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", line.ProductID, errs.ErrNotFound)
			}

			return nil, fmt.Errorf("failed to fetch product %s: %w", line.ProductID, err)
		}

		if !p.IsActive {
			return nil, &errs.ProductUnavailableError{ProductID: p.ID}
		}

		if p.Stock < line.Quantity {
			return nil, &errs.InsufficientStockError{
				ProductID: p.ID,
				Requested: line.Quantity,
				Available: p.Stock,
			}
		}

		items = append(items, orderitem.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			ImageURL:   p.ImageURL,
			PriceCents: p.EffectivePrice(),
			Quantity:   line.Quantity,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	return items, nil
}

// Release returns the granted quantities of the given items back onto stock.
// It is best effort: a failed increment is logged and the loop continues, so a
// partial failure leaves some stock unrestored.
func (m *Manager) Release(ctx context.Context, items []orderitem.OrderItem) {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	m.release(ctx, lines)
}

func (m *Manager) release(ctx context.Context, lines []Line) {
	for _, line := range lines {
		if err := m.products.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			slog.Warn("Failed to restore stock",
				"product_id", line.ProductID,
				"quantity", line.Quantity,
				"error", err,
			)
		}
	}
}
