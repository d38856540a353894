package orderitem

import (
	"time"

	"github.com/storefront-labs/order-svc/internal/service/models/money"
)

// OrderItem is a line item on an order. Name, image and price are immutable
// snapshots of the product taken at reservation time; later catalog edits do
// not touch them.
type OrderItem struct {
	ID         int64       `json:"id"`
	OrderID    string      `json:"orderId"`
	ProductID  string      `json:"productId"`
	Name       string      `json:"name"`
	ImageURL   string      `json:"imageUrl"`
	PriceCents money.Cents `json:"priceCents"`
	Quantity   int         `json:"quantity"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Subtotal returns price multiplied by quantity.
func (i *OrderItem) Subtotal() money.Cents {
	return i.PriceCents * money.Cents(i.Quantity)
}
