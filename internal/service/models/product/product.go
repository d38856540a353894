package product

import (
	"time"

	"github.com/storefront-labs/order-svc/internal/service/models/money"
)

// Product represents a catalog product. The order core only reads products and
// mutates stock through atomic conditional increments/decrements; everything
// else belongs to the catalog subsystem.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ImageURL    string      `json:"imageUrl"`
	PriceCents  money.Cents `json:"priceCents"`
	DiscountPct int64       `json:"discountPct"`
	Stock       int         `json:"stock"`
	IsActive    bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// EffectivePrice returns the unit price with the discount applied.
func (p *Product) EffectivePrice() money.Cents {
	return money.Discounted(p.PriceCents, p.DiscountPct)
}

// QueryProductsModel represents filter parameters for querying products.
type QueryProductsModel struct {
	Ids        []string `json:"ids,omitempty"`
	ActiveOnly bool     `json:"activeOnly,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Offset     int      `json:"offset,omitempty"`
}
