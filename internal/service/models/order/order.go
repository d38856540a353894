package order

import (
	"time"

	"github.com/storefront-labs/order-svc/internal/service/models/money"
	"github.com/storefront-labs/order-svc/internal/service/models/orderitem"
)

// ShippingAddress holds the free-text destination of an order. Validation
// beyond presence is delegated to the storefront frontend.
type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is the aggregate root of the order-processing core. It is created only
// after every item reservation succeeded, mutated by payment confirmation,
// admin status updates and cancellation, and never deleted.
type Order struct {
	ID                 string                `json:"id"`
	UserID             string                `json:"userId,omitempty"` // empty for guest checkout
	Email              string                `json:"email"`
	Items              []orderitem.OrderItem `json:"items"`
	ShippingAddress    ShippingAddress       `json:"shippingAddress"`
	PaymentMethod      PaymentMethod         `json:"paymentMethod"`
	PaymentResult      *PaymentResult        `json:"paymentResult,omitempty"`
	ItemsPriceCents    money.Cents           `json:"itemsPriceCents"`
	TaxPriceCents      money.Cents           `json:"taxPriceCents"`
	ShippingPriceCents money.Cents           `json:"shippingPriceCents"`
	TotalPriceCents    money.Cents           `json:"totalPriceCents"`
	IsPaid             bool                  `json:"isPaid"`
	PaidAt             *time.Time            `json:"paidAt,omitempty"`
	IsDelivered        bool                  `json:"isDelivered"`
	DeliveredAt        *time.Time            `json:"deliveredAt,omitempty"`
	Status             Status                `json:"status"`
	TrackingNumber     string                `json:"trackingNumber,omitempty"`
	Notes              string                `json:"notes,omitempty"`
	CreatedAt          time.Time             `json:"createdAt"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// OwnedBy reports whether the order belongs to the given user. Guest orders
// have no owner and are manageable only by admins.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != "" && o.UserID == userID
}

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	Ids     []string `json:"ids,omitempty"`
	UserIds []string `json:"userIds,omitempty"`
	Limit   int      `json:"limit,omitempty"`
	Offset  int      `json:"offset,omitempty"`
}
