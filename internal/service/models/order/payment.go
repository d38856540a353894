package order

import (
	"database/sql/driver"
	"errors"
)

// PaymentMethod is the payment option chosen at checkout.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit-card"
	PaymentMethodPayPal     PaymentMethod = "PayPal"
	PaymentMethodApplePay   PaymentMethod = "apple-pay"
	PaymentMethodStripe     PaymentMethod = "stripe"
)

var ErrInvalidPaymentMethod = errors.New("invalid payment method")

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Value() (driver.Value, error) {
	return m.String(), nil
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodCreditCard, PaymentMethodPayPal, PaymentMethodApplePay, PaymentMethodStripe:
		return PaymentMethod(s), nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// Length caps applied to provider payloads before they are stored. Raw
// provider fields are never persisted verbatim.
const (
	maxPaymentIDLen     = 200
	maxPaymentStatusLen = 50
	maxPaymentTimeLen   = 50
	maxPaymentEmailLen  = 200
)

// PaymentResult is a whitelisted copy of a payment provider confirmation.
type PaymentResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"updateTime,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Sanitized returns a copy with every field truncated to its cap.
func (r PaymentResult) Sanitized() PaymentResult {
	return PaymentResult{
		ID:         truncate(r.ID, maxPaymentIDLen),
		Status:     truncate(r.Status, maxPaymentStatusLen),
		UpdateTime: truncate(r.UpdateTime, maxPaymentTimeLen),
		Email:      truncate(r.Email, maxPaymentEmailLen),
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max]
}
