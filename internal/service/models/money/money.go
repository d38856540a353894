package money

import "fmt"

// Cents is a fixed-point money amount in hundredths of a dollar.
// Prices are never carried as binary floating point.
type Cents int64

// String formats the amount as a decimal string, e.g. 1299 -> "12.99".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}

	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Percent returns pct percent of the amount, rounded half-up.
func Percent(c Cents, pct int64) Cents {
	return Cents((int64(c)*pct + 50) / 100)
}

// Discounted applies a percentage discount to a unit price, rounded half-up.
// A discount of 0 returns the price unchanged.
func Discounted(price Cents, discountPct int64) Cents {
	if discountPct <= 0 {
		return price
	}

	return Percent(price, 100-discountPct)
}
