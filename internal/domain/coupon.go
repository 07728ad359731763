package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponTypePercentage CouponType = "PERCENTAGE"
	CouponTypeFixed      CouponType = "FIXED"
)

// Coupon applies a bounded discount against an order subtotal. UsageCount is
// incremented exactly once per successful application and never decremented.
type Coupon struct {
	ID             string
	Code           string
	Type           CouponType
	Value          decimal.Decimal
	MinOrderAmount *decimal.Decimal
	MaxDiscount    *decimal.Decimal
	MaxUsage       *int
	UsageCount     int
	ValidFrom      *time.Time
	ValidUntil     *time.Time
}

// Discount validates the coupon against a subtotal at a point in time and
// returns the bounded discount, rounded to 2 decimal places. The discount
// never exceeds the subtotal and is never negative.
func (c Coupon) Discount(subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return decimal.Zero, ErrCouponInvalid
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return decimal.Zero, ErrCouponInvalid
	}
	if c.MaxUsage != nil && c.UsageCount >= *c.MaxUsage {
		return decimal.Zero, ErrCouponInvalid
	}
	if c.MinOrderAmount != nil && subtotal.LessThan(*c.MinOrderAmount) {
		return decimal.Zero, ErrCouponInvalid
	}

	var discount decimal.Decimal
	switch c.Type {
	case CouponTypePercentage:
		discount = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	case CouponTypeFixed:
		discount = c.Value
	default:
		return decimal.Zero, ErrCouponInvalid
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2), nil
}
