package domain

import "errors"

// Expected, recoverable-by-caller conditions. The transport layer maps these
// to 400/404/409; anything else is treated as internal and never leaked.
var (
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrSessionRequired  = errors.New("session id required")
	ErrOwnerKeyRequired = errors.New("session id or user id required")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrInvalidID        = errors.New("invalid id")

	ErrProductNotFound     = errors.New("product not found")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrCouponNotFound      = errors.New("coupon not found")

	ErrReservationNotActive    = errors.New("reservation is not active")
	ErrReservationExpired      = errors.New("reservation expired")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrPaymentNotCompleted     = errors.New("payment not completed")
	ErrCouponInvalid           = errors.New("coupon not applicable")
	ErrCouponAlreadyApplied    = errors.New("order already has a coupon")
	ErrOrderNumberTaken        = errors.New("order number already taken")

	ErrInsufficientStock = errors.New("insufficient stock")

	ErrProductNameRequired = errors.New("product name required")
	ErrInvalidPrice        = errors.New("invalid price")
	ErrInvalidStock        = errors.New("invalid stock")
)
