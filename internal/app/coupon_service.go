package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/domain"
)

type CouponRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	GetCouponByCodeForUpdate(ctx context.Context, code string) (domain.Coupon, error)
	ApplyDiscount(ctx context.Context, orderID, couponID string, discount, total decimal.Decimal, updatedAt time.Time) error
	IncrementCouponUsage(ctx context.Context, couponID string) error
}

type CouponService struct {
	repo  CouponRepository
	clock clock.Clock
}

func NewCouponService(repo CouponRepository, clk clock.Clock) *CouponService {
	return &CouponService{repo: repo, clock: clk}
}

// ApplyCoupon validates code against the order subtotal and persists the
// discount, the new total, the coupon reference, and the usage increment in
// one transaction. A partial application (discount saved without the usage
// increment, or the reverse) can therefore never be observed.
func (s *CouponService) ApplyCoupon(ctx context.Context, orderID, code string) (domain.Order, error) {
	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.CouponID != "" {
			return domain.ErrCouponAlreadyApplied
		}

		coupon, err := s.repo.GetCouponByCodeForUpdate(txCtx, code)
		if err != nil {
			return err
		}
		discount, err := coupon.Discount(order.Subtotal, now)
		if err != nil {
			return err
		}

		total := order.Subtotal.Sub(discount)
		if err := s.repo.ApplyDiscount(txCtx, order.ID, coupon.ID, discount, total, now); err != nil {
			return err
		}
		if err := s.repo.IncrementCouponUsage(txCtx, coupon.ID); err != nil {
			return err
		}

		order.CouponID = coupon.ID
		order.DiscountAmount = discount
		order.TotalPrice = total
		order.UpdatedAt = now
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}
