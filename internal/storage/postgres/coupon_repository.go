package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cimillas/storefront/internal/domain"
)

type CouponRepository struct {
	pool *pgxpool.Pool
}

func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func (r *CouponRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CouponRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = orderColumns + ` WHERE id = $1 FOR UPDATE`
	return scanOrder(r.queryRow(ctx, query, orderID))
}

func (r *CouponRepository) GetCouponByCodeForUpdate(ctx context.Context, code string) (domain.Coupon, error) {
	const query = couponColumns + ` WHERE code = $1 FOR UPDATE`
	return scanCoupon(r.queryRow(ctx, query, code))
}

func (r *CouponRepository) ApplyDiscount(ctx context.Context, orderID, couponID string, discount, total decimal.Decimal, updatedAt time.Time) error {
	const stmt = `
UPDATE orders
SET coupon_id = $2, discount_amount = $3, total_price = $4, updated_at = $5
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, couponID, discount, total, updatedAt)
	if err != nil {
		return fmt.Errorf("apply discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *CouponRepository) IncrementCouponUsage(ctx context.Context, couponID string) error {
	return incrementCouponUsage(ctx, r.exec, couponID)
}

const couponColumns = `
SELECT id, code, type, value, min_order_amount, max_discount, max_usage,
	usage_count, valid_from, valid_until
FROM coupons`

// scanCoupon maps a coupons row, with its nullable bounds, onto the domain
// type. Null columns become nil pointers.
func scanCoupon(row pgx.Row) (domain.Coupon, error) {
	var c domain.Coupon
	var couponType string
	var minOrder, maxDiscount decimal.NullDecimal
	var maxUsage sql.NullInt32
	var validFrom, validUntil sql.NullTime

	err := row.Scan(
		&c.ID, &c.Code, &couponType, &c.Value,
		&minOrder, &maxDiscount, &maxUsage,
		&c.UsageCount, &validFrom, &validUntil,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Coupon{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Coupon{}, domain.ErrCouponNotFound
		}
		return domain.Coupon{}, fmt.Errorf("get coupon: %w", err)
	}

	c.Type = domain.CouponType(couponType)
	if minOrder.Valid {
		c.MinOrderAmount = &minOrder.Decimal
	}
	if maxDiscount.Valid {
		c.MaxDiscount = &maxDiscount.Decimal
	}
	if maxUsage.Valid {
		n := int(maxUsage.Int32)
		c.MaxUsage = &n
	}
	if validFrom.Valid {
		t := validFrom.Time
		c.ValidFrom = &t
	}
	if validUntil.Valid {
		t := validUntil.Time
		c.ValidUntil = &t
	}
	return c, nil
}

func incrementCouponUsage(ctx context.Context, exec func(context.Context, string, ...any) (pgconn.CommandTag, error), couponID string) error {
	const stmt = `UPDATE coupons SET usage_count = usage_count + 1 WHERE id = $1`

	tag, err := exec(ctx, stmt, couponID)
	if err != nil {
		return fmt.Errorf("increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (r *CouponRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CouponRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
