package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/storefront/internal/domain"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) GetVariantForUpdate(ctx context.Context, variantID string) (domain.Variant, error) {
	const query = `SELECT id, product_id, price, stock, created_at FROM variants WHERE id = $1 FOR UPDATE`

	var v domain.Variant
	err := r.queryRow(ctx, query, variantID).Scan(&v.ID, &v.ProductID, &v.Price, &v.Stock, &v.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Variant{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Variant{}, domain.ErrVariantNotFound
		}
		return domain.Variant{}, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

func (r *OrderRepository) GetProductWithVariants(ctx context.Context, productID string) (domain.Product, []domain.Variant, error) {
	const productQuery = `SELECT id, name, base_price, created_at FROM products WHERE id = $1`

	var p domain.Product
	err := r.queryRow(ctx, productQuery, productID).Scan(&p.ID, &p.Name, &p.BasePrice, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, nil, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, nil, domain.ErrProductNotFound
		}
		return domain.Product{}, nil, fmt.Errorf("get product: %w", err)
	}

	const variantQuery = `SELECT id, product_id, price, stock, created_at FROM variants WHERE product_id = $1 ORDER BY created_at`

	rows, err := r.query(ctx, variantQuery, productID)
	if err != nil {
		return domain.Product{}, nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Price, &v.Stock, &v.CreatedAt); err != nil {
			return domain.Product{}, nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return domain.Product{}, nil, fmt.Errorf("list variants: %w", err)
	}
	return p, variants, nil
}

func (r *OrderRepository) AddStock(ctx context.Context, variantID string, delta int) error {
	const stmt = `UPDATE variants SET stock = stock + $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, variantID, delta)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("add stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

func (r *OrderRepository) GetCouponForUpdate(ctx context.Context, couponID string) (domain.Coupon, error) {
	const query = couponColumns + ` WHERE id = $1 FOR UPDATE`
	return scanCoupon(r.queryRow(ctx, query, couponID))
}

func (r *OrderRepository) IncrementCouponUsage(ctx context.Context, couponID string) error {
	return incrementCouponUsage(ctx, r.exec, couponID)
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (
	id, order_number, user_id, status, subtotal, discount_amount, total_price,
	coupon_id, payment_method, shipping_address_id, billing_address_id,
	admin_notes, tracking_number, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.exec(ctx, stmt,
		order.ID,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.Subtotal,
		order.DiscountAmount,
		order.TotalPrice,
		nullStr(order.CouponID),
		order.PaymentMethod,
		order.ShippingAddressID,
		order.BillingAddressID,
		order.AdminNotes,
		order.TrackingNumber,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrOrderNumberTaken
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	const stmt = `
INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, price)
VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range items {
		_, err := r.exec(ctx, stmt,
			item.ID,
			item.OrderID,
			item.ProductID,
			nullStr(item.VariantID),
			item.Quantity,
			item.Price,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

const orderColumns = `
SELECT id, order_number, user_id, status, subtotal, discount_amount, total_price,
	COALESCE(coupon_id::text, ''), COALESCE(payment_method, ''),
	COALESCE(shipping_address_id, ''), COALESCE(billing_address_id, ''),
	COALESCE(admin_notes, ''), COALESCE(tracking_number, ''),
	created_at, updated_at
FROM orders`

// scanOrder is the one mapping point from an orders row to the domain type.
func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &status,
		&o.Subtotal, &o.DiscountAmount, &o.TotalPrice,
		&o.CouponID, &o.PaymentMethod,
		&o.ShippingAddressID, &o.BillingAddressID,
		&o.AdminNotes, &o.TrackingNumber,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	const query = orderColumns + ` WHERE id = $1 FOR UPDATE`
	return scanOrder(r.queryRow(ctx, query, orderID))
}

func (r *OrderRepository) GetOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const query = `
SELECT id, order_id, product_id, COALESCE(variant_id::text, ''), quantity, price
FROM order_items
WHERE order_id = $1`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return items, nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	const stmt = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) AppendTimeline(ctx context.Context, entry domain.TimelineEntry) error {
	const stmt = `
INSERT INTO order_timeline (id, order_id, status, description, date)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, entry.ID, entry.OrderID, entry.Status, entry.Description, entry.Date)
	if err != nil {
		return fmt.Errorf("append timeline: %w", err)
	}
	return nil
}

func (r *OrderRepository) DeleteTimeline(ctx context.Context, orderID string) error {
	if _, err := r.exec(ctx, `DELETE FROM order_timeline WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}
	return nil
}

func (r *OrderRepository) DeleteOrderItems(ctx context.Context, orderID string) error {
	if _, err := r.exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return nil
}

// DeletePayment removes the payment row, if any. Payments reference orders
// without a cascade, so a hard order delete must clear this first.
func (r *OrderRepository) DeletePayment(ctx context.Context, orderID string) error {
	if _, err := r.exec(ctx, `DELETE FROM payments WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, orderID string) error {
	tag, err := r.exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// GetPaymentStatus returns an empty status when no payment row exists; the
// caller treats that as not-completed.
func (r *OrderRepository) GetPaymentStatus(ctx context.Context, orderID string) (domain.PaymentStatus, error) {
	const query = `SELECT status FROM payments WHERE order_id = $1`

	var status string
	err := r.queryRow(ctx, query, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("get payment status: %w", err)
	}
	return domain.PaymentStatus(status), nil
}

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	const stmt = `
INSERT INTO payments (order_id, status, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (order_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`

	if _, err := r.exec(ctx, stmt, orderID, status); err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	return nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
