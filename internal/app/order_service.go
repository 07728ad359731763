package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/domain"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetVariantForUpdate(ctx context.Context, variantID string) (domain.Variant, error)
	GetProductWithVariants(ctx context.Context, productID string) (domain.Product, []domain.Variant, error)
	AddStock(ctx context.Context, variantID string, delta int) error
	GetCouponForUpdate(ctx context.Context, couponID string) (domain.Coupon, error)
	IncrementCouponUsage(ctx context.Context, couponID string) error
	CreateOrder(ctx context.Context, order domain.Order) error
	CreateOrderItems(ctx context.Context, items []domain.OrderItem) error
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error
	AppendTimeline(ctx context.Context, entry domain.TimelineEntry) error
	DeleteTimeline(ctx context.Context, orderID string) error
	DeleteOrderItems(ctx context.Context, orderID string) error
	DeletePayment(ctx context.Context, orderID string) error
	DeleteOrder(ctx context.Context, orderID string) error
	GetPaymentStatus(ctx context.Context, orderID string) (domain.PaymentStatus, error)
	SetPaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error
}

type OrderService struct {
	repo   OrderRepository
	clock  clock.Clock
	logger *slog.Logger
}

func NewOrderService(repo OrderRepository, clk clock.Clock, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{repo: repo, clock: clk, logger: logger}
}

type OrderItemInput struct {
	ProductID string
	VariantID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID            string
	Items             []OrderItemInput
	ShippingAddressID string
	BillingAddressID  string
	CouponID          string
	PaymentMethod     string
}

// CreateOrder prices the items, applies an optional coupon, and commits the
// order, its items, and the stock decrements as one transaction. The PENDING
// timeline entry is appended after commit; a failure there is logged and does
// not undo the order.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	if len(in.Items) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return domain.Order{}, domain.ErrInvalidQuantity
		}
		if it.ProductID == "" {
			return domain.Order{}, domain.ErrInvalidID
		}
	}

	now := s.clock.Now()
	var result domain.Order

	create := func(orderNumber string) error {
		return s.repo.WithTx(ctx, func(txCtx context.Context) error {
			subtotal := decimal.Zero
			items := make([]domain.OrderItem, 0, len(in.Items))

			for _, it := range in.Items {
				price, err := s.priceItem(txCtx, it)
				if err != nil {
					return err
				}
				items = append(items, domain.OrderItem{
					ID:        uuid.NewString(),
					ProductID: it.ProductID,
					VariantID: it.VariantID,
					Quantity:  it.Quantity,
					Price:     price,
				})
				subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}

			order := domain.Order{
				ID:                uuid.NewString(),
				OrderNumber:       orderNumber,
				UserID:            in.UserID,
				Status:            domain.OrderStatusPending,
				Subtotal:          subtotal,
				DiscountAmount:    decimal.Zero,
				TotalPrice:        subtotal,
				PaymentMethod:     in.PaymentMethod,
				ShippingAddressID: in.ShippingAddressID,
				BillingAddressID:  in.BillingAddressID,
				CreatedAt:         now,
				UpdatedAt:         now,
			}

			if in.CouponID != "" {
				coupon, err := s.repo.GetCouponForUpdate(txCtx, in.CouponID)
				if err != nil {
					return err
				}
				discount, err := coupon.Discount(subtotal, now)
				if err != nil {
					return err
				}
				if err := s.repo.IncrementCouponUsage(txCtx, coupon.ID); err != nil {
					return err
				}
				order.CouponID = coupon.ID
				order.DiscountAmount = discount
				order.TotalPrice = subtotal.Sub(discount)
			}

			for i := range items {
				items[i].OrderID = order.ID
			}
			if err := s.repo.CreateOrder(txCtx, order); err != nil {
				return err
			}
			if err := s.repo.CreateOrderItems(txCtx, items); err != nil {
				return err
			}

			order.Items = items
			result = order
			return nil
		})
	}

	err := create(newOrderNumber(now))
	if err == domain.ErrOrderNumberTaken {
		err = create(newOrderNumber(s.clock.Now()))
	}
	if err != nil {
		return domain.Order{}, err
	}

	s.appendTimeline(ctx, result.ID, domain.OrderStatusPending, "Order placed")
	return result, nil
}

// priceItem resolves the unit price for one order line. A variant line is a
// direct physical check-and-decrement; a product line prices off the base
// price, falling back to the cheapest variant with a combined-stock check.
func (s *OrderService) priceItem(txCtx context.Context, it OrderItemInput) (decimal.Decimal, error) {
	if it.VariantID != "" {
		variant, err := s.repo.GetVariantForUpdate(txCtx, it.VariantID)
		if err != nil {
			return decimal.Zero, err
		}
		if variant.Stock < it.Quantity {
			return decimal.Zero, domain.ErrInsufficientStock
		}
		if err := s.repo.AddStock(txCtx, variant.ID, -it.Quantity); err != nil {
			return decimal.Zero, err
		}
		return variant.Price, nil
	}

	product, variants, err := s.repo.GetProductWithVariants(txCtx, it.ProductID)
	if err != nil {
		return decimal.Zero, err
	}
	if product.BasePrice.IsPositive() {
		return product.BasePrice, nil
	}
	if len(variants) == 0 {
		return decimal.Zero, domain.ErrVariantNotFound
	}

	price := variants[0].Price
	combined := 0
	for _, v := range variants {
		if v.Price.LessThan(price) {
			price = v.Price
		}
		combined += v.Stock
	}
	if combined < it.Quantity {
		return decimal.Zero, domain.ErrInsufficientStock
	}
	return price, nil
}

type UpdateOrderStatusInput struct {
	OrderID string
	Status  domain.OrderStatus
	Note    string
}

// UpdateOrderStatus drives the order through the lifecycle table. CANCELLED
// restores stock for variant-bearing items and REFUNDED flips the payment
// status, both inside the same transaction as the status change. The timeline
// append happens after commit and is non-fatal.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, in UpdateOrderStatusInput) (domain.Order, error) {
	if !domain.ValidOrderStatus(in.Status) {
		return domain.Order{}, domain.ErrInvalidStatusTransition
	}

	now := s.clock.Now()
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, in.OrderID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, in.Status) {
			return domain.ErrInvalidStatusTransition
		}

		if in.Status == domain.OrderStatusPaid {
			payStatus, err := s.repo.GetPaymentStatus(txCtx, order.ID)
			if err != nil {
				return err
			}
			if payStatus != domain.PaymentStatusCompleted {
				return domain.ErrPaymentNotCompleted
			}
		}

		if (in.Status == domain.OrderStatusShipped || in.Status == domain.OrderStatusDelivered) && order.TrackingNumber == "" {
			s.logger.Warn("order status change without tracking reference",
				"order_id", order.ID, "status", string(in.Status))
		}

		if in.Status == domain.OrderStatusCancelled {
			if err := s.restoreStock(txCtx, order.ID); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateOrderStatus(txCtx, order.ID, in.Status, now); err != nil {
			return err
		}
		if in.Status == domain.OrderStatusRefunded {
			if err := s.repo.SetPaymentStatus(txCtx, order.ID, domain.PaymentStatusRefunded); err != nil {
				return err
			}
		}

		order.Status = in.Status
		order.UpdatedAt = now
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	desc := in.Note
	if desc == "" {
		desc = "Status changed to " + string(in.Status)
	}
	s.appendTimeline(ctx, result.ID, in.Status, desc)
	return result, nil
}

// DeleteOrder removes an order and its dependents, restoring stock unless the
// order was already CANCELLED (cancellation restored it). The payment row goes
// first; it references the order without a cascade. A missing order reports
// false with no error; anything else is logged and returned.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID string) (bool, error) {
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderForUpdate(txCtx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusCancelled {
			if err := s.restoreStock(txCtx, order.ID); err != nil {
				return err
			}
		}
		if err := s.repo.DeletePayment(txCtx, order.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteTimeline(txCtx, order.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteOrderItems(txCtx, order.ID); err != nil {
			return err
		}
		return s.repo.DeleteOrder(txCtx, order.ID)
	})
	if err == domain.ErrOrderNotFound {
		return false, nil
	}
	if err != nil {
		s.logger.Warn("delete order failed", "order_id", orderID, "err", err)
		return false, err
	}
	return true, nil
}

// restoreStock credits back the quantity of every variant-bearing item.
// Items without a variant reference are not restorable and are skipped, as is
// an item whose variant has since been removed from the catalog.
func (s *OrderService) restoreStock(txCtx context.Context, orderID string) error {
	items, err := s.repo.GetOrderItems(txCtx, orderID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.VariantID == "" {
			continue
		}
		if err := s.repo.AddStock(txCtx, item.VariantID, item.Quantity); err != nil {
			if err == domain.ErrVariantNotFound {
				s.logger.Warn("stock restore skipped, variant gone",
					"order_id", orderID, "variant_id", item.VariantID)
				continue
			}
			return err
		}
	}
	return nil
}

func (s *OrderService) appendTimeline(ctx context.Context, orderID string, status domain.OrderStatus, desc string) {
	entry := domain.TimelineEntry{
		ID:          uuid.NewString(),
		OrderID:     orderID,
		Status:      status,
		Description: desc,
		Date:        s.clock.Now(),
	}
	if err := s.repo.AppendTimeline(ctx, entry); err != nil {
		s.logger.Warn("append order timeline failed", "order_id", orderID, "err", err)
	}
}

// newOrderNumber builds a human-readable unique number. Collisions are
// handled by a single retry on the unique constraint.
func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102150405"), suffix)
}
