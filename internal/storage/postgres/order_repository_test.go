package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cimillas/storefront/internal/domain"
	"github.com/cimillas/storefront/internal/testutil"
)

func TestOrderRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewOrderRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	newOrder := func(number string) domain.Order {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return domain.Order{
			ID:          uuid.NewString(),
			OrderNumber: number,
			UserID:      "user-1",
			Status:      domain.OrderStatusPending,
			Subtotal:    decimal.NewFromInt(100),
			TotalPrice:  decimal.NewFromInt(100),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	t.Run("CreateOrder round-trips and rejects duplicate numbers", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		order := newOrder("ORD-1")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetOrderForUpdate(ctx, order.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.OrderNumber != "ORD-1" || got.Status != domain.OrderStatusPending {
			t.Fatalf("unexpected order: %+v", got)
		}
		if got.CouponID != "" {
			t.Fatalf("expected empty coupon reference, got %q", got.CouponID)
		}
		if !got.Subtotal.Equal(decimal.NewFromInt(100)) {
			t.Fatalf("expected subtotal 100, got %s", got.Subtotal)
		}

		dup := newOrder("ORD-1")
		if err := repo.CreateOrder(ctx, dup); err != domain.ErrOrderNumberTaken {
			t.Fatalf("expected ErrOrderNumberTaken, got %v", err)
		}
	})

	t.Run("order items round-trip with optional variant", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID, variantID := testutil.InsertProductAndVariant(t, ctx, pool, "Tee", decimal.NewFromInt(25), 10)

		order := newOrder("ORD-2")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		items := []domain.OrderItem{
			{ID: uuid.NewString(), OrderID: order.ID, ProductID: productID, VariantID: variantID, Quantity: 2, Price: decimal.NewFromInt(25)},
			{ID: uuid.NewString(), OrderID: order.ID, ProductID: productID, Quantity: 1, Price: decimal.NewFromInt(20)},
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			t.Fatalf("create items: %v", err)
		}

		got, err := repo.GetOrderItems(ctx, order.ID)
		if err != nil {
			t.Fatalf("get items: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 items, got %d", len(got))
		}
		withVariant, withoutVariant := 0, 0
		for _, it := range got {
			if it.VariantID == "" {
				withoutVariant++
			} else if it.VariantID == variantID {
				withVariant++
			}
		}
		if withVariant != 1 || withoutVariant != 1 {
			t.Fatalf("unexpected variant references: %+v", got)
		}
	})

	t.Run("UpdateOrderStatus persists status and timestamp", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		order := newOrder("ORD-3")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		later := time.Now().UTC().Truncate(time.Microsecond)
		if err := repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusProcessing, later); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got, err := repo.GetOrderForUpdate(ctx, order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.Status != domain.OrderStatusProcessing {
			t.Fatalf("expected PROCESSING, got %s", got.Status)
		}

		missingID := "00000000-0000-0000-0000-000000000001"
		if err := repo.UpdateOrderStatus(ctx, missingID, domain.OrderStatusProcessing, later); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("payment status defaults empty and upserts", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		order := newOrder("ORD-4")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}

		status, err := repo.GetPaymentStatus(ctx, order.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if status != "" {
			t.Fatalf("expected empty status without payment row, got %q", status)
		}

		if err := repo.SetPaymentStatus(ctx, order.ID, domain.PaymentStatusCompleted); err != nil {
			t.Fatalf("set payment: %v", err)
		}
		if err := repo.SetPaymentStatus(ctx, order.ID, domain.PaymentStatusRefunded); err != nil {
			t.Fatalf("upsert payment: %v", err)
		}
		status, err = repo.GetPaymentStatus(ctx, order.ID)
		if err != nil {
			t.Fatalf("get payment: %v", err)
		}
		if status != domain.PaymentStatusRefunded {
			t.Fatalf("expected REFUNDED, got %s", status)
		}
	})

	t.Run("delete removes order with dependents", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		productID, variantID := testutil.InsertProductAndVariant(t, ctx, pool, "Tee", decimal.NewFromInt(25), 10)

		order := newOrder("ORD-5")
		if err := repo.CreateOrder(ctx, order); err != nil {
			t.Fatalf("create order: %v", err)
		}
		if err := repo.CreateOrderItems(ctx, []domain.OrderItem{
			{ID: uuid.NewString(), OrderID: order.ID, ProductID: productID, VariantID: variantID, Quantity: 1, Price: decimal.NewFromInt(25)},
		}); err != nil {
			t.Fatalf("create items: %v", err)
		}
		if err := repo.AppendTimeline(ctx, domain.TimelineEntry{
			ID: uuid.NewString(), OrderID: order.ID, Status: domain.OrderStatusPending,
			Description: "Order placed", Date: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("append timeline: %v", err)
		}
		if err := repo.SetPaymentStatus(ctx, order.ID, domain.PaymentStatusCompleted); err != nil {
			t.Fatalf("set payment: %v", err)
		}

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.DeletePayment(txCtx, order.ID); err != nil {
				return err
			}
			if err := repo.DeleteTimeline(txCtx, order.ID); err != nil {
				return err
			}
			if err := repo.DeleteOrderItems(txCtx, order.ID); err != nil {
				return err
			}
			return repo.DeleteOrder(txCtx, order.ID)
		})
		if err != nil {
			t.Fatalf("delete tx: %v", err)
		}

		if _, err := repo.GetOrderForUpdate(ctx, order.ID); err != domain.ErrOrderNotFound {
			t.Fatalf("expected ErrOrderNotFound, got %v", err)
		}
		status, err := repo.GetPaymentStatus(ctx, order.ID)
		if err != nil {
			t.Fatalf("get payment: %v", err)
		}
		if status != "" {
			t.Fatalf("expected payment row removed, got %q", status)
		}
	})
}
