package app

import (
	"context"
	"time"

	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/domain"
)

type StockRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetVariant(ctx context.Context, variantID string) (domain.Variant, error)
	GetVariantForUpdate(ctx context.Context, variantID string) (domain.Variant, error)
	SumActiveReservations(ctx context.Context, variantID string, now time.Time) (int, error)
	AddStock(ctx context.Context, variantID string, delta int) error
}

// StockService is the authoritative ledger for per-variant availability:
// physical stock minus active, unexpired reservation holds.
type StockService struct {
	repo  StockRepository
	clock clock.Clock
}

func NewStockService(repo StockRepository, clk clock.Clock) *StockService {
	return &StockService{repo: repo, clock: clk}
}

// AvailableStock returns physical stock minus held quantity, floored at 0.
func (s *StockService) AvailableStock(ctx context.Context, variantID string) (int, error) {
	variant, err := s.repo.GetVariant(ctx, variantID)
	if err != nil {
		return 0, err
	}
	held, err := s.repo.SumActiveReservations(ctx, variantID, s.clock.Now())
	if err != nil {
		return 0, err
	}
	available := variant.Stock - held
	if available < 0 {
		available = 0
	}
	return available, nil
}

// DecrementStock subtracts from physical stock. The read and write share one
// transaction with the variant row locked, so two concurrent decrements
// cannot both observe the same stale stock.
func (s *StockService) DecrementStock(ctx context.Context, variantID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		variant, err := s.repo.GetVariantForUpdate(txCtx, variantID)
		if err != nil {
			return err
		}
		if variant.Stock < qty {
			return domain.ErrInsufficientStock
		}
		return s.repo.AddStock(txCtx, variantID, -qty)
	})
}

// IncrementStock adds qty back to physical stock, used when compensating a
// cancellation or deletion.
func (s *StockService) IncrementStock(ctx context.Context, variantID string, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetVariantForUpdate(txCtx, variantID); err != nil {
			return err
		}
		return s.repo.AddStock(txCtx, variantID, qty)
	})
}
