package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cimillas/storefront/internal/clock"
	"github.com/cimillas/storefront/internal/domain"
)

type CatalogRepository interface {
	CreateProduct(ctx context.Context, p domain.Product) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateVariant(ctx context.Context, v domain.Variant) error
	ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error)
}

// CatalogService is the thin admin surface for products and variants. The
// reservation and order engines only ever read from this data.
type CatalogService struct {
	repo  CatalogRepository
	clock clock.Clock
}

func NewCatalogService(repo CatalogRepository, clk clock.Clock) *CatalogService {
	return &CatalogService{repo: repo, clock: clk}
}

type CreateProductInput struct {
	Name      string
	BasePrice decimal.Decimal
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, domain.ErrProductNameRequired
	}
	if in.BasePrice.IsNegative() {
		return domain.Product{}, domain.ErrInvalidPrice
	}

	product := domain.Product{
		ID:        uuid.NewString(),
		Name:      in.Name,
		BasePrice: in.BasePrice,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

type CreateVariantInput struct {
	ProductID string
	Price     decimal.Decimal
	Stock     int
}

func (s *CatalogService) CreateVariant(ctx context.Context, in CreateVariantInput) (domain.Variant, error) {
	if in.ProductID == "" {
		return domain.Variant{}, domain.ErrInvalidID
	}
	if !in.Price.IsPositive() {
		return domain.Variant{}, domain.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return domain.Variant{}, domain.ErrInvalidStock
	}

	variant := domain.Variant{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		Price:     in.Price,
		Stock:     in.Stock,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateVariant(ctx, variant); err != nil {
		return domain.Variant{}, err
	}
	return variant, nil
}

func (s *CatalogService) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	if productID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListVariantsByProduct(ctx, productID)
}
