package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cimillas/storefront/internal/app"
	"github.com/cimillas/storefront/internal/domain"
)

// AdminProductService is the minimal interface needed for admin product
// endpoints.
type AdminProductService interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// AdminVariantService is the minimal interface needed for admin variant
// endpoints.
type AdminVariantService interface {
	CreateVariant(ctx context.Context, in app.CreateVariantInput) (domain.Variant, error)
	ListVariants(ctx context.Context, productID string) ([]domain.Variant, error)
}

// HandleAdminListProducts returns an HTTP handler listing the catalog.
func HandleAdminListProducts(svc AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}
		resp := make([]productResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, productResponse{
				ID:        p.ID,
				Name:      p.Name,
				BasePrice: p.BasePrice,
				CreatedAt: p.CreatedAt,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleAdminCreateProduct returns an HTTP handler for product creation.
func HandleAdminCreateProduct(svc AdminProductService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, codeProductNameRequired, domain.ErrProductNameRequired.Error())
			return
		}

		product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
			Name:      req.Name,
			BasePrice: req.BasePrice,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(productResponse{
			ID:        product.ID,
			Name:      product.Name,
			BasePrice: product.BasePrice,
			CreatedAt: product.CreatedAt,
		})
	}
}

// HandleAdminListVariants returns an HTTP handler listing a product's
// variants.
func HandleAdminListVariants(svc AdminVariantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "id")
		if productID == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		variants, err := svc.ListVariants(r.Context(), productID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]variantResponse, 0, len(variants))
		for _, v := range variants {
			resp = append(resp, newVariantResponse(v))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleAdminCreateVariant returns an HTTP handler for variant creation.
func HandleAdminCreateVariant(svc AdminVariantService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "id")
		if productID == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req createVariantRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		variant, err := svc.CreateVariant(r.Context(), app.CreateVariantInput{
			ProductID: productID,
			Price:     req.Price,
			Stock:     req.Stock,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newVariantResponse(variant))
	}
}

type createProductRequest struct {
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
}

type productResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	CreatedAt time.Time       `json:"created_at"`
}

type createVariantRequest struct {
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type variantResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
}

func newVariantResponse(v domain.Variant) variantResponse {
	return variantResponse{
		ID:        v.ID,
		ProductID: v.ProductID,
		Price:     v.Price,
		Stock:     v.Stock,
		CreatedAt: v.CreatedAt,
	}
}
