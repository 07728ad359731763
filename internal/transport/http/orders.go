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

// OrderCreator is the minimal interface needed to assemble an order.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (domain.Order, error)
}

// OrderStatusUpdater is the minimal interface needed to drive the lifecycle.
type OrderStatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, in app.UpdateOrderStatusInput) (domain.Order, error)
}

// OrderDeleter is the minimal interface needed to remove an order.
type OrderDeleter interface {
	DeleteOrder(ctx context.Context, orderID string) (bool, error)
}

// CouponApplier is the minimal interface needed to apply a coupon code to an
// existing order.
type CouponApplier interface {
	ApplyCoupon(ctx context.Context, orderID, code string) (domain.Order, error)
}

// HandleCreateOrder returns an HTTP handler for the order assembly endpoint.
func HandleCreateOrder(svc OrderCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		items := make([]app.OrderItemInput, 0, len(req.Items))
		for _, it := range req.Items {
			items = append(items, app.OrderItemInput{
				ProductID: it.ProductID,
				VariantID: it.VariantID,
				Quantity:  it.Quantity,
			})
		}

		order, err := svc.CreateOrder(r.Context(), app.CreateOrderInput{
			UserID:            req.UserID,
			Items:             items,
			ShippingAddressID: req.ShippingAddressID,
			BillingAddressID:  req.BillingAddressID,
			CouponID:          req.CouponID,
			PaymentMethod:     req.PaymentMethod,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newOrderResponse(order))
	}
}

// HandleApplyCoupon returns an HTTP handler that applies a coupon code to a
// pending order.
func HandleApplyCoupon(svc CouponApplier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req applyCouponRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Code == "" {
			writeError(w, http.StatusBadRequest, codeCouponNotFound, domain.ErrCouponNotFound.Error())
			return
		}

		order, err := svc.ApplyCoupon(r.Context(), id, req.Code)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newOrderResponse(order))
	}
}

// HandleUpdateOrderStatus returns an HTTP handler for lifecycle transitions.
func HandleUpdateOrderStatus(svc OrderStatusUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var req updateOrderStatusRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		order, err := svc.UpdateOrderStatus(r.Context(), app.UpdateOrderStatusInput{
			OrderID: id,
			Status:  domain.OrderStatus(req.Status),
			Note:    req.Note,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newOrderResponse(order))
	}
}

// HandleDeleteOrder returns an HTTP handler for hard order removal.
func HandleDeleteOrder(svc OrderDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		deleted, err := svc.DeleteOrder(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, codeOrderNotFound, domain.ErrOrderNotFound.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type orderItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	UserID            string             `json:"user_id"`
	Items             []orderItemRequest `json:"items"`
	ShippingAddressID string             `json:"shipping_address_id,omitempty"`
	BillingAddressID  string             `json:"billing_address_id,omitempty"`
	CouponID          string             `json:"coupon_id,omitempty"`
	PaymentMethod     string             `json:"payment_method,omitempty"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type orderItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type orderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"order_number"`
	UserID         string              `json:"user_id"`
	Status         string              `json:"status"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TotalPrice     decimal.Decimal     `json:"total_price"`
	CouponID       string              `json:"coupon_id,omitempty"`
	Items          []orderItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

func newOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, orderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return orderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		UserID:         order.UserID,
		Status:         string(order.Status),
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		TotalPrice:     order.TotalPrice,
		CouponID:       order.CouponID,
		Items:          items,
		CreatedAt:      order.CreatedAt,
		UpdatedAt:      order.UpdatedAt,
	}
}
