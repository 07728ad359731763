package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cimillas/storefront/internal/app"
	"github.com/cimillas/storefront/internal/metrics"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Reservations *app.ReservationService
	Orders       *app.OrderService
	Coupons      *app.CouponService
	Stock        *app.StockService
	Catalog      *app.CatalogService
	Metrics      *metrics.Registry
	Logger       *slog.Logger
	CORSOrigins  []string
}

// NewRouter assembles the full route table behind logging and CORS.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", HealthHandler)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	var resCreated, ordCreated func()
	if deps.Metrics != nil {
		resCreated = deps.Metrics.ReservationsCreated.Inc
		ordCreated = deps.Metrics.OrdersCreated.Inc
	}

	r.Post("/reservations", countOnCreated(HandleCreateReservation(deps.Reservations), resCreated))
	r.Post("/reservations/cancel_all", HandleCancelAllReservations(deps.Reservations))
	r.Post("/reservations/{id}/convert", HandleConvertReservation(deps.Reservations))
	r.Post("/reservations/{id}/cancel", HandleCancelReservation(deps.Reservations))

	r.Get("/variants/{id}/stock", HandleGetStock(deps.Stock))

	r.Post("/orders", countOnCreated(HandleCreateOrder(deps.Orders), ordCreated))
	r.Post("/orders/{id}/coupon", HandleApplyCoupon(deps.Coupons))
	r.Post("/orders/{id}/status", HandleUpdateOrderStatus(deps.Orders))
	r.Delete("/orders/{id}", HandleDeleteOrder(deps.Orders))

	r.Get("/admin/products", HandleAdminListProducts(deps.Catalog))
	r.Post("/admin/products", HandleAdminCreateProduct(deps.Catalog))
	r.Get("/admin/products/{id}/variants", HandleAdminListVariants(deps.Catalog))
	r.Post("/admin/products/{id}/variants", HandleAdminCreateVariant(deps.Catalog))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	return RequestLogger(CORS(deps.CORSOrigins, r), deps.Logger, deps.Metrics)
}

// countOnCreated bumps a counter when the wrapped handler answers 201.
func countOnCreated(next http.HandlerFunc, inc func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		if rec.status == http.StatusCreated && inc != nil {
			inc()
		}
	}
}
