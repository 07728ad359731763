package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	ReservationsCreated prometheus.Counter
	ReservationsExpired prometheus.Counter
	SweepRuns           prometheus.Counter
	OrdersCreated       prometheus.Counter
	RequestDuration     prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	reservationsCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_reservations_created_total"})
	reservationsExpired := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_reservations_expired_total"})
	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_sweep_runs_total"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_orders_created_total"})
	requestDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(reservationsCreated, reservationsExpired, sweepRuns, ordersCreated, requestDuration)
	return &Registry{
		reg:                 r,
		ReservationsCreated: reservationsCreated,
		ReservationsExpired: reservationsExpired,
		SweepRuns:           sweepRuns,
		OrdersCreated:       ordersCreated,
		RequestDuration:     requestDuration,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
