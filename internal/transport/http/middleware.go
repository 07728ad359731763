package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cimillas/storefront/internal/metrics"
)

// RequestLogger logs basic request details and latency, and feeds the
// request duration histogram when a registry is provided.
func RequestLogger(next http.Handler, logger *slog.Logger, reg *metrics.Registry) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		if reg != nil {
			reg.RequestDuration.Observe(elapsed.Seconds())
		}
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
