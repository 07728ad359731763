package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StockReader is the minimal interface needed to report availability.
type StockReader interface {
	AvailableStock(ctx context.Context, variantID string) (int, error)
}

// HandleGetStock returns an HTTP handler reporting the available quantity of
// a variant: physical stock minus active holds.
func HandleGetStock(svc StockReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		available, err := svc.AvailableStock(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stockResponse{
			VariantID: id,
			Available: available,
		})
	}
}

type stockResponse struct {
	VariantID string `json:"variant_id"`
	Available int    `json:"available"`
}
