package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cimillas/storefront/internal/app"
	"github.com/cimillas/storefront/internal/domain"
)

// ReservationCreator is the minimal interface needed to create a reservation.
type ReservationCreator interface {
	Create(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
}

// ReservationConverter is the minimal interface needed to convert a
// reservation into a stock deduction.
type ReservationConverter interface {
	Convert(ctx context.Context, reservationID string) (domain.Reservation, error)
}

// ReservationCanceller is the minimal interface needed to cancel reservations.
type ReservationCanceller interface {
	Cancel(ctx context.Context, reservationID string) error
	CancelAll(ctx context.Context, userID, sessionID string) (int, error)
}

// HandleCreateReservation returns an HTTP handler for placing stock holds.
func HandleCreateReservation(svc ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.VariantID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, domain.ErrInvalidID.Error())
			return
		}
		if req.TTLMinutes < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "ttl_minutes must not be negative")
			return
		}

		res, err := svc.Create(r.Context(), app.CreateReservationInput{
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
			SessionID: req.SessionID,
			UserID:    req.UserID,
			TTL:       time.Duration(req.TTLMinutes) * time.Minute,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newReservationResponse(res))
	}
}

// HandleConvertReservation returns an HTTP handler that turns an active
// reservation into a permanent stock deduction.
func HandleConvertReservation(svc ReservationConverter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		res, err := svc.Convert(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newReservationResponse(res))
	}
}

// HandleCancelReservation returns an HTTP handler for cancelling one
// reservation. Cancelling a terminal reservation is a no-op.
func HandleCancelReservation(svc ReservationCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleCancelAllReservations returns an HTTP handler for bulk-cancelling
// every active reservation owned by a session or user.
func HandleCancelAllReservations(svc ReservationCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cancelAllRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		n, err := svc.CancelAll(r.Context(), req.UserID, req.SessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cancelAllResponse{Cancelled: n})
	}
}

type createReservationRequest struct {
	VariantID  string `json:"variant_id"`
	Quantity   int    `json:"quantity"`
	SessionID  string `json:"session_id"`
	UserID     string `json:"user_id,omitempty"`
	TTLMinutes int    `json:"ttl_minutes,omitempty"` // zero keeps the service default
}

type cancelAllRequest struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

type cancelAllResponse struct {
	Cancelled int `json:"cancelled"`
}

type reservationResponse struct {
	ID        string    `json:"id"`
	VariantID string    `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func newReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:        res.ID,
		VariantID: res.VariantID,
		Quantity:  res.Quantity,
		Status:    string(res.Status),
		ExpiresAt: res.ExpiresAt,
		CreatedAt: res.CreatedAt,
	}
}
