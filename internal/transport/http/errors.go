package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/storefront/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeInvalidID            = "invalid_id"
	codeInvalidQuantity      = "invalid_quantity"
	codeSessionRequired      = "session_id_required"
	codeOwnerKeyRequired     = "owner_key_required"
	codeEmptyOrder           = "empty_order"
	codeProductNameRequired  = "product_name_required"
	codeInvalidPrice         = "invalid_price"
	codeInvalidStock         = "invalid_stock"
	codeProductNotFound      = "product_not_found"
	codeVariantNotFound      = "variant_not_found"
	codeReservationNotFound  = "reservation_not_found"
	codeOrderNotFound        = "order_not_found"
	codeCouponNotFound       = "coupon_not_found"
	codeReservationNotActive = "reservation_not_active"
	codeReservationExpired   = "reservation_expired"
	codeInvalidTransition    = "invalid_status_transition"
	codePaymentNotCompleted  = "payment_not_completed"
	codeCouponInvalid        = "coupon_not_applicable"
	codeCouponAlreadyApplied = "coupon_already_applied"
	codeInsufficientStock    = "insufficient_stock"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps known domain errors onto stable HTTP codes. Unknown
// errors become a generic 500 so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrSessionRequired):
		writeError(w, http.StatusBadRequest, codeSessionRequired, err.Error())
	case errors.Is(err, domain.ErrOwnerKeyRequired):
		writeError(w, http.StatusBadRequest, codeOwnerKeyRequired, err.Error())
	case errors.Is(err, domain.ErrEmptyOrder):
		writeError(w, http.StatusBadRequest, codeEmptyOrder, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrProductNameRequired):
		writeError(w, http.StatusBadRequest, codeProductNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, domain.ErrInvalidStock):
		writeError(w, http.StatusBadRequest, codeInvalidStock, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, codeVariantNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrCouponNotFound):
		writeError(w, http.StatusNotFound, codeCouponNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotActive):
		writeError(w, http.StatusConflict, codeReservationNotActive, err.Error())
	case errors.Is(err, domain.ErrReservationExpired):
		writeError(w, http.StatusConflict, codeReservationExpired, err.Error())
	case errors.Is(err, domain.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrPaymentNotCompleted):
		writeError(w, http.StatusConflict, codePaymentNotCompleted, err.Error())
	case errors.Is(err, domain.ErrCouponInvalid):
		writeError(w, http.StatusConflict, codeCouponInvalid, err.Error())
	case errors.Is(err, domain.ErrCouponAlreadyApplied):
		writeError(w, http.StatusConflict, codeCouponAlreadyApplied, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
