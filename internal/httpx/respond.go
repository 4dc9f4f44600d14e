package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-rental-checkout/internal/apperr"
	"github.com/ariefcatur/go-rental-checkout/internal/checkout"
	"github.com/ariefcatur/go-rental-checkout/internal/orders"
	"github.com/ariefcatur/go-rental-checkout/internal/promo"
)

const (
	msgInvalidPromo = "Invalid promo code. Please try again."
	msgOrderFailed  = "Failed to place your order. Please try again."
)

type errorBody struct {
	Error     string            `json:"error"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
	OrderID   string            `json:"orderId,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var (
		ve *apperr.ValidationError
		ue *promo.UnknownPromotionError
		pe *checkout.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: ve.Fields})
	case errors.As(err, &ue):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: msgInvalidPromo})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: msgOrderFailed, Retryable: pe.Retryable(), OrderID: pe.OrderID})
	case errors.Is(err, checkout.ErrEmptyBag),
		errors.Is(err, checkout.ErrWrongStage),
		errors.Is(err, checkout.ErrProcessing):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, orders.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid json"})
		return false
	}
	return true
}
