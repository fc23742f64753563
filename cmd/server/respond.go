package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/teekiosk/internal/cart"
)

// maxBodyBytes leaves room for base64 image sources in customization payloads.
const maxBodyBytes = 8 << 20

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, map[string]any{
		"error": errorBody{Code: code, Message: message, Details: details},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps cart errors onto HTTP responses.
func (s *server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var pricingErr *cart.PricingError
	switch {
	case errors.As(err, &pricingErr):
		writeError(w, http.StatusBadRequest, "PRICING_FAILED", "Error calculating price on server.", map[string]any{
			"errors":    pricingErr.Breakdown.Errors,
			"breakdown": pricingErr.Breakdown,
		})
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "INVALID_QUANTITY", err.Error(), nil)
	case errors.Is(err, cart.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, cart.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, "VARIANT_NOT_FOUND", "product variant not found", nil)
	case errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "ITEM_NOT_FOUND", "cart item not found", nil)
	default:
		s.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
