package main

import (
	"net/http"
)

func (s *server) handleVariantsList(w http.ResponseWriter, r *http.Request) {
	variants, err := s.cart.Variants(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, variants)
}

func (s *server) handleVariantGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product variant id", nil)
		return
	}

	variant, err := s.cart.Variant(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, variant)
}
