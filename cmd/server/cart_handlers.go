package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/teekiosk/internal/cart"
)

func (s *server) handleCartCreate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"cartSessionId": s.cart.NewSession()})
}

func (s *server) handleCartGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.cart.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var in cart.AddItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	line, err := s.cart.Add(r.Context(), chi.URLParam(r, "sessionID"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, line)
}

func (s *server) handleCartItemUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart item id", nil)
		return
	}

	var in cart.UpdateQuantityInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	line, err := s.cart.UpdateQuantity(r.Context(), chi.URLParam(r, "sessionID"), id, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *server) handleCartItemDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart item id", nil)
		return
	}

	if err := s.cart.Remove(r.Context(), chi.URLParam(r, "sessionID"), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleCartClear(w http.ResponseWriter, r *http.Request) {
	removed, err := s.cart.Clear(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
