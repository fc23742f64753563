package main

import (
	"net/http"

	"github.com/Simplici0/teekiosk/internal/obs"
	"github.com/Simplici0/teekiosk/internal/pricing"
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *server) handlePricingTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.calc.Table())
}

// handlePricePreview runs the same calculator the cart uses. Pricing problems
// are part of the breakdown, so a decodable item always gets a 200.
func (s *server) handlePricePreview(w http.ResponseWriter, r *http.Request) {
	var item pricing.Item
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	breakdown := s.calc.Compute(item)
	s.metrics.ObserveCalculation(obs.PathPreview, len(breakdown.Errors), breakdown.Fatal())
	writeJSON(w, http.StatusOK, breakdown)
}
