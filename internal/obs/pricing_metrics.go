package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Pricing outcomes used as the "outcome" label.
const (
	OutcomeOK         = "ok"
	OutcomeLocalError = "local_error"
	OutcomeFatal      = "fatal"
)

// Pricing paths used as the "path" label.
const (
	PathPreview = "preview"
	PathCart    = "cart"
)

// PricingMetrics counts price calculations and cart writes.
type PricingMetrics struct {
	Calculations *prometheus.CounterVec
	CartLines    *prometheus.CounterVec
}

// NewPricingMetrics registers and returns pricing collectors.
func NewPricingMetrics(namespace string, reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PricingMetrics{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_calculations_total",
			Help:      "Count of unit price calculations by caller path and outcome.",
		}, []string{"path", "outcome"}),
		CartLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_lines_total",
			Help:      "Count of cart line mutations by operation.",
		}, []string{"op"}),
	}
	mustRegisterCollector(reg, m.Calculations, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.Calculations = v
		}
	})
	mustRegisterCollector(reg, m.CartLines, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.CartLines = v
		}
	})
	return m
}

// ObserveCalculation records one calculation. A nil receiver is a no-op.
func (m *PricingMetrics) ObserveCalculation(path string, errCount int, fatal bool) {
	if m == nil {
		return
	}
	m.Calculations.WithLabelValues(path, Outcome(errCount, fatal)).Inc()
}

// ObserveCartLine records a cart mutation such as "add", "update" or "delete".
func (m *PricingMetrics) ObserveCartLine(op string) {
	if m == nil {
		return
	}
	m.CartLines.WithLabelValues(op).Inc()
}

// Outcome maps a calculation result onto an outcome label.
func Outcome(errCount int, fatal bool) string {
	switch {
	case fatal:
		return OutcomeFatal
	case errCount > 0:
		return OutcomeLocalError
	default:
		return OutcomeOK
	}
}
