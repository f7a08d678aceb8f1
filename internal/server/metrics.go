package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics is the Prometheus registry served on /metrics.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewMetrics(h *Handler) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parking_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parking_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.latency,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_lot_capacity",
			Help: "Total spaces in the current lot.",
		}, func() float64 {
			if lot := h.current(); lot != nil {
				return float64(lot.Capacity())
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_lot_available_spaces",
			Help: "Free spaces in the current lot.",
		}, func() float64 {
			if lot := h.current(); lot != nil {
				return float64(lot.ParkingLot.AvailableCount())
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "parking_receipts_cached",
			Help: "Receipts currently held in the receipt cache.",
		}, func() float64 {
			return float64(h.receipts.Count())
		}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
