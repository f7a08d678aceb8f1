package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"parking-lot-billing/internal/logging"
	"parking-lot-billing/internal/parking"
	"parking-lot-billing/internal/telemetry"
)

const defaultReceiptTTL = 24 * time.Hour

type Options struct {
	Port        int
	ServiceName string
	Telemetry   *telemetry.Provider
	Publisher   parking.EventPublisher
	Clock       parking.Clock
	RateLimit   rate.Limit
	RateBurst   int
	ReceiptTTL  time.Duration
}

type Server struct {
	httpServer *http.Server
	handler    *Handler
	metrics    *Metrics
}

func NewServer(opts Options) *Server {
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.NewNoop()
	}
	if opts.ServiceName == "" {
		opts.ServiceName = telemetry.DefaultServiceName
	}
	if opts.Clock == nil {
		opts.Clock = parking.SystemClock{}
	}
	if opts.ReceiptTTL <= 0 {
		opts.ReceiptTTL = defaultReceiptTTL
	}

	handler := NewHandler(opts)
	metrics := NewMetrics(handler)

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(TracingMiddleware(opts.Telemetry.Tracer()))
	r.Use(LoggingMiddleware)
	r.Use(MetricsMiddleware(metrics))
	r.Use(CORSMiddleware)

	r.Get("/health", handler.HealthCheck)
	r.Get("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP)

	r.Route("/api/parking-lot", func(r chi.Router) {
		r.Use(RateLimitMiddleware(opts.RateLimit, opts.RateBurst))

		r.Post("/", handler.CreateParkingLot)
		r.Post("/park", handler.ParkVehicle)
		r.Post("/leave", handler.LeaveLot)
		r.Get("/available", handler.Available)
		r.Get("/status", handler.GetStatus)
		r.Get("/find/{plate}", handler.FindByPlate)
		r.Get("/quote/{plate}", handler.QuoteByPlate)
		r.Get("/receipts/{ticketID}", handler.GetReceipt)
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		handler:    handler,
		metrics:    metrics,
	}
}

// Install creates the lot the API serves, replacing any existing one.
func (s *Server) Install(ctx context.Context, capacity int, policy parking.PricingPolicy) error {
	_, err := s.handler.Install(ctx, capacity, policy)
	return err
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	logging.Infof(context.Background(), "Starting HTTP server on %s", s.GetAddress())
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info(ctx, "Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) GetAddress() string {
	return fmt.Sprintf("http://localhost%s", s.httpServer.Addr)
}
