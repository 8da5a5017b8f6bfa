package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pmbank/settlement/internal/adapter/http/handler"
	"github.com/pmbank/settlement/internal/adapter/http/middleware"
	"github.com/pmbank/settlement/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PaymentHandler      *handler.PaymentHandler
	NotificationHandler *handler.NotificationHandler
	AnalyticsHandler    *handler.AnalyticsHandler
	HealthHandler       *handler.HealthHandler
	IdempotencyStore    usecase.IdempotencyStore
	IdempotencyTTL      time.Duration
	RateLimiter         *middleware.RateLimiter
	Logger              *zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(*cfg.Logger).Wrap)
	}
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Payments
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", cfg.PaymentHandler.Create)
			r.Get("/", cfg.PaymentHandler.List)
			r.Get("/{id}", cfg.PaymentHandler.Get)
		})

		// Account views
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{id}/payments", cfg.PaymentHandler.ListByAccount)
			r.Get("/{id}/notifications", cfg.NotificationHandler.ListByAccount)
		})

		// Analytics
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", cfg.AnalyticsHandler.Summary)
			r.Get("/volume/daily", cfg.AnalyticsHandler.DailyVolume)
			r.Get("/accounts/top", cfg.AnalyticsHandler.TopAccounts)
		})
	})

	return r
}
