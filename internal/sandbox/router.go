package sandbox

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
)

// ServiceName labels the sandbox in logs, metrics and traces.
const ServiceName = "sandbox-api"

// BasePath is where the API is mounted, matching the real service.
const BasePath = "/ecommerce-management/v1"

// NewRouter creates a chi router with all sandbox API routes registered.
func NewRouter(store *Store, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	h := NewHandler(store, logger)
	requireToken := middleware.Auth(func(_ context.Context, token string) (string, error) {
		return store.ResolveToken(token)
	})

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/products", h.ListProducts)

		r.Post("/costumers/sign-in", h.SignIn)
		r.Post("/costumers/create", h.Register)
		r.Post("/costumers/forgot-password", h.ForgotPassword)

		r.Group(func(r chi.Router) {
			r.Use(requireToken)

			r.Get("/costumers/{id}", h.GetCustomer)

			r.Post("/orders/create", h.CreateOrder)
			r.Get("/orders/order/{id}", h.GetOrder)
			r.Get("/orders/costumer/{id}", h.ListCustomerOrders)
			r.Post("/orders/items/create", h.AttachItem)
			r.Delete("/orders/items/{id}/delete", h.DeleteItem)
			r.Post("/orders/{id}/finalize", h.FinalizeOrder)
			r.Put("/orders/{id}/complete-payment", h.CompletePayment)
		})
	})

	return r
}
