package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, customer_id, trace_id and span_id. Handlers retrieve it
// with logger.FromContext.
//
// Mount it after RequestLogging, Tracing and Auth so those fields are set.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if customerID := CustomerIDFromContext(ctx); customerID != "" {
				ctx = logger.WithCustomerID(ctx, customerID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
