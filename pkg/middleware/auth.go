package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
)

type contextKeyType string

const customerIDKey contextKeyType = "customer_id"

// TokenResolver maps the raw Authorization header value to a customer ID.
type TokenResolver func(ctx context.Context, token string) (string, error)

// Auth rejects requests whose Authorization header is missing or unknown to
// resolve, and stores the resolved customer ID in the request context.
//
// The header is passed through untouched: the commerce API hands out
// credentials that already carry their scheme.
func Auth(resolve TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get("Authorization"))
			if token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing authorization header"), nil)
				return
			}

			customerID, err := resolve(r.Context(), token)
			if err != nil || customerID == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), nil)
				return
			}

			ctx := context.WithValue(r.Context(), customerIDKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CustomerIDFromContext returns the customer ID set by Auth.
func CustomerIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(customerIDKey).(string); ok {
		return id
	}
	return ""
}
