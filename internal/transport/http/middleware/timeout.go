package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout caps each request's context at d. Downstream DynamoDB and AWS
// calls inherit the deadline, so a slow upstream surfaces as a 500 from
// the handler rather than a hung connection.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
