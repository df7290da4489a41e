// Package api implements the clovern REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/clovern/internal/auth"
)

// AuthMiddleware returns middleware that checks the Bearer credential with v.
// If v is nil, all requests pass through.
func AuthMiddleware(v auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				credential = r.URL.Query().Get("access_token")
			}
			if err := v.Verify(credential); err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
