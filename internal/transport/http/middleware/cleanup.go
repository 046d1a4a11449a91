package middleware

import (
	"crypto/subtle"
	"net/http"
)

// CleanupTokenHeader carries the shared secret for maintenance endpoints.
const CleanupTokenHeader = "X-Cleanup-Token"

// RequireToken rejects requests whose X-Cleanup-Token does not equal token.
// An empty token disables the check.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(CleanupTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "invalid cleanup token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
