// Package auth guards the admin routes with a shared secret.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// HeaderSecret is the header carrying the admin secret.
const HeaderSecret = "X-Admin-Secret"

// SecretFromRequest extracts the admin secret from the X-Admin-Secret header,
// falling back to an "Authorization: Bearer <secret>" header.
func SecretFromRequest(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get(HeaderSecret)); s != "" {
		return s
	}

	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Verify compares the presented secret with the expected one in constant time.
// An empty expected secret never verifies.
func Verify(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// RequireSecret returns middleware rejecting requests without the admin secret.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Verify(secret, SecretFromRequest(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
