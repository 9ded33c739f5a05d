// Package middleware provides HTTP middleware for the flowdash server.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtorcivia/flowdash/internal/config"
	"github.com/dtorcivia/flowdash/internal/response"
)

const authRealm = "flowdash"

// BasicAuth returns middleware that requires the configured dashboard credentials.
// Paths in public bypass the check. With auth disabled it is a no-op.
func BasicAuth(cfg *config.AuthConfig, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			user, password, ok := r.BasicAuth()
			if !ok {
				response.WriteUnauthorized(w, authRealm)
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.Username)) == 1
			passOK := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)) == nil
			if !userOK || !passOK {
				response.WriteUnauthorized(w, authRealm)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HashPassword returns a bcrypt hash suitable for DASHBOARD_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
