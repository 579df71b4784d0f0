package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go-storefront/models"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// SessionCookie is the cookie that carries the session token.
const SessionCookie = "token"

// UserFromContext returns the session attached by Auth.
func UserFromContext(ctx context.Context) (models.SessionUser, bool) {
	u, ok := ctx.Value(UserContextKey).(models.SessionUser)
	return u, ok
}

// WithUser attaches a session to ctx.
func WithUser(ctx context.Context, u models.SessionUser) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

// tokenFromRequest reads the session cookie, falling back to a Bearer header.
func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Auth verifies the session token and attaches the identity to the request
// context. Any failure is reported as 401 without saying why.
func Auth(issuer *utils.SessionIssuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				deny(w, http.StatusUnauthorized, "not logged in")
				return
			}
			user, err := issuer.Verify(tokenStr)
			if err != nil {
				deny(w, http.StatusUnauthorized, "not logged in")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// AdminOnly ensures that the user has admin privileges. It must run after Auth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			deny(w, http.StatusUnauthorized, "not logged in")
			return
		}
		if !user.IsAdmin() {
			deny(w, http.StatusForbidden, "Forbidden: Admins only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
