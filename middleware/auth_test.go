package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-storefront/models"
	"go-storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(issuer *utils.SessionIssuer) http.Handler {
	return Auth(issuer)(AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		_, _ = w.Write([]byte(u.Email))
	})))
}

func TestAuth(t *testing.T) {
	issuer := utils.NewSessionIssuer("secret", time.Hour)
	admin, err := issuer.Issue(models.SessionUser{ID: "65f1c0ffee0000000000abcd", Email: "root@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	user, err := issuer.Issue(models.SessionUser{ID: "65f1c0ffee0000000000abce", Email: "bob@example.com", Role: models.RoleUser})
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{name: "no token", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "bad cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "junk"}) }, status: http.StatusUnauthorized},
		{name: "admin cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: admin}) }, status: http.StatusOK, body: "root@example.com"},
		{name: "admin bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+admin) }, status: http.StatusOK, body: "root@example.com"},
		{name: "non admin", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: user}) }, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			protected(issuer).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
		})
	}
}
