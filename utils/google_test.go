package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGoogleVerifier(t *testing.T, status int, info tokenInfo) *GoogleVerifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "good-token", r.URL.Query().Get("id_token"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(srv.Close)

	v := NewGoogleVerifier("client-1")
	v.endpoint = srv.URL
	v.httpClient = srv.Client()
	return v
}

func TestGoogleVerifier(t *testing.T) {
	valid := tokenInfo{Sub: "sub-1", Email: "a@example.com", EmailVerified: "true", Name: "A", Aud: "client-1"}

	t.Run("valid token", func(t *testing.T) {
		id, err := newTestGoogleVerifier(t, http.StatusOK, valid).Verify(context.Background(), "good-token")
		require.NoError(t, err)
		assert.Equal(t, FederatedIdentity{Subject: "sub-1", Email: "a@example.com", Name: "A"}, id)
	})

	tests := []struct {
		name   string
		status int
		mutate func(*tokenInfo)
	}{
		{name: "rejected", status: http.StatusBadRequest, mutate: func(*tokenInfo) {}},
		{name: "wrong audience", status: http.StatusOK, mutate: func(i *tokenInfo) { i.Aud = "someone-else" }},
		{name: "unverified email", status: http.StatusOK, mutate: func(i *tokenInfo) { i.EmailVerified = "false" }},
		{name: "missing subject", status: http.StatusOK, mutate: func(i *tokenInfo) { i.Sub = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := valid
			tt.mutate(&info)
			_, err := newTestGoogleVerifier(t, tt.status, info).Verify(context.Background(), "good-token")
			assert.Error(t, err)
		})
	}

	t.Run("no client id", func(t *testing.T) {
		v := newTestGoogleVerifier(t, http.StatusOK, valid)
		v.clientID = ""
		_, err := v.Verify(context.Background(), "good-token")
		assert.ErrorIs(t, err, ErrGoogleNotConfigured)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := NewGoogleVerifier("client-1").Verify(context.Background(), "")
		assert.Error(t, err)
	})
}
