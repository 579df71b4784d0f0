package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// ErrGoogleNotConfigured is returned by Verify when no client id is set.
var ErrGoogleNotConfigured = errors.New("google sign-in is not configured")

// FederatedIdentity is the verified claim returned by an identity provider.
type FederatedIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier checks Google ID tokens against the tokeninfo endpoint.
type GoogleVerifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:   clientID,
		endpoint:   googleTokenInfoURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Aud           string `json:"aud"`
}

// Verify asks Google to validate the ID token and returns its subject, email and name.
// Tokens are only accepted when their audience is the configured client id.
func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (FederatedIdentity, error) {
	if g.clientID == "" {
		return FederatedIdentity{}, ErrGoogleNotConfigured
	}
	if idToken == "" {
		return FederatedIdentity{}, errors.New("id token is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return FederatedIdentity{}, fmt.Errorf("build tokeninfo request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return FederatedIdentity{}, fmt.Errorf("tokeninfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FederatedIdentity{}, fmt.Errorf("tokeninfo rejected token: status %d", resp.StatusCode)
	}
	var info tokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return FederatedIdentity{}, fmt.Errorf("decode tokeninfo: %w", err)
	}
	if info.Aud != g.clientID {
		return FederatedIdentity{}, errors.New("token audience mismatch")
	}
	if info.Sub == "" || info.Email == "" {
		return FederatedIdentity{}, errors.New("token missing subject or email")
	}
	if info.EmailVerified != "" && info.EmailVerified != "true" {
		return FederatedIdentity{}, errors.New("email not verified by provider")
	}
	return FederatedIdentity{Subject: info.Sub, Email: info.Email, Name: info.Name}, nil
}
