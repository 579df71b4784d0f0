package utils

import (
	"errors"
	"fmt"
	"time"

	"go-storefront/models"

	"github.com/golang-jwt/jwt/v5"
)

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 7 * 24 * time.Hour

// ErrInvalidSession covers every reason a session token is rejected:
// expired, malformed or bad signature are not distinguished.
var ErrInvalidSession = errors.New("invalid session")

// Claims represents the JWT claims of a session token
type Claims struct {
	User models.SessionUser `json:"user"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies stateless session tokens. There is no
// revocation list; a token is valid until it expires.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *SessionIssuer) TTL() time.Duration {
	return s.ttl
}

// Issue generates a signed token carrying the identity projection
func (s *SessionIssuer) Issue(user models.SessionUser) (string, error) {
	now := s.now()
	claims := &Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the projection without
// the signing metadata.
func (s *SessionIssuer) Verify(tokenStr string) (models.SessionUser, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return models.SessionUser{}, ErrInvalidSession
	}
	if claims.User.ID == "" {
		return models.SessionUser{}, ErrInvalidSession
	}
	return claims.User, nil
}
