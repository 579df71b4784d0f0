// Package services holds the storefront's business rules: sessions, reviews,
// carts, password reset and administration.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-storefront/events"
	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// IdentityVerifier validates a third-party identity token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (utils.FederatedIdentity, error)
}

// Notifier sends out-of-band messages to users.
type Notifier interface {
	SendPasswordResetCode(ctx context.Context, toEmail, name, code string, ttl time.Duration) error
}

// Session is a freshly issued token together with the identity it carries.
type Session struct {
	User  models.SessionUser `json:"user"`
	Token string             `json:"-"`
}

func issueSession(issuer *utils.SessionIssuer, u *models.User) (*Session, error) {
	projection := u.Session()
	token, err := issuer.Issue(projection)
	if err != nil {
		return nil, err
	}
	return &Session{User: projection, Token: token}, nil
}

// publishTimeout bounds how long a request waits on the event broker.
var publishTimeout = 2 * time.Second

// publish sends e within publishTimeout. Failures are logged, never returned.
func publish(ctx context.Context, pub events.Publisher, logger *zap.Logger, e events.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn("publish event failed", zap.String("type", e.Type), zap.Error(err))
	}
}

// ParseID converts a hex id from a URL or token into an ObjectID.
func ParseID(kind, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, invalid(fmt.Sprintf("invalid %s id", kind))
	}
	return id, nil
}

// storeErr maps store sentinels onto service errors.
func storeErr(kind string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s %w", kind, ErrNotFound)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%s: %w", kind, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", kind, err)
	}
}
