package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-storefront/events"
	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// AuthService handles registration, password and federated login, and
// profile updates. Every successful call returns a freshly issued session.
type AuthService struct {
	users      store.UserStore
	sessions   *utils.SessionIssuer
	verifier   IdentityVerifier
	events     events.Publisher
	logger     *zap.Logger
	bcryptCost int
}

func NewAuthService(users store.UserStore, sessions *utils.SessionIssuer, verifier IdentityVerifier, pub events.Publisher, logger *zap.Logger, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		verifier:   verifier,
		events:     pub,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr("user", err)
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, storeErr("user", err)
	}

	publish(ctx, s.events, s.logger, events.New(events.UserRegistered, user.ID.Hex(), map[string]interface{}{
		"email":  user.Email,
		"method": "password",
	}))
	return issueSession(s.sessions, user)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
		}
		return nil, storeErr("user", err)
	}
	if !user.HasPassword() {
		if user.IsFederated() {
			return nil, fmt.Errorf("sign in with Google: %w", ErrUnsupportedMethod)
		}
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	if !utils.CheckPassword(user.PasswordHash, in.Password) {
		return nil, fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	}
	return issueSession(s.sessions, user)
}

// FederatedLogin signs in with a third-party ID token, creating the account
// on first use. An account that already signs in with a password is not
// linked automatically.
func (s *AuthService) FederatedLogin(ctx context.Context, idToken string) (*Session, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, invalid("credential is required")
	}
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, &UpstreamError{Service: UpstreamIdentity, Err: err}
	}
	email := models.NormalizeEmail(identity.Email)

	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &models.User{
			Name:     name,
			Email:    email,
			GoogleID: identity.Subject,
			Role:     models.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, storeErr("user", err)
		}
		publish(ctx, s.events, s.logger, events.New(events.UserRegistered, user.ID.Hex(), map[string]interface{}{
			"email":  user.Email,
			"method": "google",
		}))
	case err != nil:
		return nil, storeErr("user", err)
	case user.GoogleID == identity.Subject:
	case user.IsFederated():
		return nil, fmt.Errorf("identity does not match account: %w", ErrUnauthorized)
	case user.HasPassword():
		return nil, fmt.Errorf("sign in with your password: %w", ErrUnsupportedMethod)
	default:
		if err := s.users.LinkGoogle(ctx, user.ID, identity.Subject); err != nil {
			return nil, storeErr("user", err)
		}
		user.GoogleID = identity.Subject
	}
	return issueSession(s.sessions, user)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, userID, models.Profile{
		Name:    in.Name,
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		Country: strings.TrimSpace(in.Country),
	})
	if err != nil {
		return nil, storeErr("user", err)
	}
	return issueSession(s.sessions, user)
}

// CurrentUser loads the stored record behind a session.
func (s *AuthService) CurrentUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("user", err)
	}
	return user, nil
}
