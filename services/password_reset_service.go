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

	"go.uber.org/zap"
)

// DefaultOTPTTL is how long a reset code stays valid.
const DefaultOTPTTL = 10 * time.Minute

type RequestResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyResetInput struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"otp" validate:"required,len=6,numeric"`
}

type CompleteResetInput struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"otp" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// PasswordResetService runs the emailed one-time-code reset flow. A challenge
// moves from none to issued, then either expires or is consumed by a reset.
type PasswordResetService struct {
	users      store.UserStore
	sessions   *utils.SessionIssuer
	notifier   Notifier
	events     events.Publisher
	logger     *zap.Logger
	bcryptCost int
	ttl        time.Duration
	now        func() time.Time
}

func NewPasswordResetService(users store.UserStore, sessions *utils.SessionIssuer, notifier Notifier, pub events.Publisher, logger *zap.Logger, bcryptCost int, ttl time.Duration) *PasswordResetService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &PasswordResetService{
		users:      users,
		sessions:   sessions,
		notifier:   notifier,
		events:     pub,
		logger:     logger,
		bcryptCost: bcryptCost,
		ttl:        ttl,
		now:        time.Now,
	}
}

// RequestChallenge stores a hashed code on the account and emails the plaintext.
func (s *PasswordResetService) RequestChallenge(ctx context.Context, in RequestResetInput) error {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return err
	}
	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return storeErr("account", err)
	}
	if !user.HasPassword() {
		return fmt.Errorf("account signs in with Google: %w", ErrUnsupportedMethod)
	}

	code, err := utils.GenerateOTP(utils.OTPLength)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(code, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.SetOTP(ctx, user.ID, hash, s.now().Add(s.ttl)); err != nil {
		return storeErr("account", err)
	}
	if err := s.notifier.SendPasswordResetCode(ctx, user.Email, user.Name, code, s.ttl); err != nil {
		if clearErr := s.users.ClearOTP(ctx, user.ID); clearErr != nil {
			s.logger.Warn("clear unsent reset code failed", zap.String("user_id", user.ID.Hex()), zap.Error(clearErr))
		}
		return &UpstreamError{Service: UpstreamEmail, Err: err}
	}
	return nil
}

// VerifyChallenge checks the code without consuming it.
func (s *PasswordResetService) VerifyChallenge(ctx context.Context, in VerifyResetInput) error {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return err
	}
	_, err := s.checkChallenge(ctx, in.Email, in.Code)
	return err
}

// CompleteReset re-checks the code, replaces the password, clears the
// challenge and signs the user in.
func (s *PasswordResetService) CompleteReset(ctx context.Context, in CompleteResetInput) (*Session, error) {
	in.Email = models.NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.checkChallenge(ctx, in.Email, in.Code)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.NewPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	if err := s.users.ResetPassword(ctx, user.ID, hash); err != nil {
		return nil, storeErr("account", err)
	}
	user.PasswordHash = hash
	user.OTPHash = ""
	user.OTPExpiresAt = nil

	publish(ctx, s.events, s.logger, events.New(events.PasswordReset, user.ID.Hex(), nil))
	return issueSession(s.sessions, user)
}

// checkChallenge applies the shared expiry and match rules. An expired
// challenge is cleared before the error is returned.
func (s *PasswordResetService) checkChallenge(ctx context.Context, email, code string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, storeErr("account", err)
	}
	if !user.HasChallenge() {
		return nil, ErrNoChallenge
	}
	if s.now().After(*user.OTPExpiresAt) {
		if err := s.users.ClearOTP(ctx, user.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, storeErr("account", err)
		}
		return nil, ErrOTPExpired
	}
	if !utils.CheckPassword(user.OTPHash, code) {
		return nil, ErrOTPMismatch
	}
	return user, nil
}
