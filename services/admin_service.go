package services

import (
	"context"
	"fmt"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminService manages accounts on behalf of an admin. The caller is trusted
// to have checked the admin role from the session.
type AdminService struct {
	users    store.UserStore
	carts    *CartService
	sessions *utils.SessionIssuer
	logger   *zap.Logger
}

func NewAdminService(users store.UserStore, carts *CartService, sessions *utils.SessionIssuer, logger *zap.Logger) *AdminService {
	return &AdminService{users: users, carts: carts, sessions: sessions, logger: logger}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeErr("users", err)
	}
	return users, nil
}

// DeleteUser removes another account and its cart. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actor models.SessionUser, targetID primitive.ObjectID) error {
	if actor.ID == targetID.Hex() {
		return fmt.Errorf("cannot delete your own account: %w", ErrForbidden)
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return storeErr("user", err)
	}
	if s.carts != nil {
		if err := s.carts.DeleteUserCart(ctx, targetID); err != nil {
			s.logger.Warn("delete cart of removed user failed", zap.String("user_id", targetID.Hex()), zap.Error(err))
		}
	}
	return nil
}

// ChangeRole sets the target's role. When admins change their own role a new
// session is returned for them; other users keep their current tokens.
func (s *AdminService) ChangeRole(ctx context.Context, actor models.SessionUser, targetID primitive.ObjectID, role string) (*models.User, *Session, error) {
	if !models.ValidRole(role) {
		return nil, nil, invalid(fmt.Sprintf("role must be %q or %q", models.RoleUser, models.RoleAdmin))
	}
	user, err := s.users.SetRole(ctx, targetID, role)
	if err != nil {
		return nil, nil, storeErr("user", err)
	}
	if actor.ID != targetID.Hex() {
		return user, nil, nil
	}
	session, err := issueSession(s.sessions, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}
