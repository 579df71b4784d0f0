package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-storefront/events"
	"go-storefront/models"
	"go-storefront/store/storetest"
	"go-storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestIssuer() *utils.SessionIssuer {
	return utils.NewSessionIssuer("test-secret", time.Hour)
}

func newTestAuthService(users *storetest.Users, verifier IdentityVerifier) (*AuthService, *events.Recorder) {
	rec := &events.Recorder{}
	return NewAuthService(users, newTestIssuer(), verifier, rec, zap.NewNop(), bcrypt.MinCost), rec
}

func TestAuthService_RegisterIssuesSession(t *testing.T) {
	users := storetest.NewUsers()
	svc, rec := newTestAuthService(users, nil)

	session, err := svc.Register(context.Background(), RegisterInput{Name: " Alice ", Email: "Alice@Example.COM", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.Equal(t, "Alice", session.User.Name)
	assert.Equal(t, models.RoleUser, session.User.Role)
	require.NotEmpty(t, session.Token)

	decoded, err := newTestIssuer().Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User, decoded)
	assert.Equal(t, []string{events.UserRegistered}, rec.Types())
}

func TestAuthService_RegisterDuplicateEmailConflicts(t *testing.T) {
	users := storetest.NewUsers()
	svc, _ := newTestAuthService(users, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "A@EXAMPLE.com", Password: "secret2"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(storetest.NewUsers(), nil)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing name", in: RegisterInput{Email: "a@example.com", Password: "secret1"}},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "nope", Password: "secret1"}},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@example.com", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, ErrValidation)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.NotEmpty(t, ve.Fields)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	users := storetest.NewUsers()
	svc, _ := newTestAuthService(users, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)

	session, err := svc.Login(ctx, LoginInput{Email: "A@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", session.User.Email)

	_, err = svc.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_LoginFederatedOnlyAccount(t *testing.T) {
	users := storetest.NewUsers()
	require.NoError(t, users.Create(context.Background(), &models.User{Name: "G", Email: "g@example.com", GoogleID: "sub-1"}))
	svc, _ := newTestAuthService(users, nil)

	_, err := svc.Login(context.Background(), LoginInput{Email: "g@example.com", Password: "whatever"})
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestAuthService_FederatedLoginCreatesAccount(t *testing.T) {
	users := storetest.NewUsers()
	svc, rec := newTestAuthService(users, stubVerifier{identity: utils.FederatedIdentity{Subject: "sub-1", Email: "New@Example.com", Name: "Newt"}})

	session, err := svc.FederatedLogin(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", session.User.Email)
	assert.Equal(t, "Newt", session.User.Name)

	stored, err := users.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", stored.GoogleID)
	assert.False(t, stored.HasPassword())
	assert.Equal(t, []string{events.UserRegistered}, rec.Types())

	again, err := svc.FederatedLogin(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
}

func TestAuthService_FederatedLoginRefusesPasswordAccount(t *testing.T) {
	users := storetest.NewUsers()
	hash, err := utils.HashPassword("secret1", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{Name: "P", Email: "p@example.com", PasswordHash: hash}))
	svc, _ := newTestAuthService(users, stubVerifier{identity: utils.FederatedIdentity{Subject: "sub-9", Email: "p@example.com"}})

	_, err = svc.FederatedLogin(context.Background(), "id-token")
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestAuthService_FederatedLoginSubjectMismatch(t *testing.T) {
	users := storetest.NewUsers()
	require.NoError(t, users.Create(context.Background(), &models.User{Name: "G", Email: "g@example.com", GoogleID: "sub-1"}))
	svc, _ := newTestAuthService(users, stubVerifier{identity: utils.FederatedIdentity{Subject: "sub-2", Email: "g@example.com"}})

	_, err := svc.FederatedLogin(context.Background(), "id-token")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_FederatedLoginVerifierFailure(t *testing.T) {
	svc, _ := newTestAuthService(storetest.NewUsers(), stubVerifier{err: errors.New("bad token")})

	_, err := svc.FederatedLogin(context.Background(), "id-token")
	require.ErrorIs(t, err, ErrUpstream)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UpstreamIdentity, ue.Service)
}

func TestAuthService_FederatedLoginWithoutClientID(t *testing.T) {
	svc, _ := newTestAuthService(storetest.NewUsers(), utils.NewGoogleVerifier(""))

	_, err := svc.FederatedLogin(context.Background(), "id-token")
	require.ErrorIs(t, err, ErrUpstream)
	require.ErrorIs(t, err, utils.ErrGoogleNotConfigured)
	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, UpstreamIdentity, ue.Service)
}

func TestAuthService_UpdateProfileReissuesSession(t *testing.T) {
	users := storetest.NewUsers()
	svc, _ := newTestAuthService(users, nil)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1"})
	require.NoError(t, err)
	id, err := first.User.ObjectID()
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, id, ProfileInput{Name: "Alice", Phone: "555", City: "Oslo", Country: "NO"})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.User.Name)
	assert.Equal(t, "Oslo", updated.User.City)

	decoded, err := newTestIssuer().Verify(updated.Token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", decoded.Name)
	assert.Equal(t, "555", decoded.Phone)
}
