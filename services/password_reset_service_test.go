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

type resetFixture struct {
	svc      *PasswordResetService
	users    *storetest.Users
	notifier *recordingNotifier
	clock    time.Time
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	users := storetest.NewUsers()
	hash, err := utils.HashPassword("old-password", bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: hash}))

	f := &resetFixture{users: users, notifier: &recordingNotifier{}, clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	f.svc = NewPasswordResetService(users, newTestIssuer(), f.notifier, &events.Recorder{}, zap.NewNop(), bcrypt.MinCost, 10*time.Minute)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *resetFixture) stored(t *testing.T) *models.User {
	t.Helper()
	u, err := f.users.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	return u
}

func TestPasswordReset_RequestStoresHashedCode(t *testing.T) {
	f := newResetFixture(t)

	require.NoError(t, f.svc.RequestChallenge(context.Background(), RequestResetInput{Email: "ALICE@example.com"}))

	code := f.notifier.last()
	require.Len(t, code, 6)
	u := f.stored(t)
	require.True(t, u.HasChallenge())
	assert.NotEqual(t, code, u.OTPHash)
	assert.Equal(t, f.clock.Add(10*time.Minute), *u.OTPExpiresAt)
}

func TestPasswordReset_RequestUnknownAccount(t *testing.T) {
	f := newResetFixture(t)
	err := f.svc.RequestChallenge(context.Background(), RequestResetInput{Email: "ghost@example.com"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPasswordReset_RequestFederatedOnlyAccount(t *testing.T) {
	f := newResetFixture(t)
	require.NoError(t, f.users.Create(context.Background(), &models.User{Name: "G", Email: "g@example.com", GoogleID: "sub"}))

	err := f.svc.RequestChallenge(context.Background(), RequestResetInput{Email: "g@example.com"})
	require.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestPasswordReset_RequestEmailFailure(t *testing.T) {
	f := newResetFixture(t)
	f.notifier.err = errors.New("smtp down")

	err := f.svc.RequestChallenge(context.Background(), RequestResetInput{Email: "alice@example.com"})
	require.ErrorIs(t, err, ErrUpstream)
	assert.False(t, f.stored(t).HasChallenge(), "an unsent code is not left active")
}

func TestPasswordReset_VerifyDoesNotConsume(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RequestChallenge(ctx, RequestResetInput{Email: "alice@example.com"}))
	code := f.notifier.last()

	require.NoError(t, f.svc.VerifyChallenge(ctx, VerifyResetInput{Email: "alice@example.com", Code: code}))
	require.NoError(t, f.svc.VerifyChallenge(ctx, VerifyResetInput{Email: "alice@example.com", Code: code}))
	assert.True(t, f.stored(t).HasChallenge())
}

func TestPasswordReset_VerifyWithoutChallenge(t *testing.T) {
	f := newResetFixture(t)
	err := f.svc.VerifyChallenge(context.Background(), VerifyResetInput{Email: "alice@example.com", Code: "123456"})
	require.ErrorIs(t, err, ErrNoChallenge)
}

func TestPasswordReset_VerifyMismatch(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RequestChallenge(ctx, RequestResetInput{Email: "alice@example.com"}))

	wrong := "000000"
	if f.notifier.last() == wrong {
		wrong = "111111"
	}
	err := f.svc.VerifyChallenge(ctx, VerifyResetInput{Email: "alice@example.com", Code: wrong})
	require.ErrorIs(t, err, ErrOTPMismatch)
	assert.True(t, f.stored(t).HasChallenge())
}

func TestPasswordReset_ExpiredChallengeIsClearedThenReportsNoChallenge(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RequestChallenge(ctx, RequestResetInput{Email: "alice@example.com"}))
	code := f.notifier.last()

	f.clock = f.clock.Add(11 * time.Minute)

	err := f.svc.VerifyChallenge(ctx, VerifyResetInput{Email: "alice@example.com", Code: code})
	require.ErrorIs(t, err, ErrOTPExpired)
	assert.False(t, f.stored(t).HasChallenge())

	_, err = f.svc.CompleteReset(ctx, CompleteResetInput{Email: "alice@example.com", Code: code, NewPassword: "new-password"})
	require.ErrorIs(t, err, ErrNoChallenge)
	assert.False(t, errors.Is(err, ErrOTPMismatch))
}

func TestPasswordReset_CompleteResetChangesPasswordAndClears(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RequestChallenge(ctx, RequestResetInput{Email: "alice@example.com"}))
	code := f.notifier.last()

	session, err := f.svc.CompleteReset(ctx, CompleteResetInput{Email: "alice@example.com", Code: code, NewPassword: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", session.User.Email)
	require.NotEmpty(t, session.Token)

	u := f.stored(t)
	assert.False(t, u.HasChallenge())
	assert.True(t, utils.CheckPassword(u.PasswordHash, "new-password"))
	assert.False(t, utils.CheckPassword(u.PasswordHash, "old-password"))

	_, err = f.svc.CompleteReset(ctx, CompleteResetInput{Email: "alice@example.com", Code: code, NewPassword: "another-one"})
	require.ErrorIs(t, err, ErrNoChallenge)
}

func TestPasswordReset_CompleteResetValidatesBeforeMutating(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.RequestChallenge(ctx, RequestResetInput{Email: "alice@example.com"}))
	code := f.notifier.last()

	_, err := f.svc.CompleteReset(ctx, CompleteResetInput{Email: "alice@example.com", Code: code, NewPassword: "123"})
	require.ErrorIs(t, err, ErrValidation)
	assert.True(t, f.stored(t).HasChallenge())
}
