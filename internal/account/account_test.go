package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"uptask/internal/account"
	"uptask/internal/apperr"
	"uptask/internal/auth"
	"uptask/internal/model"
	"uptask/internal/testutil"
	"uptask/internal/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc      *account.Service
	store    *testutil.Store
	notifier *testutil.RecordingNotifier
	sessions *auth.SessionIssuer
	now      time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    testutil.NewStore(),
		notifier: &testutil.RecordingNotifier{},
		sessions: auth.NewSessionIssuer("test-secret", time.Hour),
		now:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.store.SetClock(clock)

	tokenSvc := tokens.NewService(f.store.Tokens(), 10*time.Minute, 6, tokens.WithClock(clock))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = account.NewService(f.store.Users(), tokenSvc, auth.NewBcryptHasher(bcrypt.MinCost), f.sessions,
		f.notifier, logger, account.WithDelivery(func(send func()) { send() }))
	return f
}

func (f *fixture) register(t *testing.T, email string) *model.User {
	t.Helper()
	require.NoError(t, f.svc.Register(context.Background(), "Ana", email, "password123"))
	user, err := f.store.Users().FindByEmail(context.Background(), account.NormalizeEmail(email))
	require.NoError(t, err)
	return user
}

func (f *fixture) confirmed(t *testing.T, email string) *model.User {
	t.Helper()
	user := f.register(t, email)
	require.NoError(t, f.svc.Confirm(context.Background(), f.notifier.Last().Token))
	return user
}

func assertCode(t *testing.T, err error, code, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperr.Code(err))
	assert.Equal(t, msg, err.Error())
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "Ana@Example.com ")

	assert.Equal(t, "ana@example.com", user.Email)
	assert.False(t, user.Confirmed)
	assert.NotEqual(t, "password123", user.Password)
	require.Len(t, f.store.TokensFor(user.ID), 1)

	sent := f.notifier.Last()
	assert.Equal(t, "confirmation", sent.Kind)
	assert.Equal(t, "ana@example.com", sent.Email)
	assert.Equal(t, f.store.TokensFor(user.ID)[0].Token, sent.Token)
}

func TestRegister_DuplicateEmailCreatesNothing(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ana@example.com")

	err := f.svc.Register(context.Background(), "Otra", "ANA@example.com", "password456")

	assertCode(t, err, apperr.CodeConflict, account.MsgAlreadyRegistered)
	assert.Equal(t, 1, f.store.UserCount())
	assert.Len(t, f.store.TokensFor(user.ID), 1)
	assert.Len(t, f.notifier.Sent(), 1)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ana@example.com")
	code := f.notifier.Last().Token

	require.NoError(t, f.svc.Confirm(context.Background(), code))

	stored, err := f.store.Users().GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.Confirmed)
	assert.Empty(t, f.store.TokensFor(user.ID))

	err = f.svc.Confirm(context.Background(), code)
	assertCode(t, err, apperr.CodeNotFound, account.MsgInvalidToken)
}

func TestConfirm_UnknownOrExpiredToken(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ana@example.com")

	assertCode(t, f.svc.Confirm(context.Background(), "999999x"), apperr.CodeNotFound, account.MsgInvalidToken)

	f.advance(10 * time.Minute)
	assertCode(t, f.svc.Confirm(context.Background(), f.notifier.Last().Token), apperr.CodeNotFound, account.MsgInvalidToken)

	stored, err := f.store.Users().GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, stored.Confirmed)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	user := f.confirmed(t, "ana@example.com")

	session, err := f.svc.Login(context.Background(), "ana@example.com", "password123")
	require.NoError(t, err)

	id, err := f.sessions.Verify(session)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	f.confirmed(t, "ana@example.com")

	_, err := f.svc.Login(context.Background(), "nadie@example.com", "password123")
	assertCode(t, err, apperr.CodeNotFound, account.MsgUserNotFound)

	_, err = f.svc.Login(context.Background(), "ana@example.com", "wrong-password")
	assertCode(t, err, apperr.CodeUnauthorized, account.MsgWrongPassword)
}

func TestLogin_UnconfirmedIssuesTokenEveryAttempt(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ana@example.com")

	for attempt := 2; attempt <= 4; attempt++ {
		// the password is not checked for unconfirmed accounts
		_, err := f.svc.Login(context.Background(), "ana@example.com", "wrong-password")
		assertCode(t, err, apperr.CodeUnauthorized, account.MsgNotConfirmed)
		assert.Len(t, f.store.TokensFor(user.ID), attempt)
		assert.Len(t, f.notifier.Sent(), attempt)
	}
}

func TestRequestCode(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ana@example.com")

	require.NoError(t, f.svc.RequestCode(context.Background(), "ana@example.com"))
	assert.Len(t, f.store.TokensFor(user.ID), 2)
	assert.Equal(t, "confirmation", f.notifier.Last().Kind)

	assertCode(t, f.svc.RequestCode(context.Background(), "nadie@example.com"), apperr.CodeNotFound, account.MsgNotRegistered)

	require.NoError(t, f.svc.Confirm(context.Background(), f.notifier.Last().Token))
	assertCode(t, f.svc.RequestCode(context.Background(), "ana@example.com"), apperr.CodeConflict, account.MsgAlreadyConfirmed)
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ana@example.com")
	ctx := context.Background()

	assertCode(t, f.svc.ForgotPassword(ctx, "nadie@example.com"), apperr.CodeNotFound, account.MsgNotRegistered)

	// unconfirmed accounts may reset too
	require.NoError(t, f.svc.ForgotPassword(ctx, "ana@example.com"))
	sent := f.notifier.Last()
	assert.Equal(t, "reset", sent.Kind)

	require.NoError(t, f.svc.ValidateToken(ctx, sent.Token))
	assertCode(t, f.svc.ValidateToken(ctx, "000000x"), apperr.CodeNotFound, account.MsgInvalidToken)

	require.NoError(t, f.svc.ResetPassword(ctx, sent.Token, "new-password"))
	assertCode(t, f.svc.ResetPassword(ctx, sent.Token, "another-one"), apperr.CodeNotFound, account.MsgInvalidToken)

	stored, err := f.store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := auth.NewBcryptHasher(0).Verify("new-password", stored.Password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ana := f.confirmed(t, "ana@example.com")
	f.confirmed(t, "beto@example.com")
	ctx := context.Background()

	_, err := f.svc.UpdateProfile(ctx, ana.Identity(), "Ana", "BETO@example.com")
	assertCode(t, err, apperr.CodeConflict, account.MsgEmailTaken)

	// keeping your own email is not a conflict
	updated, err := f.svc.UpdateProfile(ctx, ana.Identity(), "Ana María", "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Name)

	updated, err = f.svc.UpdateProfile(ctx, ana.Identity(), "Ana María", "ana.maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana.maria@example.com", updated.Email)
}

func TestCurrentPassword(t *testing.T) {
	f := newFixture(t)
	ana := f.confirmed(t, "ana@example.com")
	ctx := context.Background()

	assertCode(t, f.svc.CheckPassword(ctx, ana.Identity(), "nope"), apperr.CodeUnauthorized, account.MsgWrongCheck)
	require.NoError(t, f.svc.CheckPassword(ctx, ana.Identity(), "password123"))

	err := f.svc.UpdateCurrentPassword(ctx, ana.Identity(), "nope", "new-password")
	assertCode(t, err, apperr.CodeUnauthorized, account.MsgWrongCurrent)

	require.NoError(t, f.svc.UpdateCurrentPassword(ctx, ana.Identity(), "password123", "new-password"))
	_, err = f.svc.Login(ctx, "ana@example.com", "new-password")
	assert.NoError(t, err)
}

func TestNotificationFailureIsNotSurfaced(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = assert.AnError

	require.NoError(t, f.svc.Register(context.Background(), "Ana", "ana@example.com", "password123"))
	assert.Len(t, f.notifier.Sent(), 1)
}

// Register, fail a login while unconfirmed, confirm with the first code and
// log in.
func TestAccountLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Register(ctx, "Ana", "ana@example.com", "password123"))
	first := f.notifier.Last().Token
	user, err := f.store.Users().FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ana@example.com", "password123")
	assertCode(t, err, apperr.CodeUnauthorized, account.MsgNotConfirmed)
	require.Len(t, f.store.TokensFor(user.ID), 2)

	require.NoError(t, f.svc.Confirm(ctx, first))
	for _, tok := range f.store.TokensFor(user.ID) {
		assert.NotEqual(t, first, tok.Token)
	}

	session, err := f.svc.Login(ctx, "ana@example.com", "password123")
	require.NoError(t, err)
	id, err := f.sessions.Verify(session)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}
