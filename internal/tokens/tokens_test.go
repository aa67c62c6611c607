package tokens_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"uptask/internal/model"
	"uptask/internal/repository"
	"uptask/internal/testutil"
	"uptask/internal/tokens"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newService(t *testing.T, opts ...tokens.Option) (*tokens.Service, *testutil.Store, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := testutil.NewStore()
	store.SetClock(clk.Now)
	opts = append([]tokens.Option{tokens.WithClock(clk.Now)}, opts...)
	return tokens.NewService(store.Tokens(), 10*time.Minute, 6, opts...), store, clk
}

func TestIssueAndResolve(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := svc.Issue(ctx, userID, model.PurposeConfirmation)
	require.NoError(t, err)
	assert.Len(t, token.Token, 6)
	assert.Equal(t, userID, token.UserID)

	resolved, err := svc.Resolve(ctx, token.Token)
	require.NoError(t, err)
	assert.Equal(t, token.ID, resolved.ID)
}

func TestResolve_ExpiredIsNotFound(t *testing.T) {
	svc, _, clk := newService(t)
	ctx := context.Background()

	token, err := svc.Issue(ctx, uuid.New(), model.PurposeReset)
	require.NoError(t, err)

	clk.Advance(9*time.Minute + 59*time.Second)
	_, err = svc.Resolve(ctx, token.Token)
	require.NoError(t, err)

	clk.Advance(time.Second)
	_, err = svc.Resolve(ctx, token.Token)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestResolve_UnknownValue(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Resolve(context.Background(), "000000")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestResolve_Purpose(t *testing.T) {
	ctx := context.Background()

	lenient, _, _ := newService(t)
	reset, err := lenient.Issue(ctx, uuid.New(), model.PurposeReset)
	require.NoError(t, err)
	_, err = lenient.Resolve(ctx, reset.Token, model.PurposeConfirmation)
	assert.NoError(t, err, "purpose is ignored unless strict")

	strict, _, _ := newService(t, tokens.WithStrictPurpose(true))
	reset, err = strict.Issue(ctx, uuid.New(), model.PurposeReset)
	require.NoError(t, err)
	_, err = strict.Resolve(ctx, reset.Token, model.PurposeConfirmation)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	_, err = strict.Resolve(ctx, reset.Token, model.PurposeReset)
	assert.NoError(t, err)
}

func TestConsume(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	token, err := svc.Issue(ctx, uuid.New(), model.PurposeConfirmation)
	require.NoError(t, err)
	require.NoError(t, svc.Consume(ctx, token))

	_, err = svc.Resolve(ctx, token.Token)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	assert.ErrorIs(t, svc.Consume(ctx, token), repository.ErrTokenNotFound)
}

func TestSweep(t *testing.T) {
	svc, store, clk := newService(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.Issue(ctx, userID, model.PurposeConfirmation)
	require.NoError(t, err)
	clk.Advance(6 * time.Minute)
	fresh, err := svc.Issue(ctx, userID, model.PurposeConfirmation)
	require.NoError(t, err)

	clk.Advance(5 * time.Minute)
	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining := store.TokensFor(userID)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID, remaining[0].ID)
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	svc, _, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *model.Token) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockTokenRepository) FindActive(ctx context.Context, value string, issuedAfter time.Time) (*model.Token, error) {
	args := m.Called(ctx, value, issuedAfter)
	token := args.Get(0)
	if token == nil {
		return nil, args.Error(1)
	}
	return token.(*model.Token), args.Error(1)
}

func (m *MockTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTokenRepository) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestIssue_RetriesOnCollision(t *testing.T) {
	repo := new(MockTokenRepository)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Token")).Return(repository.ErrTokenCollision).Twice()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Token")).Return(nil).Once()

	svc := tokens.NewService(repo, 10*time.Minute, 6)
	token, err := svc.Issue(context.Background(), uuid.New(), model.PurposeConfirmation)

	require.NoError(t, err)
	assert.NotNil(t, token)
	repo.AssertNumberOfCalls(t, "Create", 3)
}

func TestIssue_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := new(MockTokenRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrTokenCollision)

	svc := tokens.NewService(repo, 10*time.Minute, 6)
	_, err := svc.Issue(context.Background(), uuid.New(), model.PurposeReset)

	assert.ErrorIs(t, err, repository.ErrTokenCollision)
	repo.AssertNumberOfCalls(t, "Create", 6)
}

func TestIssue_DoesNotRetryOtherErrors(t *testing.T) {
	repo := new(MockTokenRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := tokens.NewService(repo, 10*time.Minute, 6)
	_, err := svc.Issue(context.Background(), uuid.New(), model.PurposeReset)

	assert.ErrorIs(t, err, assert.AnError)
	repo.AssertNumberOfCalls(t, "Create", 1)
}
