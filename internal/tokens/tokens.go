// Package tokens manages the one-time codes used to confirm accounts and
// reset passwords.
//
// A token is live for TTL after issuance. Lookups only see live tokens, so an
// expired token is invisible even before the sweeper deletes it.
package tokens

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"uptask/internal/auth"
	"uptask/internal/logging"
	"uptask/internal/metrics"
	"uptask/internal/model"
	"uptask/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// maxCollisionRetries bounds regeneration when a code is already live.
const maxCollisionRetries = 5

// Service issues, resolves and consumes tokens.
type Service struct {
	repo    repository.TokenRepositoryInterface
	ttl     time.Duration
	digits  int
	strict  bool
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithStrictPurpose makes Resolve reject tokens issued for another flow.
func WithStrictPurpose(strict bool) Option {
	return func(s *Service) { s.strict = strict }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(repo repository.TokenRepositoryInterface, ttl time.Duration, digits int, opts ...Option) *Service {
	s := &Service{repo: repo, ttl: ttl, digits: digits, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates and stores a fresh token for the user.
func (s *Service) Issue(ctx context.Context, userID uuid.UUID, purpose model.TokenPurpose) (*model.Token, error) {
	return s.IssueWith(ctx, userID, purpose, s.repo.Create)
}

// IssueWith generates a token and hands it to persist, regenerating the code
// while persist reports repository.ErrTokenCollision. It lets callers store the
// token together with other records.
func (s *Service) IssueWith(ctx context.Context, userID uuid.UUID, purpose model.TokenPurpose,
	persist func(context.Context, *model.Token) error,
) (*model.Token, error) {
	var token *model.Token
	backoff := retry.WithMaxRetries(maxCollisionRetries, retry.NewConstant(time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		code, err := auth.GenerateCode(s.digits)
		if err != nil {
			return err
		}
		candidate := &model.Token{
			ID:        uuid.New(),
			Token:     code,
			UserID:    userID,
			Purpose:   purpose,
			CreatedAt: s.now(),
		}
		if err := persist(ctx, candidate); err != nil {
			if errors.Is(err, repository.ErrTokenCollision) {
				return retry.RetryableError(err)
			}
			return err
		}
		token = candidate
		return nil
	})
	if err != nil {
		return nil, oops.Code("TOKEN_ISSUE_FAILED").With("purpose", purpose).Wrap(err)
	}

	s.metrics.TokenIssued(string(purpose))
	return token, nil
}

// Resolve returns the live token with the given value. Unknown and expired
// values both yield repository.ErrTokenNotFound. In strict mode the token must
// also carry one of the accepted purposes.
func (s *Service) Resolve(ctx context.Context, value string, accepted ...model.TokenPurpose) (*model.Token, error) {
	token, err := s.repo.FindActive(ctx, value, s.now().Add(-s.ttl))
	if err != nil {
		return nil, err
	}
	if s.strict && len(accepted) > 0 && !slices.Contains(accepted, token.Purpose) {
		return nil, repository.ErrTokenNotFound
	}
	return token, nil
}

// Consume deletes a resolved token.
func (s *Service) Consume(ctx context.Context, token *model.Token) error {
	return s.repo.Delete(ctx, token.ID)
}

// Sweep deletes every expired token and returns how many were removed.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteIssuedBefore(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, oops.Code("TOKEN_SWEEP_FAILED").Wrap(err)
	}
	s.metrics.TokensRemoved(n)
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done. Failures are
// logged and the next tick tries again.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.LogError(logger, "token sweep failed", err)
				continue
			}
			if n > 0 {
				logger.Info("expired tokens removed", "count", n)
			}
		}
	}
}
