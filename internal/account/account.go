// Package account implements registration, confirmation, login and the
// password flows over User.confirmed.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"uptask/internal/apperr"
	"uptask/internal/auth"
	"uptask/internal/logging"
	"uptask/internal/metrics"
	"uptask/internal/model"
	"uptask/internal/notify"
	"uptask/internal/repository"

	"github.com/google/uuid"
)

// User-facing messages.
const (
	MsgAlreadyRegistered = "El Usuario ya esta registrado"
	MsgInvalidToken      = "Token no válido"
	MsgUserNotFound      = "Usuario no encontrado"
	MsgNotConfirmed      = "La cuenta no ha sido confirmada, hemos enviado un email de confirmación"
	MsgWrongPassword     = "Password incorrecto"
	MsgNotRegistered     = "El Usuario no esta registrado"
	MsgAlreadyConfirmed  = "El Usuario ya esta confirmado"
	MsgEmailTaken        = "Este email ya esta registrado"
	MsgWrongCurrent      = "El password actual es incorrecto"
	MsgWrongCheck        = "El password actual incorrecto"
)

// notifyTimeout bounds a single detached notification.
const notifyTimeout = 30 * time.Second

// TokenService is the part of tokens.Service the flows use.
type TokenService interface {
	Issue(ctx context.Context, userID uuid.UUID, purpose model.TokenPurpose) (*model.Token, error)
	IssueWith(ctx context.Context, userID uuid.UUID, purpose model.TokenPurpose,
		persist func(context.Context, *model.Token) error) (*model.Token, error)
	Resolve(ctx context.Context, value string, accepted ...model.TokenPurpose) (*model.Token, error)
	Consume(ctx context.Context, token *model.Token) error
}

// SessionIssuer signs session tokens.
type SessionIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type Service struct {
	users    repository.UserRepositoryInterface
	tokens   TokenService
	hasher   auth.PasswordHasher
	sessions SessionIssuer
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	deliver  func(func())
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDelivery replaces how notifications are dispatched. The default runs
// each one on its own goroutine.
func WithDelivery(deliver func(func())) Option {
	return func(s *Service) { s.deliver = deliver }
}

func NewService(users repository.UserRepositoryInterface, tokens TokenService, hasher auth.PasswordHasher,
	sessions SessionIssuer, notifier notify.Notifier, logger *slog.Logger, opts ...Option,
) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
		deliver:  func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail is applied to every email used as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unconfirmed account and sends its first confirmation
// code. The user and the token are stored in one transaction.
func (s *Service) Register(ctx context.Context, name, email, password string) error {
	email = NormalizeEmail(email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return apperr.Conflict(MsgAlreadyRegistered)
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return apperr.Internal(err, "find user by email")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Internal(err, "hash password")
	}

	user := &model.User{ID: uuid.New(), Name: name, Email: email, Password: hash}
	token, err := s.tokens.IssueWith(ctx, user.ID, model.PurposeConfirmation, func(ctx context.Context, t *model.Token) error {
		return s.users.CreateWithToken(ctx, user, t)
	})
	if errors.Is(err, repository.ErrEmailTaken) {
		return apperr.Conflict(MsgAlreadyRegistered)
	}
	if err != nil {
		return apperr.Internal(err, "create user")
	}

	s.notify(notify.KindConfirmation, user, token)
	return nil
}

// Confirm marks the token's owner as confirmed and consumes the token.
func (s *Service) Confirm(ctx context.Context, value string) error {
	token, user, err := s.resolveOwner(ctx, value, model.PurposeConfirmation)
	if err != nil {
		return err
	}

	user.Confirmed = true
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err, "confirm user")
	}
	s.consume(ctx, token)
	return nil
}

// Login returns a session token. An unconfirmed account gets a fresh
// confirmation code on every attempt and the login fails before the
// password is checked.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return "", apperr.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return "", apperr.Internal(err, "find user by email")
	}

	if !user.Confirmed {
		token, err := s.tokens.Issue(ctx, user.ID, model.PurposeConfirmation)
		if err != nil {
			return "", apperr.Internal(err, "issue confirmation token")
		}
		s.notify(notify.KindConfirmation, user, token)
		return "", apperr.Unauthorized(MsgNotConfirmed)
	}

	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		return "", apperr.Internal(err, "verify password")
	}
	if !ok {
		return "", apperr.Unauthorized(MsgWrongPassword)
	}

	session, err := s.sessions.Issue(user.ID)
	if err != nil {
		return "", apperr.Internal(err, "issue session")
	}
	return session, nil
}

// RequestCode sends a new confirmation code to an unconfirmed account.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	user, err := s.registeredUser(ctx, email)
	if err != nil {
		return err
	}
	if user.Confirmed {
		return apperr.Conflict(MsgAlreadyConfirmed)
	}

	token, err := s.tokens.Issue(ctx, user.ID, model.PurposeConfirmation)
	if err != nil {
		return apperr.Internal(err, "issue confirmation token")
	}
	s.notify(notify.KindConfirmation, user, token)
	return nil
}

// ForgotPassword sends a reset code regardless of confirmation state.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.registeredUser(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.Issue(ctx, user.ID, model.PurposeReset)
	if err != nil {
		return apperr.Internal(err, "issue reset token")
	}
	s.notify(notify.KindReset, user, token)
	return nil
}

// ValidateToken checks a reset code without consuming it.
func (s *Service) ValidateToken(ctx context.Context, value string) error {
	_, err := s.tokens.Resolve(ctx, value, model.PurposeReset)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return apperr.NotFound(MsgInvalidToken)
	}
	if err != nil {
		return apperr.Internal(err, "resolve token")
	}
	return nil
}

// ResetPassword replaces the password of the token's owner and consumes the token.
func (s *Service) ResetPassword(ctx context.Context, value, password string) error {
	token, user, err := s.resolveOwner(ctx, value, model.PurposeReset)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Internal(err, "hash password")
	}
	user.Password = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err, "update password")
	}
	s.consume(ctx, token)
	return nil
}

// UpdateProfile changes the caller's name and email.
func (s *Service) UpdateProfile(ctx context.Context, id model.Identity, name, email string) (*model.User, error) {
	email = NormalizeEmail(email)

	other, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && other.ID != id.ID:
		return nil, apperr.Conflict(MsgEmailTaken)
	case err != nil && !errors.Is(err, repository.ErrUserNotFound):
		return nil, apperr.Internal(err, "find user by email")
	}

	user, err := s.currentUser(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Email = email
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperr.Conflict(MsgEmailTaken)
		}
		return nil, apperr.Internal(err, "update profile")
	}
	return user, nil
}

// UpdateCurrentPassword changes the caller's password after checking the old one.
func (s *Service) UpdateCurrentPassword(ctx context.Context, id model.Identity, current, password string) error {
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return err
	}
	if err := s.verify(user, current, MsgWrongCurrent); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Internal(err, "hash password")
	}
	user.Password = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Internal(err, "update password")
	}
	return nil
}

// CheckPassword reports whether password is the caller's current password.
func (s *Service) CheckPassword(ctx context.Context, id model.Identity, password string) error {
	user, err := s.currentUser(ctx, id)
	if err != nil {
		return err
	}
	return s.verify(user, password, MsgWrongCheck)
}

func (s *Service) verify(user *model.User, password, mismatch string) error {
	ok, err := s.hasher.Verify(password, user.Password)
	if err != nil {
		return apperr.Internal(err, "verify password")
	}
	if !ok {
		return apperr.Unauthorized(mismatch)
	}
	return nil
}

func (s *Service) registeredUser(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.NotFound(MsgNotRegistered)
	}
	if err != nil {
		return nil, apperr.Internal(err, "find user by email")
	}
	return user, nil
}

func (s *Service) currentUser(ctx context.Context, id model.Identity) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperr.NotFound(MsgUserNotFound)
	}
	if err != nil {
		return nil, apperr.Internal(err, "load user")
	}
	return user, nil
}

// resolveOwner resolves a live token and loads the user it is bound to. A
// token whose owner is gone is reported as invalid.
func (s *Service) resolveOwner(ctx context.Context, value string, purpose model.TokenPurpose) (*model.Token, *model.User, error) {
	token, err := s.tokens.Resolve(ctx, value, purpose)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, nil, apperr.NotFound(MsgInvalidToken)
	}
	if err != nil {
		return nil, nil, apperr.Internal(err, "resolve token")
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, apperr.NotFound(MsgInvalidToken)
	}
	if err != nil {
		return nil, nil, apperr.Internal(err, "load token owner")
	}
	return token, user, nil
}

// consume deletes a used token. The user change is already saved, so a
// failure here only leaves the token to expire.
func (s *Service) consume(ctx context.Context, token *model.Token) {
	if err := s.tokens.Consume(ctx, token); err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
		logging.LogError(s.logger, "consume token failed", err, "token_id", token.ID)
	}
}

// notify hands a notification to the delivery function. The send runs on a
// context detached from the request; failures are logged and counted.
func (s *Service) notify(kind string, user *model.User, token *model.Token) {
	msg := notify.Message{Email: user.Email, Name: user.Name, Token: token.Token}
	s.deliver(func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		var err error
		switch kind {
		case notify.KindReset:
			err = s.notifier.SendPasswordReset(ctx, msg)
		default:
			err = s.notifier.SendConfirmation(ctx, msg)
		}
		if err != nil {
			s.metrics.NotificationFailed(kind)
			logging.LogError(s.logger, "notification failed", err, "kind", kind, "user_id", user.ID)
		}
	})
}
