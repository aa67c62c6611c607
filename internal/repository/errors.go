package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common repository errors
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrTokenNotFound   = errors.New("token not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
	ErrNoteNotFound    = errors.New("note not found")

	// ErrEmailTaken is returned when a write collides with another user's email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrTokenCollision is returned when a generated code is already live.
	ErrTokenCollision = errors.New("token value already in use")

	ErrAlreadyMember = errors.New("user already in project")
	ErrNotMember     = errors.New("user not in project")
)

// Unique index names from the init migration.
const (
	constraintUserEmail  = "idx_users_email"
	constraintTokenValue = "idx_tokens_token"
	constraintMember     = "project_members_pkey"
)

// uniqueViolation reports the violated constraint, if err is a unique violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case constraintUserEmail:
		return ErrEmailTaken
	case constraintTokenValue:
		return ErrTokenCollision
	case constraintMember:
		return ErrAlreadyMember
	}
	return err
}
