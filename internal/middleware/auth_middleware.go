package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"uptask/internal/apperr"
	"uptask/internal/model"
	"uptask/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	MsgNoAuth       = "No Autorizado"
	MsgInvalidToken = "Token No Válido"
	MsgUserGone     = "Usuario no encontrado"
)

// SessionVerifier checks a session token and returns its user id.
type SessionVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// UserLookup loads users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Authenticate requires an "Authorization: Bearer <token>" header and puts
// the caller's identity in the request scope.
func Authenticate(sessions SessionVerifier, users UserLookup, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgNoAuth})
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgInvalidToken})
			return
		}

		userID, err := sessions.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgInvalidToken})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if errors.Is(err, repository.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgUserGone})
			return
		}
		if err != nil {
			apperr.Respond(c, logger, apperr.Internal(err, "load session user"))
			return
		}

		SetUser(c, user.Identity())
		c.Next()
	}
}
