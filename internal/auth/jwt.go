package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidSession is returned for any session token that fails verification.
var ErrInvalidSession = errors.New("invalid token")

// SessionClaims carries the user id under the "id" claim.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// SessionIssuer signs and verifies HS256 session tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *SessionIssuer) Issue(userID uuid.UUID) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID.String(),
	})
	return token.SignedString(s.secret)
}

// Verify returns the user id of a valid, unexpired token.
func (s *SessionIssuer) Verify(tokenStr string) (uuid.UUID, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidSession
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}
	return id, nil
}
