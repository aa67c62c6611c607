package auth_test

import (
	"testing"
	"time"

	"uptask/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := auth.NewSessionIssuer("test-secret-key", 24*time.Hour)
	userID := uuid.New()

	token, err := issuer.Issue(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	parsed, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestVerify_InvalidToken(t *testing.T) {
	issuer := auth.NewSessionIssuer("test-secret-key", time.Hour)

	_, err := issuer.Verify("invalid-token")
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := auth.NewSessionIssuer("other-secret", time.Hour).Issue(uuid.New())
	require.NoError(t, err)

	_, err = auth.NewSessionIssuer("test-secret-key", time.Hour).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestVerify_ExpiredToken(t *testing.T) {
	claims := jwt.MapClaims{
		"id":  uuid.NewString(),
		"exp": time.Now().Add(-1 * time.Hour).Unix(),
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))

	_, err := auth.NewSessionIssuer("test-secret-key", time.Hour).Verify(expired)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestVerify_MissingExpiry(t *testing.T) {
	claims := jwt.MapClaims{"id": uuid.NewString()}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))

	_, err := auth.NewSessionIssuer("test-secret-key", time.Hour).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestVerify_MissingClaims(t *testing.T) {
	claims := jwt.MapClaims{"exp": time.Now().Add(24 * time.Hour).Unix()}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))

	_, err := auth.NewSessionIssuer("test-secret-key", time.Hour).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.MapClaims{"id": uuid.NewString(), "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	_, err = auth.NewSessionIssuer("test-secret-key", time.Hour).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}
