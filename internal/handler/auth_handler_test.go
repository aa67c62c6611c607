package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"uptask/internal/apperr"
	"uptask/internal/handler"
	"uptask/internal/middleware"
	"uptask/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, name, email, password string) error {
	return m.Called(ctx, name, email, password).Error(0)
}

func (m *MockAccountService) Confirm(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAccountService) RequestCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAccountService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAccountService) ValidateToken(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAccountService) ResetPassword(ctx context.Context, token, password string) error {
	return m.Called(ctx, token, password).Error(0)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, id model.Identity, name, email string) (*model.User, error) {
	args := m.Called(ctx, id, name, email)
	user := args.Get(0)
	if user == nil {
		return nil, args.Error(1)
	}
	return user.(*model.User), args.Error(1)
}

func (m *MockAccountService) UpdateCurrentPassword(ctx context.Context, id model.Identity, current, password string) error {
	return m.Called(ctx, id, current, password).Error(0)
}

func (m *MockAccountService) CheckPassword(ctx context.Context, id model.Identity, password string) error {
	return m.Called(ctx, id, password).Error(0)
}

var ana = model.Identity{ID: uuid.MustParse("6f1c1d5e-2b7a-4c53-9a55-0d3f1f1b2c3d"), Name: "Ana", Email: "ana@example.com"}

func setupAuth() (*gin.Engine, *MockAccountService) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	accounts := new(MockAccountService)
	h := handler.NewAuthHandler(accounts, discard)

	r.POST("/auth/create-account", h.CreateAccount)
	r.POST("/auth/confirm-account", h.ConfirmAccount)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/request-code", h.RequestCode)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/validate-token", h.ValidateToken)
	r.POST("/auth/update-password/:token", h.UpdatePasswordWithToken)

	signedIn := r.Group("/auth", func(c *gin.Context) {
		middleware.SetUser(c, ana)
		c.Next()
	})
	signedIn.GET("/user", h.User)
	signedIn.PUT("/profile", h.UpdateProfile)
	signedIn.POST("/update-password", h.UpdateCurrentPassword)
	signedIn.POST("/check-password", h.CheckPassword)
	return r, accounts
}

func postJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func fieldErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body struct {
		Errors []apperr.FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	out := make(map[string]string, len(body.Errors))
	for _, fe := range body.Errors {
		out[fe.Field] = fe.Msg
	}
	return out
}

func TestCreateAccount_Success(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("Register", mock.Anything, "Ana", "ana@example.com", "password123").Return(nil)

	w := postJSON(router, http.MethodPost, "/auth/create-account", handler.RegisterRequest{
		Name:                 "Ana",
		Email:                "ana@example.com",
		Password:             "password123",
		PasswordConfirmation: "password123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.MsgAccountCreated, w.Body.String())
	accounts.AssertExpectations(t)
}

func TestCreateAccount_AlreadyRegistered(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("Register", mock.Anything, "Ana", "ana@example.com", "password123").
		Return(apperr.Conflict("El Usuario ya esta registrado"))

	w := postJSON(router, http.MethodPost, "/auth/create-account", handler.RegisterRequest{
		Name: "Ana", Email: "ana@example.com", Password: "password123", PasswordConfirmation: "password123",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "El Usuario ya esta registrado", errorBody(t, w))
}

func TestCreateAccount_ValidationErrors(t *testing.T) {
	router, accounts := setupAuth()

	w := postJSON(router, http.MethodPost, "/auth/create-account", map[string]string{
		"email":                 "not-an-email",
		"password":              "short",
		"password_confirmation": "different",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	fields := fieldErrors(t, w)
	assert.Equal(t, "El nombre no puede ir vacio", fields["name"])
	assert.Equal(t, "E-mail no valido", fields["email"])
	assert.Equal(t, "El password es muy corto, minimo 8 caracteres", fields["password"])
	assert.Equal(t, "Las contraseñas no son iguales", fields["password_confirmation"])
	accounts.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAccount_PasswordTooLong(t *testing.T) {
	router, accounts := setupAuth()

	for _, password := range []string{strings.Repeat("a", 80), strings.Repeat("ñ", 40)} {
		w := postJSON(router, http.MethodPost, "/auth/create-account", handler.RegisterRequest{
			Name: "Ana", Email: "ana@example.com", Password: password, PasswordConfirmation: password,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "El password es muy largo, maximo 72 caracteres", fieldErrors(t, w)["password"])
	}
	accounts.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPasswordAtByteLimitIsAccepted(t *testing.T) {
	router, accounts := setupAuth()
	password := strings.Repeat("a", 72)
	accounts.On("ResetPassword", mock.Anything, "123456", password).Return(nil)

	w := postJSON(router, http.MethodPost, "/auth/update-password/123456", handler.NewPasswordRequest{
		Password: password, PasswordConfirmation: password,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	accounts.AssertExpectations(t)
}

func TestUpdateCurrentPassword_TooLong(t *testing.T) {
	router, accounts := setupAuth()
	password := strings.Repeat("x", 73)

	w := postJSON(router, http.MethodPost, "/auth/update-password", handler.UpdatePasswordRequest{
		CurrentPassword: "oldpassword", Password: password, PasswordConfirmation: password,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "El password es muy largo, maximo 72 caracteres", fieldErrors(t, w)["password"])
	accounts.AssertNotCalled(t, "UpdateCurrentPassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAccount_EmptyBody(t *testing.T) {
	router, _ := setupAuth()

	w := postJSON(router, http.MethodPost, "/auth/create-account", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, w), "name")
}

func TestCreateAccount_MalformedJSON(t *testing.T) {
	router, _ := setupAuth()
	req := httptest.NewRequest(http.MethodPost, "/auth/create-account", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Datos no válidos", fieldErrors(t, w)["body"])
}

func TestConfirmAccount(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("Confirm", mock.Anything, "123456").Return(nil)
	accounts.On("Confirm", mock.Anything, "000000").Return(apperr.NotFound("Token no válido"))

	w := postJSON(router, http.MethodPost, "/auth/confirm-account", handler.TokenRequest{Token: "123456"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.MsgAccountConfirmed, w.Body.String())

	w = postJSON(router, http.MethodPost, "/auth/confirm-account", handler.TokenRequest{Token: "000000"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Token no válido", errorBody(t, w))
}

func TestLogin_ReturnsPlainToken(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("Login", mock.Anything, "ana@example.com", "password123").Return("jwt.token.value", nil)

	w := postJSON(router, http.MethodPost, "/auth/login", handler.LoginRequest{Email: "ana@example.com", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jwt.token.value", w.Body.String())
}

func TestLogin_WrongPassword(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("Login", mock.Anything, "ana@example.com", "nope").Return("", apperr.Unauthorized("Password incorrecto"))

	w := postJSON(router, http.MethodPost, "/auth/login", handler.LoginRequest{Email: "ana@example.com", Password: "nope"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Password incorrecto", errorBody(t, w))
}

func TestLogin_InternalErrorIsGeneric(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("Login", mock.Anything, "ana@example.com", "password123").Return("", assert.AnError)

	w := postJSON(router, http.MethodPost, "/auth/login", handler.LoginRequest{Email: "ana@example.com", Password: "password123"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperr.InternalMessage, errorBody(t, w))
}

func TestRequestCodeAndForgotPassword(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("RequestCode", mock.Anything, "ana@example.com").Return(nil)
	accounts.On("ForgotPassword", mock.Anything, "ana@example.com").Return(nil)

	w := postJSON(router, http.MethodPost, "/auth/request-code", handler.EmailRequest{Email: "ana@example.com"})
	assert.Equal(t, handler.MsgCodeSent, w.Body.String())

	w = postJSON(router, http.MethodPost, "/auth/forgot-password", handler.EmailRequest{Email: "ana@example.com"})
	assert.Equal(t, handler.MsgCheckEmail, w.Body.String())
	accounts.AssertExpectations(t)
}

func TestValidateToken(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("ValidateToken", mock.Anything, "123456").Return(nil)

	w := postJSON(router, http.MethodPost, "/auth/validate-token", handler.TokenRequest{Token: "123456"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.MsgTokenValid, w.Body.String())
}

func TestUpdatePasswordWithToken(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("ResetPassword", mock.Anything, "123456", "newpassword").Return(nil)

	w := postJSON(router, http.MethodPost, "/auth/update-password/123456", handler.NewPasswordRequest{
		Password: "newpassword", PasswordConfirmation: "newpassword",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.MsgPasswordChanged, w.Body.String())
}

func TestUpdatePasswordWithToken_NonNumericToken(t *testing.T) {
	router, accounts := setupAuth()

	w := postJSON(router, http.MethodPost, "/auth/update-password/abc", handler.NewPasswordRequest{
		Password: "newpassword", PasswordConfirmation: "newpassword",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Token no válido", fieldErrors(t, w)["token"])
	accounts.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestUser_ReturnsProjection(t *testing.T) {
	router, _ := setupAuth()

	w := postJSON(router, http.MethodGet, "/auth/user", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ana.ID.String(), body["_id"])
	assert.Equal(t, "Ana", body["name"])
	assert.Equal(t, "ana@example.com", body["email"])
	assert.NotContains(t, body, "password")
}

func TestUpdateProfile(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("UpdateProfile", mock.Anything, ana, "Ana María", "ana@example.com").
		Return(&model.User{ID: ana.ID, Name: "Ana María", Email: "ana@example.com"}, nil)
	accounts.On("UpdateProfile", mock.Anything, ana, "Ana", "taken@example.com").
		Return(nil, apperr.Conflict("Este email ya esta registrado"))

	w := postJSON(router, http.MethodPut, "/auth/profile", handler.ProfileRequest{Name: "Ana María", Email: "ana@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.MsgProfileUpdated, w.Body.String())

	w = postJSON(router, http.MethodPut, "/auth/profile", handler.ProfileRequest{Name: "Ana", Email: "taken@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Este email ya esta registrado", errorBody(t, w))
}

func TestUpdateCurrentPassword(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("UpdateCurrentPassword", mock.Anything, ana, "oldpassword", "newpassword").Return(nil)

	w := postJSON(router, http.MethodPost, "/auth/update-password", handler.UpdatePasswordRequest{
		CurrentPassword: "oldpassword", Password: "newpassword", PasswordConfirmation: "newpassword",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handler.MsgPasswordChanged, w.Body.String())
}

func TestCheckPassword(t *testing.T) {
	router, accounts := setupAuth()
	accounts.On("CheckPassword", mock.Anything, ana, "password123").Return(nil)
	accounts.On("CheckPassword", mock.Anything, ana, "wrong").Return(apperr.Unauthorized("El password actual incorrecto"))

	w := postJSON(router, http.MethodPost, "/auth/check-password", handler.CheckPasswordRequest{Password: "password123"})
	assert.Equal(t, handler.MsgPasswordCorrect, w.Body.String())

	w = postJSON(router, http.MethodPost, "/auth/check-password", handler.CheckPasswordRequest{Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "El password actual incorrecto", errorBody(t, w))
}
