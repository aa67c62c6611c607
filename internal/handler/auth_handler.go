package handler

import (
	"context"
	"log/slog"
	"net/http"

	"uptask/internal/apperr"
	"uptask/internal/middleware"
	"uptask/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	MsgAccountCreated   = "Cuenta creada, revisa tu email para confirmarla"
	MsgAccountConfirmed = "Cuenta confirmada correctamente"
	MsgCodeSent         = "Se envio un nuevo token a tu email"
	MsgCheckEmail       = "Revisa tu email para instrucciones"
	MsgTokenValid       = "Token valido, Define tu nuevo password"
	MsgPasswordChanged  = "El password se modificó correctamente"
	MsgProfileUpdated   = "Perfil actualizado correctamente"
	MsgPasswordCorrect  = "Password correcto"
	msgInvalidToken     = "Token no válido"
)

// AccountService is implemented by account.Service.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) error
	Confirm(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (string, error)
	RequestCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ValidateToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, password string) error
	UpdateProfile(ctx context.Context, id model.Identity, name, email string) (*model.User, error)
	UpdateCurrentPassword(ctx context.Context, id model.Identity, current, password string) error
	CheckPassword(ctx context.Context, id model.Identity, password string) error
}

type AuthHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAuthHandler(accounts AccountService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

type RegisterRequest struct {
	Name                 string `json:"name" binding:"required" msg:"El nombre no puede ir vacio"`
	Email                string `json:"email" binding:"required,email" msg:"E-mail no valido"`
	Password             string `json:"password" binding:"required,min=8,maxbytes=72" msg:"El password es muy corto, minimo 8 caracteres" msg_maxbytes:"El password es muy largo, maximo 72 caracteres"`
	PasswordConfirmation string `json:"password_confirmation" binding:"eqfield=Password" msg:"Las contraseñas no son iguales"`
}

type TokenRequest struct {
	Token string `json:"token" binding:"required" msg:"El token no puede ir vacio"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" msg:"E-mail no valido"`
	Password string `json:"password" binding:"required" msg:"La password no puede estár vacia"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email" msg:"E-mail no valido"`
}

type NewPasswordRequest struct {
	Password             string `json:"password" binding:"required,min=8,maxbytes=72" msg:"El password es muy corto, minimo 8 caracteres" msg_maxbytes:"El password es muy largo, maximo 72 caracteres"`
	PasswordConfirmation string `json:"password_confirmation" binding:"eqfield=Password" msg:"Las contraseñas no son iguales"`
}

type ProfileRequest struct {
	Name  string `json:"name" binding:"required" msg:"El nombre no puede ir vacio"`
	Email string `json:"email" binding:"required,email" msg:"E-mail no valido"`
}

type UpdatePasswordRequest struct {
	CurrentPassword      string `json:"current_password" binding:"required" msg:"El password actual no puede ir vacio"`
	Password             string `json:"password" binding:"required,min=8,maxbytes=72" msg:"El password es muy corto, minimo 8 caracteres" msg_maxbytes:"El password es muy largo, maximo 72 caracteres"`
	PasswordConfirmation string `json:"password_confirmation" binding:"eqfield=Password" msg:"Las contraseñas no son iguales"`
}

type CheckPasswordRequest struct {
	Password string `json:"password" binding:"required" msg:"El password no puede ir vacio"`
}

// UserResponse is the public projection of a user.
type UserResponse struct {
	ID    uuid.UUID `json:"_id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func userResponse(u model.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (h *AuthHandler) respond(c *gin.Context, err error, ok string) {
	if err != nil {
		apperr.Respond(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, ok)
}

func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	h.respond(c, err, MsgAccountCreated)
}

func (h *AuthHandler) ConfirmAccount(c *gin.Context) {
	var req TokenRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, h.accounts.Confirm(c.Request.Context(), req.Token), MsgAccountConfirmed)
}

// Login answers with the bare session token as plain text.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	h.respond(c, err, session)
}

func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, h.accounts.RequestCode(c.Request.Context(), req.Email), MsgCodeSent)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, h.accounts.ForgotPassword(c.Request.Context(), req.Email), MsgCheckEmail)
}

func (h *AuthHandler) ValidateToken(c *gin.Context) {
	var req TokenRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, h.accounts.ValidateToken(c.Request.Context(), req.Token), MsgTokenValid)
}

func (h *AuthHandler) UpdatePasswordWithToken(c *gin.Context) {
	token := c.Param("token")
	if !validateVar(token, "numeric") {
		apperr.RespondFields(c, apperr.FieldError{Field: "token", Msg: msgInvalidToken})
		return
	}
	var req NewPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, h.accounts.ResetPassword(c.Request.Context(), token, req.Password), MsgPasswordChanged)
}

func (h *AuthHandler) User(c *gin.Context) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		apperr.Respond(c, h.logger, apperr.Unauthorized(middleware.MsgNoAuth))
		return
	}
	c.JSON(http.StatusOK, UserResponse{ID: id.ID, Name: id.Name, Email: id.Email})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		apperr.Respond(c, h.logger, apperr.Unauthorized(middleware.MsgNoAuth))
		return
	}
	var req ProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	_, err := h.accounts.UpdateProfile(c.Request.Context(), id, req.Name, req.Email)
	h.respond(c, err, MsgProfileUpdated)
}

func (h *AuthHandler) UpdateCurrentPassword(c *gin.Context) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		apperr.Respond(c, h.logger, apperr.Unauthorized(middleware.MsgNoAuth))
		return
	}
	var req UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.accounts.UpdateCurrentPassword(c.Request.Context(), id, req.CurrentPassword, req.Password)
	h.respond(c, err, MsgPasswordChanged)
}

func (h *AuthHandler) CheckPassword(c *gin.Context) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		apperr.Respond(c, h.logger, apperr.Unauthorized(middleware.MsgNoAuth))
		return
	}
	var req CheckPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respond(c, h.accounts.CheckPassword(c.Request.Context(), id, req.Password), MsgPasswordCorrect)
}
