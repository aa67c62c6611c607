package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"uptask/internal/account"
	"uptask/internal/apperr"
	"uptask/internal/middleware"
	"uptask/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	MsgMemberNotFound = "Usuario No Encontrado"
	MsgAlreadyMember  = "El usuario ya existe en el proyecto"
	MsgNotMember      = "El usuario no existe en el proyecto"
	MsgMemberAdded    = "Usuario agregado correctamente"
	MsgMemberRemoved  = "Usuario eliminado correctamente"
	msgInvalidMember  = "Id no válido"
)

type TeamHandler struct {
	projects repository.ProjectRepositoryInterface
	users    repository.UserRepositoryInterface
	logger   *slog.Logger
}

func NewTeamHandler(projects repository.ProjectRepositoryInterface, users repository.UserRepositoryInterface, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{projects: projects, users: users, logger: logger}
}

type FindMemberRequest struct {
	Email string `json:"email" binding:"required,email" msg:"E-mail no válido"`
}

type AddMemberRequest struct {
	ID string `json:"id" binding:"required,uuid" msg:"Id no válido"`
}

// Find looks a user up by email so the manager can add them.
func (h *TeamHandler) Find(c *gin.Context) {
	var req FindMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), account.NormalizeEmail(req.Email))
	if err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrUserNotFound, MsgMemberNotFound, "find member"))
		return
	}
	c.JSON(http.StatusOK, userResponse(*user))
}

func (h *TeamHandler) List(c *gin.Context) {
	project := middleware.CurrentProject(c)

	members, err := h.projects.ListMembers(c.Request.Context(), project.ID)
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "list members"))
		return
	}

	response := make([]UserResponse, 0, len(members))
	for _, m := range members {
		response = append(response, userResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// Add puts an existing user on the project's team. The manager cannot be
// added to their own team.
func (h *TeamHandler) Add(c *gin.Context) {
	project := middleware.CurrentProject(c)

	var req AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, err := uuid.Parse(req.ID)
	if err != nil {
		apperr.RespondFields(c, apperr.FieldError{Field: "id", Msg: msgInvalidMember})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrUserNotFound, MsgMemberNotFound, "load member"))
		return
	}
	if project.IsManager(user.ID) || project.HasMember(user.ID) {
		apperr.Respond(c, h.logger, apperr.Conflict(MsgAlreadyMember))
		return
	}

	err = h.projects.AddMember(c.Request.Context(), project.ID, user.ID)
	if errors.Is(err, repository.ErrAlreadyMember) {
		apperr.Respond(c, h.logger, apperr.Conflict(MsgAlreadyMember))
		return
	}
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "add member"))
		return
	}
	c.String(http.StatusOK, MsgMemberAdded)
}

func (h *TeamHandler) Remove(c *gin.Context) {
	project := middleware.CurrentProject(c)

	userID, ok := middleware.ParamUUID(c, "userId")
	if !ok {
		return
	}

	err := h.projects.RemoveMember(c.Request.Context(), project.ID, userID)
	if errors.Is(err, repository.ErrNotMember) {
		apperr.Respond(c, h.logger, apperr.Conflict(MsgNotMember))
		return
	}
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "remove member"))
		return
	}
	c.String(http.StatusOK, MsgMemberRemoved)
}
