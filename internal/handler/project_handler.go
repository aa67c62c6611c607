package handler

import (
	"log/slog"
	"net/http"

	"uptask/internal/apperr"
	"uptask/internal/middleware"
	"uptask/internal/model"
	"uptask/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	MsgProjectCreated = "Proyecto Creado Correctamente"
	MsgProjectUpdated = "Proyecto Actualizado"
	MsgProjectDeleted = "Proyecto Eliminado"
)

type ProjectHandler struct {
	projects repository.ProjectRepositoryInterface
	tasks    repository.TaskRepositoryInterface
	logger   *slog.Logger
}

func NewProjectHandler(projects repository.ProjectRepositoryInterface, tasks repository.TaskRepositoryInterface, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, tasks: tasks, logger: logger}
}

type ProjectRequest struct {
	ProjectName string `json:"projectName" binding:"required" msg:"El nombre del Proyecto es Obligatorio."`
	ClientName  string `json:"clientName" binding:"required" msg:"El nombre del Cliente es Obligatorio."`
	Description string `json:"description" binding:"required" msg:"La Descripción es Obligatoria."`
}

// Create stores a new project managed by the caller.
func (h *ProjectHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project := &model.Project{
		ID:          uuid.New(),
		ProjectName: req.ProjectName,
		ClientName:  req.ClientName,
		Description: req.Description,
		ManagerID:   user.ID,
	}
	if err := h.projects.Create(c.Request.Context(), project); err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "create project"))
		return
	}
	c.String(http.StatusOK, MsgProjectCreated)
}

// List returns the projects the caller manages or is a member of.
func (h *ProjectHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	projects, err := h.projects.ListAccessible(c.Request.Context(), user.ID)
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "list projects"))
		return
	}

	response := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		response = append(response, projectResponse(&projects[i], nil))
	}
	c.JSON(http.StatusOK, response)
}

// Get returns the project with its tasks.
func (h *ProjectHandler) Get(c *gin.Context) {
	project := middleware.CurrentProject(c)

	tasks, err := h.tasks.ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "list project tasks"))
		return
	}
	c.JSON(http.StatusOK, projectResponse(project, tasks))
}

func (h *ProjectHandler) Update(c *gin.Context) {
	project := middleware.CurrentProject(c)

	var req ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project.ProjectName = req.ProjectName
	project.ClientName = req.ClientName
	project.Description = req.Description
	if err := h.projects.Update(c.Request.Context(), project); err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrProjectNotFound, middleware.MsgProjectNotFound, "update project"))
		return
	}
	c.String(http.StatusOK, MsgProjectUpdated)
}

// Delete removes the project along with its tasks, notes and team.
func (h *ProjectHandler) Delete(c *gin.Context) {
	project := middleware.CurrentProject(c)

	if err := h.projects.Delete(c.Request.Context(), project.ID); err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrProjectNotFound, middleware.MsgProjectNotFound, "delete project"))
		return
	}
	c.String(http.StatusOK, MsgProjectDeleted)
}
