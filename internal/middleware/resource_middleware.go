package middleware

import (
	"context"
	"errors"
	"log/slog"

	"uptask/internal/apperr"
	"uptask/internal/model"
	"uptask/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	MsgProjectNotFound = "Proyecto No Encontrado"
	MsgTaskNotFound    = "Tarea No Encontrada"
	MsgInvalidAction   = "Acción no válida"
	MsgInvalidID       = "ID no válido"
)

type ProjectLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
}

type TaskLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
}

// ParamUUID parses a path parameter, answering 400 when it is not a UUID.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		apperr.RespondFields(c, apperr.FieldError{Field: name, Msg: MsgInvalidID})
		return uuid.Nil, false
	}
	return id, true
}

// ProjectExists loads the project named by :projectId into the scope.
func ProjectExists(projects ProjectLookup, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParamUUID(c, "projectId")
		if !ok {
			return
		}
		project, err := projects.GetByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrProjectNotFound) {
			apperr.Respond(c, logger, apperr.NotFound(MsgProjectNotFound))
			return
		}
		if err != nil {
			apperr.Respond(c, logger, apperr.Internal(err, "load project"))
			return
		}
		SetProject(c, project)
		c.Next()
	}
}

// TaskExists loads the task named by :id into the scope.
func TaskExists(tasks TaskLookup, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := ParamUUID(c, "id")
		if !ok {
			return
		}
		task, err := tasks.GetByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrTaskNotFound) {
			apperr.Respond(c, logger, apperr.NotFound(MsgTaskNotFound))
			return
		}
		if err != nil {
			apperr.Respond(c, logger, apperr.Internal(err, "load task"))
			return
		}
		SetTask(c, task)
		c.Next()
	}
}

// TaskBelongsToProject rejects a task resolved under another project's path.
func TaskBelongsToProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		project, task := CurrentProject(c), CurrentTask(c)
		if project == nil || task == nil || task.ProjectID != project.ID {
			apperr.Respond(c, nil, apperr.InvalidAction(MsgInvalidAction))
			return
		}
		c.Next()
	}
}

// RequireManager lets only the project's manager through. Others get 400.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		project := CurrentProject(c)
		if !ok || project == nil || !project.IsManager(user.ID) {
			apperr.Respond(c, nil, apperr.InvalidAction(MsgInvalidAction))
			return
		}
		c.Next()
	}
}

// RequireProjectAccess lets the manager and team members through. Others
// get 404 so the project's existence is not confirmed.
func RequireProjectAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		project := CurrentProject(c)
		if !ok || project == nil || !project.CanAccess(user.ID) {
			apperr.Respond(c, nil, apperr.NotFound(MsgInvalidAction))
			return
		}
		c.Next()
	}
}
