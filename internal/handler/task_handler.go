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
	MsgTaskCreated       = "Tarea Creada Correctamente"
	MsgTaskUpdated       = "Tarea Actualizada Correctamente"
	MsgTaskDeleted       = "Tarea Eliminada Correctamente"
	MsgTaskStatusUpdated = "Tarea Actualizada"
	msgInvalidStatus     = "Estado no válido"
)

type TaskHandler struct {
	tasks  repository.TaskRepositoryInterface
	logger *slog.Logger
}

func NewTaskHandler(tasks repository.TaskRepositoryInterface, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// TaskRequest is the body for creating or updating a task
type TaskRequest struct {
	Name        string `json:"name" binding:"required" msg:"El Nombre de la tarea es Obligatorio"`
	Description string `json:"description" binding:"required" msg:"La Descripción de la tarea es Obligatoria"`
}

// StatusRequest moves a task to another workflow state
type StatusRequest struct {
	Status model.TaskStatus `json:"status" binding:"required" msg:"El estado es obligatorio"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	project := middleware.CurrentProject(c)

	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task := &model.Task{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Status:      model.StatusPending,
		ProjectID:   project.ID,
	}
	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "create task"))
		return
	}
	c.String(http.StatusOK, MsgTaskCreated)
}

func (h *TaskHandler) List(c *gin.Context) {
	project := middleware.CurrentProject(c)

	tasks, err := h.tasks.ListByProject(c.Request.Context(), project.ID)
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "list tasks"))
		return
	}

	response := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		response = append(response, taskResponse(&tasks[i]))
	}
	c.JSON(http.StatusOK, response)
}

// Get returns the task with its status history and notes.
func (h *TaskHandler) Get(c *gin.Context) {
	task := middleware.CurrentTask(c)

	detailed, err := h.tasks.GetDetailed(c.Request.Context(), task.ID)
	if err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrTaskNotFound, middleware.MsgTaskNotFound, "load task"))
		return
	}
	c.JSON(http.StatusOK, taskResponse(detailed))
}

func (h *TaskHandler) Update(c *gin.Context) {
	task := middleware.CurrentTask(c)

	var req TaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task.Name = req.Name
	task.Description = req.Description
	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrTaskNotFound, middleware.MsgTaskNotFound, "update task"))
		return
	}
	c.String(http.StatusOK, MsgTaskUpdated)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	task := middleware.CurrentTask(c)

	if err := h.tasks.Delete(c.Request.Context(), task.ID); err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrTaskNotFound, middleware.MsgTaskNotFound, "delete task"))
		return
	}
	c.String(http.StatusOK, MsgTaskDeleted)
}

// UpdateStatus sets the status and appends the change to the task's history.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	task := middleware.CurrentTask(c)

	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	if !req.Status.Valid() {
		apperr.RespondFields(c, apperr.FieldError{Field: "status", Msg: msgInvalidStatus})
		return
	}

	change := &model.TaskStatusChange{
		ID:     uuid.New(),
		TaskID: task.ID,
		UserID: user.ID,
		Status: req.Status,
	}
	if err := h.tasks.RecordStatus(c.Request.Context(), task, change); err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrTaskNotFound, middleware.MsgTaskNotFound, "update task status"))
		return
	}
	c.String(http.StatusOK, MsgTaskStatusUpdated)
}
