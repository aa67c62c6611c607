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
	MsgNoteCreated  = "Nota Creada Correctamente"
	MsgNoteDeleted  = "Nota Eliminada"
	MsgNoteNotFound = "Nota no encontrada"
)

type NoteHandler struct {
	notes  repository.NoteRepositoryInterface
	logger *slog.Logger
}

func NewNoteHandler(notes repository.NoteRepositoryInterface, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, logger: logger}
}

type NoteRequest struct {
	Content string `json:"content" binding:"required" msg:"El contenido de la nota es obligatorio"`
}

func (h *NoteHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	task := middleware.CurrentTask(c)

	var req NoteRequest
	if !bindJSON(c, &req) {
		return
	}

	note := &model.Note{
		ID:        uuid.New(),
		Content:   req.Content,
		CreatedBy: user.ID,
		TaskID:    task.ID,
	}
	if err := h.notes.Create(c.Request.Context(), note); err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "create note"))
		return
	}
	c.String(http.StatusOK, MsgNoteCreated)
}

func (h *NoteHandler) List(c *gin.Context) {
	task := middleware.CurrentTask(c)

	notes, err := h.notes.ListByTask(c.Request.Context(), task.ID)
	if err != nil {
		apperr.Respond(c, h.logger, apperr.Internal(err, "list notes"))
		return
	}

	response := make([]NoteResponse, 0, len(notes))
	for i := range notes {
		response = append(response, noteResponse(&notes[i]))
	}
	c.JSON(http.StatusOK, response)
}

// Delete removes a note. Only its author may do so.
func (h *NoteHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	task := middleware.CurrentTask(c)

	noteID, ok := middleware.ParamUUID(c, "noteId")
	if !ok {
		return
	}

	note, err := h.notes.GetByID(c.Request.Context(), noteID)
	if err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrNoteNotFound, MsgNoteNotFound, "load note"))
		return
	}
	if note.TaskID != task.ID {
		apperr.Respond(c, h.logger, apperr.NotFound(MsgNoteNotFound))
		return
	}
	if note.CreatedBy != user.ID {
		apperr.Respond(c, h.logger, apperr.Unauthorized(middleware.MsgInvalidAction))
		return
	}

	if err := h.notes.Delete(c.Request.Context(), note.ID); err != nil {
		apperr.Respond(c, h.logger, notFoundOr(err, repository.ErrNoteNotFound, MsgNoteNotFound, "delete note"))
		return
	}
	c.String(http.StatusOK, MsgNoteDeleted)
}
