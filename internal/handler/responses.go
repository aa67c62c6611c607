package handler

import (
	"time"

	"uptask/internal/model"

	"github.com/google/uuid"
)

type ProjectResponse struct {
	ID          uuid.UUID      `json:"_id"`
	ProjectName string         `json:"projectName"`
	ClientName  string         `json:"clientName"`
	Description string         `json:"description"`
	Manager     uuid.UUID      `json:"manager"`
	Team        []uuid.UUID    `json:"team"`
	Tasks       []TaskResponse `json:"tasks,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func projectResponse(p *model.Project, tasks []model.Task) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID,
		ProjectName: p.ProjectName,
		ClientName:  p.ClientName,
		Description: p.Description,
		Manager:     p.ManagerID,
		Team:        p.TeamIDs(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if tasks != nil {
		resp.Tasks = make([]TaskResponse, 0, len(tasks))
		for i := range tasks {
			resp.Tasks = append(resp.Tasks, taskResponse(&tasks[i]))
		}
	}
	return resp
}

type StatusChangeResponse struct {
	ID     uuid.UUID        `json:"_id"`
	User   UserResponse     `json:"user"`
	Status model.TaskStatus `json:"status"`
}

type NoteResponse struct {
	ID        uuid.UUID    `json:"_id"`
	Content   string       `json:"content"`
	CreatedBy UserResponse `json:"createdBy"`
	Task      uuid.UUID    `json:"task"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func noteResponse(n *model.Note) NoteResponse {
	return NoteResponse{
		ID:        n.ID,
		Content:   n.Content,
		CreatedBy: userResponse(n.Author),
		Task:      n.TaskID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type TaskResponse struct {
	ID          uuid.UUID              `json:"_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Project     uuid.UUID              `json:"project"`
	Status      model.TaskStatus       `json:"status"`
	CompletedBy []StatusChangeResponse `json:"completedBy"`
	Notes       []NoteResponse         `json:"notes"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func taskResponse(t *model.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Project:     t.ProjectID,
		Status:      t.Status,
		CompletedBy: make([]StatusChangeResponse, 0, len(t.CompletedBy)),
		Notes:       make([]NoteResponse, 0, len(t.Notes)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, ch := range t.CompletedBy {
		resp.CompletedBy = append(resp.CompletedBy, StatusChangeResponse{ID: ch.ID, User: userResponse(ch.User), Status: ch.Status})
	}
	for i := range t.Notes {
		resp.Notes = append(resp.Notes, noteResponse(&t.Notes[i]))
	}
	return resp
}
