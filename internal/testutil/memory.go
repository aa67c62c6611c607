// Package testutil provides in-memory repositories that honour the same
// contracts as the gorm implementations.
package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"uptask/internal/model"
	"uptask/internal/repository"

	"github.com/google/uuid"
)

// Store holds every table. Rows are kept in insertion order.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    []model.User
	tokens   []model.Token
	projects []model.Project
	members  []model.ProjectMember
	tasks    []model.Task
	changes  []model.TaskStatusChange
	notes    []model.Note
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetClock replaces the clock used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Users() *UserRepo       { return &UserRepo{s} }
func (s *Store) Tokens() *TokenRepo     { return &TokenRepo{s} }
func (s *Store) Projects() *ProjectRepo { return &ProjectRepo{s} }
func (s *Store) Tasks() *TaskRepo       { return &TaskRepo{s} }
func (s *Store) Notes() *NoteRepo       { return &NoteRepo{s} }

// TokensFor returns a copy of the user's stored tokens, including expired ones.
func (s *Store) TokensFor(userID uuid.UUID) []model.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Token
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// UserCount returns the number of stored users.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *Store) stamp(t *time.Time) {
	if t.IsZero() {
		*t = s.now()
	}
}

func (s *Store) userIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.users, func(u model.User) bool { return u.ID == id })
}

func (s *Store) insertUser(user *model.User) error {
	if slices.ContainsFunc(s.users, func(u model.User) bool { return u.Email == user.Email }) {
		return repository.ErrEmailTaken
	}
	s.stamp(&user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	s.users = append(s.users, *user)
	return nil
}

func (s *Store) insertToken(token *model.Token) error {
	if slices.ContainsFunc(s.tokens, func(t model.Token) bool { return t.Token == token.Token }) {
		return repository.ErrTokenCollision
	}
	s.stamp(&token.CreatedAt)
	s.tokens = append(s.tokens, *token)
	return nil
}

type UserRepo struct{ s *Store }

var _ repository.UserRepositoryInterface = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertUser(user)
}

func (r *UserRepo) CreateWithToken(_ context.Context, user *model.User, token *model.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.insertUser(user); err != nil {
		return err
	}
	if err := r.s.insertToken(token); err != nil {
		r.s.users = r.s.users[:len(r.s.users)-1]
		return err
	}
	return nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if i := r.s.userIndex(id); i >= 0 {
		u := r.s.users[i]
		return &u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepo) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.userIndex(user.ID)
	if i < 0 {
		return repository.ErrUserNotFound
	}
	for _, u := range r.s.users {
		if u.Email == user.Email && u.ID != user.ID {
			return repository.ErrEmailTaken
		}
	}
	user.UpdatedAt = r.s.now()
	r.s.users[i] = *user
	return nil
}

// Delete removes a user and their tokens.
func (r *UserRepo) Delete(id uuid.UUID) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users = slices.DeleteFunc(r.s.users, func(u model.User) bool { return u.ID == id })
	r.s.tokens = slices.DeleteFunc(r.s.tokens, func(t model.Token) bool { return t.UserID == id })
}

type TokenRepo struct{ s *Store }

var _ repository.TokenRepositoryInterface = (*TokenRepo)(nil)

func (r *TokenRepo) Create(_ context.Context, token *model.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.insertToken(token)
}

func (r *TokenRepo) FindActive(_ context.Context, value string, issuedAfter time.Time) (*model.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tokens {
		if t.Token == value && t.CreatedAt.After(issuedAfter) {
			return &t, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (r *TokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := len(r.s.tokens)
	r.s.tokens = slices.DeleteFunc(r.s.tokens, func(t model.Token) bool { return t.ID == id })
	if len(r.s.tokens) == n {
		return repository.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepo) DeleteIssuedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := len(r.s.tokens)
	r.s.tokens = slices.DeleteFunc(r.s.tokens, func(t model.Token) bool { return !t.CreatedAt.After(cutoff) })
	return int64(n - len(r.s.tokens)), nil
}

type ProjectRepo struct{ s *Store }

var _ repository.ProjectRepositoryInterface = (*ProjectRepo)(nil)

func (r *ProjectRepo) index(id uuid.UUID) int {
	return slices.IndexFunc(r.s.projects, func(p model.Project) bool { return p.ID == id })
}

func (r *ProjectRepo) withMembers(p model.Project) model.Project {
	p.Members = nil
	for _, m := range r.s.members {
		if m.ProjectID == p.ID {
			p.Members = append(p.Members, m)
		}
	}
	return p
}

func (r *ProjectRepo) Create(_ context.Context, project *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&project.CreatedAt)
	project.UpdatedAt = project.CreatedAt
	stored := *project
	stored.Members = nil
	r.s.projects = append(r.s.projects, stored)
	return nil
}

func (r *ProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return nil, repository.ErrProjectNotFound
	}
	p := r.withMembers(r.s.projects[i])
	return &p, nil
}

func (r *ProjectRepo) ListAccessible(_ context.Context, userID uuid.UUID) ([]model.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Project{}
	for _, p := range r.s.projects {
		p = r.withMembers(p)
		if p.CanAccess(userID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProjectRepo) Update(_ context.Context, project *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.index(project.ID)
	if i < 0 {
		return repository.ErrProjectNotFound
	}
	stored := &r.s.projects[i]
	stored.ProjectName = project.ProjectName
	stored.ClientName = project.ClientName
	stored.Description = project.Description
	stored.UpdatedAt = r.s.now()
	project.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *ProjectRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return repository.ErrProjectNotFound
	}
	r.s.projects = slices.Delete(r.s.projects, i, i+1)
	r.s.members = slices.DeleteFunc(r.s.members, func(m model.ProjectMember) bool { return m.ProjectID == id })

	var taskIDs []uuid.UUID
	for _, t := range r.s.tasks {
		if t.ProjectID == id {
			taskIDs = append(taskIDs, t.ID)
		}
	}
	for _, taskID := range taskIDs {
		r.s.deleteTask(taskID)
	}
	return nil
}

func (r *ProjectRepo) AddMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if slices.ContainsFunc(r.s.members, func(m model.ProjectMember) bool {
		return m.ProjectID == projectID && m.UserID == userID
	}) {
		return repository.ErrAlreadyMember
	}
	r.s.members = append(r.s.members, model.ProjectMember{ProjectID: projectID, UserID: userID, CreatedAt: r.s.now()})
	return nil
}

func (r *ProjectRepo) RemoveMember(_ context.Context, projectID, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := len(r.s.members)
	r.s.members = slices.DeleteFunc(r.s.members, func(m model.ProjectMember) bool {
		return m.ProjectID == projectID && m.UserID == userID
	})
	if len(r.s.members) == n {
		return repository.ErrNotMember
	}
	return nil
}

func (r *ProjectRepo) ListMembers(_ context.Context, projectID uuid.UUID) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.User{}
	for _, m := range r.s.members {
		if m.ProjectID != projectID {
			continue
		}
		if i := r.s.userIndex(m.UserID); i >= 0 {
			out = append(out, r.s.users[i])
		}
	}
	return out, nil
}

type TaskRepo struct{ s *Store }

var _ repository.TaskRepositoryInterface = (*TaskRepo)(nil)

func (s *Store) taskIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
}

func (s *Store) deleteTask(id uuid.UUID) {
	s.tasks = slices.DeleteFunc(s.tasks, func(t model.Task) bool { return t.ID == id })
	s.changes = slices.DeleteFunc(s.changes, func(c model.TaskStatusChange) bool { return c.TaskID == id })
	s.notes = slices.DeleteFunc(s.notes, func(n model.Note) bool { return n.TaskID == id })
}

func (s *Store) userOrZero(id uuid.UUID) model.User {
	if i := s.userIndex(id); i >= 0 {
		return s.users[i]
	}
	return model.User{}
}

func (r *TaskRepo) Create(_ context.Context, task *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&task.CreatedAt)
	task.UpdatedAt = task.CreatedAt
	stored := *task
	stored.CompletedBy, stored.Notes = nil, nil
	r.s.tasks = append(r.s.tasks, stored)
	return nil
}

func (r *TaskRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.taskIndex(id)
	if i < 0 {
		return nil, repository.ErrTaskNotFound
	}
	t := r.s.tasks[i]
	return &t, nil
}

func (r *TaskRepo) GetDetailed(_ context.Context, id uuid.UUID) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.taskIndex(id)
	if i < 0 {
		return nil, repository.ErrTaskNotFound
	}
	t := r.s.tasks[i]
	for _, c := range r.s.changes {
		if c.TaskID == id {
			c.User = r.s.userOrZero(c.UserID)
			t.CompletedBy = append(t.CompletedBy, c)
		}
	}
	for _, n := range r.s.notes {
		if n.TaskID == id {
			n.Author = r.s.userOrZero(n.CreatedBy)
			t.Notes = append(t.Notes, n)
		}
	}
	return &t, nil
}

func (r *TaskRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Task{}
	for _, t := range r.s.tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TaskRepo) Update(_ context.Context, task *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.taskIndex(task.ID)
	if i < 0 {
		return repository.ErrTaskNotFound
	}
	stored := &r.s.tasks[i]
	stored.Name = task.Name
	stored.Description = task.Description
	stored.UpdatedAt = r.s.now()
	task.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *TaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.taskIndex(id) < 0 {
		return repository.ErrTaskNotFound
	}
	r.s.deleteTask(id)
	return nil
}

func (r *TaskRepo) RecordStatus(_ context.Context, task *model.Task, change *model.TaskStatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	i := r.s.taskIndex(task.ID)
	if i < 0 {
		return repository.ErrTaskNotFound
	}
	r.s.stamp(&change.CreatedAt)
	r.s.tasks[i].Status = change.Status
	r.s.tasks[i].UpdatedAt = r.s.now()
	stored := *change
	stored.User = model.User{}
	r.s.changes = append(r.s.changes, stored)
	task.Status = change.Status
	return nil
}

type NoteRepo struct{ s *Store }

var _ repository.NoteRepositoryInterface = (*NoteRepo)(nil)

func (r *NoteRepo) Create(_ context.Context, note *model.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.stamp(&note.CreatedAt)
	note.UpdatedAt = note.CreatedAt
	stored := *note
	stored.Author = model.User{}
	r.s.notes = append(r.s.notes, stored)
	return nil
}

func (r *NoteRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notes {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, repository.ErrNoteNotFound
}

func (r *NoteRepo) ListByTask(_ context.Context, taskID uuid.UUID) ([]model.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Note{}
	for _, n := range r.s.notes {
		if n.TaskID == taskID {
			n.Author = r.s.userOrZero(n.CreatedBy)
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *NoteRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := len(r.s.notes)
	r.s.notes = slices.DeleteFunc(r.s.notes, func(note model.Note) bool { return note.ID == id })
	if len(r.s.notes) == n {
		return repository.ErrNoteNotFound
	}
	return nil
}
