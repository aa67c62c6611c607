package repository

import (
	"context"
	"errors"

	"uptask/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *model.Project) error
	// GetByID loads the project with its member list.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	// ListAccessible returns the projects the user manages or belongs to.
	ListAccessible(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, projectID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error
	ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.User, error)
}

type ProjectRepository struct {
	db *gorm.DB
}

var _ ProjectRepositoryInterface = (*ProjectRepository)(nil)

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Omit("Members").Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("created_at") }).
		Where("id = ?", id).
		First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) ListAccessible(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("manager_id = ?", userID).
		Or("id IN (?)", r.db.Model(&model.ProjectMember{}).Select("project_id").Where("user_id = ?", userID)).
		Order("created_at").
		Find(&projects).Error
	return projects, err
}

// Update saves the editable project fields; membership is changed through
// AddMember and RemoveMember only.
func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	result := r.db.WithContext(ctx).Model(project).Updates(map[string]any{
		"project_name": project.ProjectName,
		"client_name":  project.ClientName,
		"description":  project.Description,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete removes the project. Tasks, notes, status history and memberships
// go with it through foreign key cascades.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID uuid.UUID) error {
	member := model.ProjectMember{ProjectID: projectID, UserID: userID}
	return translate(r.db.WithContext(ctx).Omit("User").Create(&member).Error)
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotMember
	}
	return nil
}

// ListMembers returns the team in the order members were added.
func (r *ProjectRepository) ListMembers(ctx context.Context, projectID uuid.UUID) ([]model.User, error) {
	var members []model.ProjectMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(members))
	for _, m := range members {
		users = append(users, m.User)
	}
	return users, nil
}
