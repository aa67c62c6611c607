package repository

import (
	"context"
	"errors"

	"uptask/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NoteRepositoryInterface interface {
	Create(ctx context.Context, note *model.Note) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Note, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Note, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type NoteRepository struct {
	db *gorm.DB
}

var _ NoteRepositoryInterface = (*NoteRepository)(nil)

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	return r.db.WithContext(ctx).Omit("Author").Create(note).Error
}

func (r *NoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Note, error) {
	var note model.Note
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// ListByTask returns the task's notes oldest first, with their authors.
func (r *NoteRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("task_id = ?", taskID).
		Order("created_at").
		Find(&notes).Error
	return notes, err
}

func (r *NoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Note{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}
	return nil
}
