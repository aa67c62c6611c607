package repository

import (
	"context"
	"errors"
	"time"

	"uptask/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenRepositoryInterface interface {
	Create(ctx context.Context, token *model.Token) error
	// FindActive returns the token with the given value issued after the cutoff.
	FindActive(ctx context.Context, value string, issuedAfter time.Time) (*model.Token, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteIssuedBefore removes every token older than the cutoff.
	DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type TokenRepository struct {
	db *gorm.DB
}

var _ TokenRepositoryInterface = (*TokenRepository)(nil)

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token *model.Token) error {
	return translate(r.db.WithContext(ctx).Create(token).Error)
}

func (r *TokenRepository) FindActive(ctx context.Context, value string, issuedAfter time.Time) (*model.Token, error) {
	var token model.Token
	err := r.db.WithContext(ctx).
		Where("token = ? AND created_at > ?", value, issuedAfter).
		First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *TokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Token{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) DeleteIssuedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at <= ?", cutoff).Delete(&model.Token{})
	return result.RowsAffected, result.Error
}
