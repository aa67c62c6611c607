package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose records which flow issued a one-time code.
type TokenPurpose string

const (
	PurposeConfirmation TokenPurpose = "confirmation"
	PurposeReset        TokenPurpose = "reset"
)

// Token is a short-lived, single-use code bound to one user.
type Token struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Token     string       `gorm:"uniqueIndex;not null"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index"`
	Purpose   TokenPurpose `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;index"`
}
