package model

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content   string    `gorm:"not null"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	TaskID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Author User `gorm:"foreignKey:CreatedBy"`
}
