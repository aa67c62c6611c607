package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Password  string    `gorm:"not null"`
	Name      string    `gorm:"not null"`
	Confirmed bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Identity is the part of a user attached to an authenticated request.
// It never carries the password hash.
type Identity struct {
	ID    uuid.UUID
	Name  string
	Email string
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}
