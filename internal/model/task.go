package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusPending     TaskStatus = "pending"
	StatusOnHold      TaskStatus = "onHold"
	StatusInProgress  TaskStatus = "inProgress"
	StatusUnderReview TaskStatus = "underReview"
	StatusCompleted   TaskStatus = "completed"
)

// TaskStatuses lists the workflow states in board order.
var TaskStatuses = []TaskStatus{StatusPending, StatusOnHold, StatusInProgress, StatusUnderReview, StatusCompleted}

func (s TaskStatus) Valid() bool {
	for _, st := range TaskStatuses {
		if s == st {
			return true
		}
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name        string     `gorm:"not null"`
	Description string     `gorm:"not null"`
	Status      TaskStatus `gorm:"not null"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime"`

	CompletedBy []TaskStatusChange `gorm:"foreignKey:TaskID"`
	Notes       []Note             `gorm:"foreignKey:TaskID"`
}

// TaskStatusChange is one entry of a task's append-only status log.
type TaskStatusChange struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TaskID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null"`
	Status    TaskStatus `gorm:"not null"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}
