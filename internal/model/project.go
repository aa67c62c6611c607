package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectName string    `gorm:"not null"`
	ClientName  string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	ManagerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Members []ProjectMember `gorm:"foreignKey:ProjectID"`
}

// ProjectMember grants a user access to a project's tasks without
// administrative rights.
type ProjectMember struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID"`
}

func (p *Project) IsManager(userID uuid.UUID) bool {
	return p.ManagerID == userID
}

func (p *Project) HasMember(userID uuid.UUID) bool {
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// CanAccess reports whether the user may read the project and act on its tasks.
func (p *Project) CanAccess(userID uuid.UUID) bool {
	return p.IsManager(userID) || p.HasMember(userID)
}

// TeamIDs returns the member ids in membership order.
func (p *Project) TeamIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}
