package models

import "time"

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// IsValid reports whether s is a known project status.
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

type Project struct {
	ID           uint64        `gorm:"primarykey" json:"id"`
	Name         string        `gorm:"type:varchar(255);not null" json:"name"`
	Description  string        `gorm:"type:text" json:"description"`
	Status       ProjectStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	OwnerID      uint64        `gorm:"not null;index" json:"owner_id"`
	TeamLeaderID *uint64       `gorm:"index" json:"team_leader_id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	// Relations
	Owner      User            `gorm:"foreignKey:OwnerID" json:"owner"`
	TeamLeader *User           `gorm:"foreignKey:TeamLeaderID" json:"team_leader,omitempty"`
	Members    []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// MemberIDs returns the roster user ids in stored order.
func (p *Project) MemberIDs() []uint64 {
	ids := make([]uint64, len(p.Members))
	for i, m := range p.Members {
		ids[i] = m.UserID
	}
	return ids
}
