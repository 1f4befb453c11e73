package models

import "time"

// GlobalRole is the account-level label chosen at registration. It is
// descriptive only; per-project rights come from the project roster.
type GlobalRole string

const (
	GlobalRoleProjectManager GlobalRole = "project_manager"
	GlobalRoleTeamLeader     GlobalRole = "team_leader"
	GlobalRoleMember         GlobalRole = "member"
)

// IsValid reports whether r is a known account role.
func (r GlobalRole) IsValid() bool {
	switch r {
	case GlobalRoleProjectManager, GlobalRoleTeamLeader, GlobalRoleMember:
		return true
	default:
		return false
	}
}

type User struct {
	ID           uint64     `gorm:"primarykey" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null" json:"name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         GlobalRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
