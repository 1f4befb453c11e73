package models

import "time"

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusDeclined InvitationStatus = "declined"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationStatusAccepted || s == InvitationStatusDeclined
}

// InvitationRole is the project role granted when an invitation is accepted.
type InvitationRole string

const (
	InvitationRoleTeamLeader InvitationRole = "team_leader"
	InvitationRoleMember     InvitationRole = "member"
)

// IsValid reports whether r can be offered in an invitation.
func (r InvitationRole) IsValid() bool {
	return r == InvitationRoleTeamLeader || r == InvitationRoleMember
}

type Invitation struct {
	ID          uint64           `gorm:"primarykey" json:"id"`
	ProjectID   uint64           `gorm:"not null;index:idx_invitations_project_email" json:"project_id"`
	Email       string           `gorm:"type:varchar(255);not null;index:idx_invitations_project_email" json:"email"`
	Role        InvitationRole   `gorm:"type:varchar(20);not null" json:"role"`
	InvitedByID uint64           `gorm:"not null" json:"invited_by_id"`
	Status      InvitationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Token       string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// Relations
	Project   Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"project"`
	InvitedBy User    `gorm:"foreignKey:InvitedByID" json:"invited_by"`
}
