package dto

import (
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
)

// InvitationDTO represents an invitation in API responses. The token never
// leaves the server.
type InvitationDTO struct {
	ID        uint64                  `json:"id"`
	Email     string                  `json:"email"`
	Role      models.InvitationRole   `json:"role"`
	Status    models.InvitationStatus `json:"status"`
	Project   ProjectSummaryDTO       `json:"project"`
	InvitedBy UserDTO                 `json:"invited_by"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// AcceptInvitationResponse carries the updated invitation and the project the
// caller just joined
type AcceptInvitationResponse struct {
	Invitation InvitationDTO `json:"invitation"`
	Project    ProjectDTO    `json:"project"`
}

// ToInvitationDTO converts an invitation with project and inviter preloaded
func ToInvitationDTO(invitation models.Invitation) InvitationDTO {
	return InvitationDTO{
		ID:        invitation.ID,
		Email:     invitation.Email,
		Role:      invitation.Role,
		Status:    invitation.Status,
		Project:   ToProjectSummaryDTO(invitation.Project),
		InvitedBy: ToUserDTO(invitation.InvitedBy),
		CreatedAt: invitation.CreatedAt,
		UpdatedAt: invitation.UpdatedAt,
	}
}

// ToInvitationDTOs converts a slice of invitations
func ToInvitationDTOs(invitations []models.Invitation) []InvitationDTO {
	out := make([]InvitationDTO, len(invitations))
	for i, invitation := range invitations {
		out[i] = ToInvitationDTO(invitation)
	}
	return out
}
