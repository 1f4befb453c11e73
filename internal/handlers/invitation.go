package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-collab-api/internal/dto"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/middleware"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/services"
)

type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{
		invitations: invitations,
	}
}

// SendInvitation invites an existing account to a project
func (h *InvitationHandler) SendInvitation(c *gin.Context) {
	type SendInvitationRequest struct {
		ProjectID uint64                `json:"project_id" binding:"required"`
		Email     string                `json:"email" binding:"required"`
		Role      models.InvitationRole `json:"role" binding:"required"`
	}

	var req SendInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invitation, err := h.invitations.Send(c.Request.Context(), middleware.GetIdentity(c), services.SendInvitationInput{
		ProjectID: req.ProjectID,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInvitationDTO(*invitation))
}

// ListMyInvitations returns the pending invitations addressed to the caller
func (h *InvitationHandler) ListMyInvitations(c *gin.Context) {
	invitations, err := h.invitations.ListMine(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationDTOs(invitations)})
}

// ListProjectInvitations returns every invitation of a project
func (h *InvitationHandler) ListProjectInvitations(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	invitations, err := h.invitations.ListByProject(c.Request.Context(), middleware.GetIdentity(c), projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invitations": dto.ToInvitationDTOs(invitations)})
}

// AcceptInvitation joins the caller to the invitation's project
func (h *InvitationHandler) AcceptInvitation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invitation, project, err := h.invitations.Accept(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AcceptInvitationResponse{
		Invitation: dto.ToInvitationDTO(*invitation),
		Project:    dto.ToProjectDTO(*project),
	})
}

// DeclineInvitation declines an invitation addressed to the caller
func (h *InvitationHandler) DeclineInvitation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	invitation, err := h.invitations.Decline(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvitationDTO(*invitation))
}

// DeleteInvitation removes an invitation in any state
func (h *InvitationHandler) DeleteInvitation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.invitations.Delete(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation deleted successfully",
	})
}
