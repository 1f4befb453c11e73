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

type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
	}
}

// ListProjects returns the projects the caller owns, leads or belongs to
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projects.ListMine(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": dto.ToProjectDTOs(projects)})
}

// GetProject returns a project by ID
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// CreateProject creates a project owned by the caller
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Name        string               `json:"name" binding:"required"`
		Description string               `json:"description"`
		Status      models.ProjectStatus `json:"status"`
		TeamLeader  *uint64              `json:"team_leader"`
		Members     []uint64             `json:"members"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projects.Create(c.Request.Context(), middleware.GetIdentity(c), services.CreateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		Status:       req.Status,
		TeamLeaderID: req.TeamLeader,
		MemberIDs:    req.Members,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// UpdateProject applies a partial update. team_leader may be null to clear
// the team leader.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name        *string                `json:"name"`
		Description *string                `json:"description"`
		Status      *models.ProjectStatus  `json:"status"`
		TeamLeader  dto.Nullable[uint64]   `json:"team_leader"`
		Members     dto.Nullable[[]uint64] `json:"members"`
	}

	var req UpdateProjectRequest
	if !bindPatch(c, &req) {
		return
	}
	if req.Members.Set && !req.Members.Valid {
		apierrors.BadRequest(c, "members must be a list of user ids")
		return
	}

	project, err := h.projects.Update(c.Request.Context(), middleware.GetIdentity(c), id, services.UpdateProjectInput{
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		TeamLeaderSet: req.TeamLeader.Set,
		TeamLeaderID:  req.TeamLeader.Ptr(),
		MembersSet:    req.Members.Set,
		MemberIDs:     req.Members.Value,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project and everything in it
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}

// AddMember adds an existing user to the project
func (h *ProjectHandler) AddMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projects.AddMember(c.Request.Context(), middleware.GetIdentity(c), id, req.UserID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// RemoveMember removes a plain member from the project
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	project, err := h.projects.RemoveMember(c.Request.Context(), middleware.GetIdentity(c), id, userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}
