package dto

import (
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
)

// ProjectDTO is the fully denormalized project view
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Owner       UserDTO              `json:"owner"`
	TeamLeader  *UserDTO             `json:"team_leader"`
	Members     []UserDTO            `json:"members"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ProjectSummaryDTO is the short project form embedded in invitations
type ProjectSummaryDTO struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ToProjectDTO converts a project with owner, team leader and members
// preloaded
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		Owner:       ToUserDTO(project.Owner),
		Members:     make([]UserDTO, len(project.Members)),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}

	if project.TeamLeader != nil && project.TeamLeader.ID != 0 {
		leader := ToUserDTO(*project.TeamLeader)
		dto.TeamLeader = &leader
	}

	for i, member := range project.Members {
		dto.Members[i] = ToUserDTO(member.User)
	}

	return dto
}

// ToProjectDTOs converts a slice of projects
func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		out[i] = ToProjectDTO(project)
	}
	return out
}

// ToProjectSummaryDTO converts a project to its short form
func ToProjectSummaryDTO(project models.Project) ProjectSummaryDTO {
	return ProjectSummaryDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
	}
}
