package dto

import (
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/utils"
)

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"project_id"`
	Text      string    `json:"text"`
	ImageURL  *string   `json:"image_url"`
	User      UserDTO   `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentListResponse is the comment ledger of a project. Pagination is set
// only when the client asked for a page.
type CommentListResponse struct {
	Comments   []CommentDTO              `json:"comments"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// ToCommentDTO converts a comment with its author preloaded
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		ProjectID: comment.ProjectID,
		Text:      comment.Text,
		ImageURL:  comment.ImageURL,
		User:      ToUserDTO(comment.User),
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
}

// ToCommentListResponse converts a page of comments
func ToCommentListResponse(comments []models.Comment, page *utils.PaginationParams, total int64) CommentListResponse {
	items := make([]CommentDTO, len(comments))
	for i, comment := range comments {
		items[i] = ToCommentDTO(comment)
	}

	resp := CommentListResponse{Comments: items}
	if page != nil {
		resp.Pagination = &utils.PaginationResponse{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
		}
	}
	return resp
}
