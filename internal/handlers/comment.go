package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-collab-api/internal/dto"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/middleware"
	"github.com/yukikurage/project-collab-api/internal/services"
	"github.com/yukikurage/project-collab-api/internal/utils"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{
		comments: comments,
	}
}

// ListComments returns the comment ledger of a project, paginated when page
// or limit is given
func (h *CommentHandler) ListComments(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	page, _ := utils.GetPaginationParams(c)

	comments, total, err := h.comments.ListByProject(c.Request.Context(), middleware.GetIdentity(c), projectID, page)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentListResponse(comments, page, total))
}

// PostComment appends a comment to a project
func (h *CommentHandler) PostComment(c *gin.Context) {
	type PostCommentRequest struct {
		ProjectID uint64  `json:"project_id" binding:"required"`
		Text      string  `json:"text"`
		ImageURL  *string `json:"image_url"`
	}

	var req PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.comments.Post(c.Request.Context(), middleware.GetIdentity(c), services.PostCommentInput{
		ProjectID: req.ProjectID,
		Text:      req.Text,
		ImageURL:  req.ImageURL,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// UpdateComment edits the caller's own comment. image_url may be null to
// remove the image.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	type UpdateCommentRequest struct {
		Text     *string              `json:"text"`
		ImageURL dto.Nullable[string] `json:"image_url"`
	}

	var req UpdateCommentRequest
	if !bindPatch(c, &req) {
		return
	}

	comment, err := h.comments.Edit(c.Request.Context(), middleware.GetIdentity(c), id, services.EditCommentInput{
		Text:       req.Text,
		ImageURL:   req.ImageURL.Ptr(),
		ClearImage: req.ImageURL.Set && !req.ImageURL.Valid,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// DeleteComment removes a comment
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Comment deleted successfully",
	})
}
