package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/identity"
	"github.com/yukikurage/project-collab-api/internal/membership"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/permissions"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/utils"
)

var (
	ErrCommentNotFound = apperrors.NewNotFound("Comment not found")
	ErrEmptyText       = apperrors.NewValidationWithReason(apperrors.ReasonEmptyText, "Comment text must not be empty")
)

// CommentService keeps the per-project comment ledger.
type CommentService struct {
	repos    *repository.Repositories
	projects *ProjectService
	metrics  *metrics.Metrics
}

// NewCommentService creates a new CommentService.
func NewCommentService(repos *repository.Repositories, projects *ProjectService, m *metrics.Metrics) *CommentService {
	return &CommentService{
		repos:    repos,
		projects: projects,
		metrics:  m,
	}
}

type PostCommentInput struct {
	ProjectID uint64
	Text      string
	ImageURL  *string
}

// EditCommentInput is a partial update; ClearImage removes the image URL.
type EditCommentInput struct {
	Text       *string
	ImageURL   *string
	ClearImage bool
}

// ListByProject returns the ledger oldest first. A nil page returns every
// comment. The total is the size of the whole ledger.
func (s *CommentService) ListByProject(ctx context.Context, caller identity.Identity, projectID uint64, page *utils.PaginationParams) ([]models.Comment, int64, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, 0, err
	}

	if _, err := s.projects.authorize(ctx, caller, projectID, permissions.ActionReadComments); err != nil {
		return nil, 0, err
	}

	comments, total, err := s.repos.Comments.ListByProject(ctx, projectID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, total, nil
}

// Post appends a comment authored by the caller.
func (s *CommentService) Post(ctx context.Context, caller identity.Identity, input PostCommentInput) (*models.Comment, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var comment *models.Comment
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.projects.lockAndAuthorize(ctx, tx, caller, input.ProjectID, permissions.ActionPostComment); err != nil {
			return err
		}

		text, err := validateCommentText(input.Text)
		if err != nil {
			return err
		}

		comment = &models.Comment{
			ProjectID: input.ProjectID,
			UserID:    caller.UserID,
			Text:      text,
			ImageURL:  input.ImageURL,
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, comment.ID)
}

// Edit changes the text or image of the caller's own comment.
func (s *CommentService) Edit(ctx context.Context, caller identity.Identity, id uint64, input EditCommentInput) (*models.Comment, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	comment, err := s.repos.Comments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound, "find comment")
	}

	if err := checked(s.metrics, permissions.CanEditComment(caller.UserID, comment.UserID)); err != nil {
		return nil, err
	}

	if input.Text != nil {
		text, err := validateCommentText(*input.Text)
		if err != nil {
			return nil, err
		}
		comment.Text = text
	}
	if input.ClearImage {
		comment.ImageURL = nil
	} else if input.ImageURL != nil {
		comment.ImageURL = input.ImageURL
	}

	if err := s.repos.Comments.Update(ctx, comment); err != nil {
		return nil, notFound(err, ErrCommentNotFound, "update comment")
	}

	return s.reload(ctx, id)
}

// Delete removes a comment. The author, the owner and the team leader may
// delete it.
func (s *CommentService) Delete(ctx context.Context, caller identity.Identity, id uint64) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}

	comment, err := s.repos.Comments.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrCommentNotFound, "find comment")
	}

	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(ctx, tx, comment.ProjectID)
		if err != nil {
			return err
		}

		roster := membership.FromProject(project)
		if err := checked(s.metrics, permissions.CanDeleteComment(caller.UserID, roster, comment.UserID)); err != nil {
			return err
		}

		if err := tx.Comments.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		return nil
	})
}

func (s *CommentService) reload(ctx context.Context, id uint64) (*models.Comment, error) {
	comment, err := s.repos.Comments.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound, "reload comment")
	}
	return comment, nil
}

func validateCommentText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
