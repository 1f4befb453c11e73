package repository

import (
	"context"

	"github.com/yukikurage/project-collab-api/internal/database"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

// Create creates a new comment
func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// FindByID finds a comment by ID
func (r *GormCommentRepository) FindByID(ctx context.Context, id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByProject lists comments in creation order, ties broken by id
func (r *GormCommentRepository) ListByProject(ctx context.Context, projectID uint64, page *utils.PaginationParams) ([]models.Comment, int64, error) {
	base := r.db.WithContext(ctx).Where("project_id = ?", projectID)

	var total int64
	if err := base.Session(&gorm.Session{}).Model(&models.Comment{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := base.Session(&gorm.Session{}).
		Scopes(database.Paginate(page)).
		Preload("User").
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

// Update writes text and image URL. A nil ImageURL clears the column.
func (r *GormCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	result := r.db.WithContext(ctx).
		Model(comment).
		Select("text", "image_url", "updated_at").
		Updates(comment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete deletes a comment
func (r *GormCommentRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
