package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

func preloadProject(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Owner").
		Preload("TeamLeader").
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_members.joined_at ASC, project_members.user_id ASC")
		}).
		Preload("Members.User")
}

// Create inserts the project row and its member rows in one transaction
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project, memberIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(project).Error; err != nil {
			return err
		}
		return insertMembers(tx, project.ID, memberIDs)
	})
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := preloadProject(r.db.WithContext(ctx)).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByIDForUpdate selects the project row FOR UPDATE. Only meaningful
// inside a transaction; SQLite ignores the locking clause and serializes
// writers itself.
func (r *GormProjectRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("project_members.joined_at ASC, project_members.user_id ASC")
		}).
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForUser lists projects where the user is owner, team leader or member
func (r *GormProjectRepository) ListForUser(ctx context.Context, userID uint64) ([]models.Project, error) {
	memberOf := r.db.Model(&models.ProjectMember{}).
		Select("project_id").
		Where("user_id = ?", userID)

	var projects []models.Project
	err := preloadProject(r.db.WithContext(ctx)).
		Where("owner_id = ? OR team_leader_id = ? OR id IN (?)", userID, userID, memberOf).
		Order("created_at DESC, id DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// Update writes the scalar columns. A nil TeamLeaderID clears the column.
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).
		Model(project).
		Select("name", "description", "status", "team_leader_id", "updated_at").
		Updates(project).Error
}

// ReplaceMembers deletes rows not in memberIDs and inserts the missing ones.
// Rows that survive keep their joined_at.
func (r *GormProjectRepository) ReplaceMembers(ctx context.Context, projectID uint64, memberIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("project_id = ?", projectID)
		if len(memberIDs) > 0 {
			del = del.Where("user_id NOT IN ?", memberIDs)
		}
		if err := del.Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}
		return insertMembers(tx, projectID, memberIDs)
	})
}

// AddMember inserts a member row if it is absent
func (r *GormProjectRepository) AddMember(ctx context.Context, projectID, userID uint64) error {
	return insertMembers(r.db.WithContext(ctx), projectID, []uint64{userID})
}

// RemoveMember deletes a member row
func (r *GormProjectRepository) RemoveMember(ctx context.Context, projectID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Delete all tasks in the project
		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Delete all comments
		if err := tx.Where("project_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		// Delete all invitations, whatever their state
		if err := tx.Where("project_id = ?", id).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}

		// Delete all members
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		// Delete project
		return tx.Delete(&models.Project{}, id).Error
	})
}

// insertMembers adds rows in order, skipping ones that already exist. Each
// row gets a strictly later joined_at so preload order follows input order.
func insertMembers(tx *gorm.DB, projectID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]models.ProjectMember, len(userIDs))
	for i, userID := range userIDs {
		rows[i] = models.ProjectMember{
			ProjectID: projectID,
			UserID:    userID,
			JoinedAt:  now.Add(time.Duration(i) * time.Millisecond),
		}
	}

	return tx.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}
