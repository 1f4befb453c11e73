package repository

import (
	"context"

	"github.com/yukikurage/project-collab-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

func preloadInvitation(db *gorm.DB) *gorm.DB {
	return db.Preload("Project").Preload("InvitedBy")
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(invitation).Error
}

// FindByID finds an invitation by ID
func (r *GormInvitationRepository) FindByID(ctx context.Context, id uint64) (*models.Invitation, error) {
	var invitation models.Invitation
	if err := preloadInvitation(r.db.WithContext(ctx)).First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindPending finds the pending invitation for (projectID, email)
func (r *GormInvitationRepository) FindPending(ctx context.Context, projectID uint64, email string) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND email = ? AND status = ?", projectID, email, models.InvitationStatusPending).
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// ListPendingByEmail lists pending invitations addressed to email
func (r *GormInvitationRepository) ListPendingByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := preloadInvitation(r.db.WithContext(ctx)).
		Where("email = ? AND status = ?", email, models.InvitationStatusPending).
		Order("created_at DESC, id DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// ListByProject lists every invitation of a project
func (r *GormInvitationRepository) ListByProject(ctx context.Context, projectID uint64) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := preloadInvitation(r.db.WithContext(ctx)).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

// TransitionStatus performs a conditional update. Zero rows affected means
// the invitation was no longer in the from state.
func (r *GormInvitationRepository) TransitionStatus(ctx context.Context, id uint64, from, to models.InvitationStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

// Delete deletes an invitation
func (r *GormInvitationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Invitation{}, id).Error
}
