package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

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
	ErrInvitationNotFound    = apperrors.NewNotFound("Invitation not found")
	ErrInvalidInvitationRole = apperrors.NewValidationWithReason(apperrors.ReasonInvalidEnum, "Role must be team_leader or member")
	ErrAlreadyMember         = apperrors.NewConflict(apperrors.ReasonAlreadyMember, "User is already a member of this project")
	ErrDuplicatePending      = apperrors.NewConflict(apperrors.ReasonDuplicatePending, "A pending invitation already exists for this email")
	ErrAlreadyProcessed      = apperrors.NewConflict(apperrors.ReasonAlreadyProcessed, "Invitation has already been processed")
)

// InvitationService drives invitations from pending to accepted or declined.
type InvitationService struct {
	repos    *repository.Repositories
	projects *ProjectService
	metrics  *metrics.Metrics
	newToken func() (string, error)
}

// NewInvitationService creates a new InvitationService.
func NewInvitationService(repos *repository.Repositories, projects *ProjectService, m *metrics.Metrics) *InvitationService {
	return &InvitationService{
		repos:    repos,
		projects: projects,
		metrics:  m,
		newToken: utils.GenerateInvitationToken,
	}
}

type SendInvitationInput struct {
	ProjectID uint64
	Email     string
	Role      models.InvitationRole
}

// Send creates a pending invitation for an existing account. The duplicate
// check and the insert run under the project row lock.
func (s *InvitationService) Send(ctx context.Context, caller identity.Identity, input SendInvitationInput) (*models.Invitation, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	if !input.Role.IsValid() {
		return nil, ErrInvalidInvitationRole
	}
	email := identity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	var invitationID uint64
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := tx.Projects.FindByIDForUpdate(ctx, input.ProjectID)
		if err != nil {
			return notFound(err, ErrProjectNotFound, "find project")
		}

		roster := membership.FromProject(project)
		if err := checked(s.metrics, permissions.Authorize(caller.UserID, roster, permissions.InviteAction(input.Role))); err != nil {
			return err
		}

		invitee, err := tx.Users.FindByEmail(ctx, email)
		if err != nil {
			return notFound(err, ErrUserNotFound, "find invitee")
		}
		if roster.Contains(invitee.ID) {
			return ErrAlreadyMember
		}

		if _, err := tx.Invitations.FindPending(ctx, input.ProjectID, email); err == nil {
			return ErrDuplicatePending
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check pending invitations: %w", err)
		}

		token, err := s.newToken()
		if err != nil {
			return fmt.Errorf("failed to generate invitation token: %w", err)
		}

		invitation := &models.Invitation{
			ProjectID:   input.ProjectID,
			Email:       email,
			Role:        input.Role,
			InvitedByID: caller.UserID,
			Status:      models.InvitationStatusPending,
			Token:       token,
		}
		if err := tx.Invitations.Create(ctx, invitation); err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		invitationID = invitation.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncInvitationTransition(string(models.InvitationStatusPending))
	return s.reload(ctx, invitationID)
}

// ListMine lists pending invitations addressed to the caller.
func (s *InvitationService) ListMine(ctx context.Context, caller identity.Identity) ([]models.Invitation, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	invitations, err := s.repos.Invitations.ListPendingByEmail(ctx, identity.NormalizeEmail(caller.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// ListByProject lists every invitation of a project, whatever its state.
func (s *InvitationService) ListByProject(ctx context.Context, caller identity.Identity, projectID uint64) ([]models.Invitation, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	if _, err := s.projects.authorize(ctx, caller, projectID, permissions.ActionViewInvitations); err != nil {
		return nil, err
	}

	invitations, err := s.repos.Invitations.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// Accept marks the invitation accepted and joins the caller to the project in
// one transaction. A team_leader invitation also makes the caller the team
// leader.
func (s *InvitationService) Accept(ctx context.Context, caller identity.Identity, id uint64) (*models.Invitation, *models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, nil, err
	}

	invitation, err := s.respondable(ctx, caller, id)
	if err != nil {
		return nil, nil, err
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := tx.Projects.FindByIDForUpdate(ctx, invitation.ProjectID)
		if err != nil {
			return notFound(err, ErrProjectNotFound, "find project")
		}

		if err := transition(ctx, tx.Invitations, id, models.InvitationStatusAccepted); err != nil {
			return err
		}

		if invitation.Role == models.InvitationRoleTeamLeader {
			leader := caller.UserID
			next := membership.Reconcile(membership.FromProject(project), membership.Patch{
				TeamLeaderSet: true,
				TeamLeader:    &leader,
			})
			project.TeamLeaderID = next.TeamLeader
			if err := tx.Projects.Update(ctx, project); err != nil {
				return fmt.Errorf("failed to set team leader: %w", err)
			}
		}

		if err := tx.Projects.AddMember(ctx, project.ID, caller.UserID); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncInvitationTransition(string(models.InvitationStatusAccepted))
	s.projects.invalidate(ctx, invitation.ProjectID)

	accepted, err := s.reload(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	project, err := s.projects.reload(ctx, invitation.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return accepted, project, nil
}

// Decline marks the invitation declined. The project is not touched.
func (s *InvitationService) Decline(ctx context.Context, caller identity.Identity, id uint64) (*models.Invitation, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	if _, err := s.respondable(ctx, caller, id); err != nil {
		return nil, err
	}

	if err := transition(ctx, s.repos.Invitations, id, models.InvitationStatusDeclined); err != nil {
		return nil, err
	}

	s.metrics.IncInvitationTransition(string(models.InvitationStatusDeclined))
	return s.reload(ctx, id)
}

// Delete hard-deletes an invitation in any state. Only the project owner or
// the inviter may do so.
func (s *InvitationService) Delete(ctx context.Context, caller identity.Identity, id uint64) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}

	invitation, err := s.repos.Invitations.FindByID(ctx, id)
	if err != nil {
		return notFound(err, ErrInvitationNotFound, "find invitation")
	}

	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(ctx, tx, invitation.ProjectID)
		if err != nil {
			return err
		}

		roster := membership.FromProject(project)
		if err := checked(s.metrics, permissions.CanDeleteInvitation(caller.UserID, roster, invitation.InvitedByID)); err != nil {
			return err
		}

		if err := tx.Invitations.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete invitation: %w", err)
		}
		return nil
	})
}

// respondable loads an invitation the caller may still accept or decline.
func (s *InvitationService) respondable(ctx context.Context, caller identity.Identity, id uint64) (*models.Invitation, error) {
	invitation, err := s.repos.Invitations.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrInvitationNotFound, "find invitation")
	}

	if err := checked(s.metrics, permissions.CanRespondToInvitation(caller, invitation.Email)); err != nil {
		return nil, err
	}
	if invitation.Status != models.InvitationStatusPending {
		return nil, ErrAlreadyProcessed
	}
	return invitation, nil
}

func (s *InvitationService) reload(ctx context.Context, id uint64) (*models.Invitation, error) {
	invitation, err := s.repos.Invitations.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrInvitationNotFound, "reload invitation")
	}
	return invitation, nil
}

// transition moves a pending invitation to status. Losing a race against
// another response yields ErrAlreadyProcessed.
func transition(ctx context.Context, invitations repository.InvitationRepository, id uint64, status models.InvitationStatus) error {
	rows, err := invitations.TransitionStatus(ctx, id, models.InvitationStatusPending, status)
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	if rows == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
