package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/yukikurage/project-collab-api/internal/cache"
	"github.com/yukikurage/project-collab-api/internal/constants"
	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/identity"
	"github.com/yukikurage/project-collab-api/internal/membership"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/permissions"
	"github.com/yukikurage/project-collab-api/internal/repository"
)

var (
	ErrProjectNameRequired  = apperrors.NewValidation("Project name is required")
	ErrProjectNameTooLong   = apperrors.NewValidation(fmt.Sprintf("Project name must be at most %d characters", constants.MaxTitleLength))
	ErrInvalidProjectStatus = apperrors.NewValidationWithReason(apperrors.ReasonInvalidEnum, "Status must be active, completed or archived")
)

// ProjectService owns project rosters. Project views are read through the
// cache and concurrent loads of the same project are collapsed.
type ProjectService struct {
	repos   *repository.Repositories
	cache   cache.Cache
	metrics *metrics.Metrics
	loads   singleflight.Group
}

// NewProjectService creates a new ProjectService. c may be cache.Noop{} and
// m may be nil.
func NewProjectService(repos *repository.Repositories, c cache.Cache, m *metrics.Metrics) *ProjectService {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProjectService{
		repos:   repos,
		cache:   c,
		metrics: m,
	}
}

// CreateProjectInput holds the fields of a new project.
type CreateProjectInput struct {
	Name         string
	Description  string
	Status       models.ProjectStatus
	TeamLeaderID *uint64
	MemberIDs    []uint64
}

// UpdateProjectInput is a partial update. Nil fields are left unchanged;
// TeamLeaderSet with a nil TeamLeaderID clears the team leader.
type UpdateProjectInput struct {
	Name          *string
	Description   *string
	Status        *models.ProjectStatus
	TeamLeaderSet bool
	TeamLeaderID  *uint64
	MembersSet    bool
	MemberIDs     []uint64
}

// ListMine lists projects the caller owns, leads or belongs to.
func (s *ProjectService) ListMine(ctx context.Context, caller identity.Identity) ([]models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	projects, err := s.repos.Projects.ListForUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Get returns a project the caller can read.
func (s *ProjectService) Get(ctx context.Context, caller identity.Identity, id uint64) (*models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}
	return s.authorize(ctx, caller, id, permissions.ActionReadProject)
}

// Create creates a project owned by the caller. Every referenced user must
// exist.
func (s *ProjectService) Create(ctx context.Context, caller identity.Identity, input CreateProjectInput) (*models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	name, err := validateProjectName(input.Name)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = models.ProjectStatusActive
	}
	if !status.IsValid() {
		return nil, ErrInvalidProjectStatus
	}

	roster := membership.New(caller.UserID, nonZero(input.TeamLeaderID), input.MemberIDs)
	if err := ensureUsersExist(ctx, s.repos.Users, roster.Members); err != nil {
		return nil, err
	}

	project := &models.Project{
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Status:       status,
		OwnerID:      roster.Owner,
		TeamLeaderID: roster.TeamLeader,
	}
	if err := s.repos.Projects.Create(ctx, project, roster.Members); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.reload(ctx, project.ID)
}

// Update applies a partial update. Roster changes are reconciled so the
// owner and team leader always stay members.
func (s *ProjectService) Update(ctx context.Context, caller identity.Identity, id uint64, input UpdateProjectInput) (*models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := s.lockAndAuthorize(ctx, tx, caller, id, permissions.ActionUpdateProject)
		if err != nil {
			return err
		}
		current := membership.FromProject(project)

		if input.Name != nil {
			name, err := validateProjectName(*input.Name)
			if err != nil {
				return err
			}
			project.Name = name
		}
		if input.Description != nil {
			project.Description = strings.TrimSpace(*input.Description)
		}
		if input.Status != nil {
			if !input.Status.IsValid() {
				return ErrInvalidProjectStatus
			}
			project.Status = *input.Status
		}

		next := membership.Reconcile(current, membership.Patch{
			TeamLeaderSet: input.TeamLeaderSet,
			TeamLeader:    nonZero(input.TeamLeaderID),
			MembersSet:    input.MembersSet,
			Members:       input.MemberIDs,
		})
		added, removed := current.Diff(next)
		if err := ensureUsersExist(ctx, tx.Users, added); err != nil {
			return err
		}

		project.TeamLeaderID = next.TeamLeader
		if err := tx.Projects.Update(ctx, project); err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}

		if len(added) > 0 || len(removed) > 0 {
			if err := tx.Projects.ReplaceMembers(ctx, id, next.Members); err != nil {
				return fmt.Errorf("failed to update members: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return s.reload(ctx, id)
}

// Delete removes a project with its tasks, comments, invitations and member
// rows. Owner only.
func (s *ProjectService) Delete(ctx context.Context, caller identity.Identity, id uint64) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.lockAndAuthorize(ctx, tx, caller, id, permissions.ActionDeleteProject); err != nil {
			return err
		}
		if err := tx.Projects.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

// AddMember adds an existing user to the roster.
func (s *ProjectService) AddMember(ctx context.Context, caller identity.Identity, id, userID uint64) (*models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := s.lockAndAuthorize(ctx, tx, caller, id, permissions.ActionManageMembers)
		if err != nil {
			return err
		}
		roster := membership.FromProject(project)

		if _, err := tx.Users.FindByID(ctx, userID); err != nil {
			return notFound(err, ErrUserNotFound, "find user")
		}
		if _, err := roster.Add(userID); err != nil {
			return err
		}

		if err := tx.Projects.AddMember(ctx, id, userID); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return s.reload(ctx, id)
}

// RemoveMember removes a plain member. The owner and the team leader cannot
// be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, caller identity.Identity, id, userID uint64) (*models.Project, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := lockProject(ctx, tx, id)
		if err != nil {
			return err
		}

		roster := membership.FromProject(project)
		if err := checked(s.metrics, permissions.CanRemoveMember(caller.UserID, roster, userID)); err != nil {
			return err
		}
		if _, err := roster.Remove(userID); err != nil {
			return err
		}

		if err := tx.Projects.RemoveMember(ctx, id, userID); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return s.reload(ctx, id)
}

// authorize checks action against the cached project view. Reads use it;
// writes go through lockAndAuthorize.
func (s *ProjectService) authorize(ctx context.Context, caller identity.Identity, id uint64, action permissions.Action) (*models.Project, error) {
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := checked(s.metrics, permissions.Authorize(caller.UserID, membership.FromProject(project), action)); err != nil {
		return nil, err
	}
	return project, nil
}

// lockAndAuthorize locks the project row in tx and checks action against the
// roster as committed. The roster cannot change until tx ends.
func (s *ProjectService) lockAndAuthorize(ctx context.Context, tx *repository.Repositories, caller identity.Identity, id uint64, action permissions.Action) (*models.Project, error) {
	project, err := lockProject(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := checked(s.metrics, permissions.Authorize(caller.UserID, membership.FromProject(project), action)); err != nil {
		return nil, err
	}
	return project, nil
}

func lockProject(ctx context.Context, tx *repository.Repositories, id uint64) (*models.Project, error) {
	project, err := tx.Projects.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	return project, nil
}

// load returns the cached project view, or reads it once for all concurrent
// callers. The returned project is shared and must not be modified.
//
// The generation is read before the database so a write that commits and
// invalidates in between makes the cache write a no-op.
func (s *ProjectService) load(ctx context.Context, id uint64) (*models.Project, error) {
	key := cache.ProjectKey(id)

	var cached models.Project
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "Project cache read failed", "project_id", id, "error", err)
	}
	if found {
		return &cached, nil
	}

	v, err, _ := s.loads.Do(key, func() (interface{}, error) {
		// Shared by every waiter, so one abandoned request must not fail the rest.
		ctx := context.WithoutCancel(ctx)

		gen, genErr := s.cache.Generation(ctx, key)
		if genErr != nil {
			slog.WarnContext(ctx, "Project cache generation read failed", "project_id", id, "error", genErr)
		}

		project, err := s.repos.Projects.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if genErr == nil {
			if _, err := s.cache.SetIfGeneration(ctx, key, gen, project); err != nil {
				slog.WarnContext(ctx, "Project cache write failed", "project_id", id, "error", err)
			}
		}
		return project, nil
	})
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "find project")
	}
	return v.(*models.Project), nil
}

// reload reads a project straight from the database after a write.
func (s *ProjectService) reload(ctx context.Context, id uint64) (*models.Project, error) {
	project, err := s.repos.Projects.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProjectNotFound, "reload project")
	}
	return project, nil
}

func (s *ProjectService) invalidate(ctx context.Context, id uint64) {
	if err := s.cache.Invalidate(ctx, cache.ProjectKey(id)); err != nil {
		slog.WarnContext(ctx, "Project cache invalidation failed", "project_id", id, "error", err)
	}
}

func validateProjectName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrProjectNameRequired
	}
	if len([]rune(name)) > constants.MaxTitleLength {
		return "", ErrProjectNameTooLong
	}
	return name, nil
}

// ensureUsersExist returns ErrUserNotFound unless every id names an account.
func ensureUsersExist(ctx context.Context, users repository.UserRepository, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}

	count, err := users.CountByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check users: %w", err)
	}
	if count != int64(len(ids)) {
		return ErrUserNotFound
	}
	return nil
}

func nonZero(id *uint64) *uint64 {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}
