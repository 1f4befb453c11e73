package repository

import (
	"context"

	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/utils"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// CountByIDs counts how many of the given user IDs exist
	CountByIDs(ctx context.Context, ids []uint64) (int64, error)

	// List lists every account ordered by name
	List(ctx context.Context) ([]models.User, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create inserts the project row and its member rows
	Create(ctx context.Context, project *models.Project, memberIDs []uint64) error

	// FindByID finds a project with owner, team leader and members preloaded
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// FindByIDForUpdate locks the project row for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uint64) (*models.Project, error)

	// ListForUser lists projects the user owns, leads or belongs to
	ListForUser(ctx context.Context, userID uint64) ([]models.Project, error)

	// Update writes the scalar columns of a project
	Update(ctx context.Context, project *models.Project) error

	// ReplaceMembers makes the member rows equal to memberIDs
	ReplaceMembers(ctx context.Context, projectID uint64, memberIDs []uint64) error

	// AddMember inserts a member row if it is absent
	AddMember(ctx context.Context, projectID, userID uint64) error

	// RemoveMember deletes a member row
	RemoveMember(ctx context.Context, projectID, userID uint64) error

	// Delete deletes a project and all related data
	Delete(ctx context.Context, id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with its assignee preloaded
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// ListByProject lists tasks of a project oldest first
	ListByProject(ctx context.Context, projectID uint64) ([]models.Task, error)

	// Update updates a task
	Update(ctx context.Context, task *models.Task) error

	// Delete deletes a task
	Delete(ctx context.Context, id uint64) error
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	// Create creates a new invitation
	Create(ctx context.Context, invitation *models.Invitation) error

	// FindByID finds an invitation with project and inviter preloaded
	FindByID(ctx context.Context, id uint64) (*models.Invitation, error)

	// FindPending finds the pending invitation for a project and email
	FindPending(ctx context.Context, projectID uint64, email string) (*models.Invitation, error)

	// ListPendingByEmail lists pending invitations addressed to email, newest first
	ListPendingByEmail(ctx context.Context, email string) ([]models.Invitation, error)

	// ListByProject lists every invitation of a project, newest first
	ListByProject(ctx context.Context, projectID uint64) ([]models.Invitation, error)

	// TransitionStatus moves an invitation from one status to another and
	// reports how many rows changed
	TransitionStatus(ctx context.Context, id uint64, from, to models.InvitationStatus) (int64, error)

	// Delete deletes an invitation
	Delete(ctx context.Context, id uint64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(ctx context.Context, comment *models.Comment) error

	// FindByID finds a comment with its author preloaded
	FindByID(ctx context.Context, id uint64) (*models.Comment, error)

	// ListByProject lists comments oldest first; a nil page returns all of them
	ListByProject(ctx context.Context, projectID uint64, page *utils.PaginationParams) ([]models.Comment, int64, error)

	// Update writes text and image URL of a comment
	Update(ctx context.Context, comment *models.Comment) error

	// Delete deletes a comment
	Delete(ctx context.Context, id uint64) error
}

// Repositories bundles every repository bound to the same connection or
// transaction.
type Repositories struct {
	db *gorm.DB

	Users       UserRepository
	Projects    ProjectRepository
	Tasks       TaskRepository
	Invitations InvitationRepository
	Comments    CommentRepository
}

// New creates the repository set for db
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		Users:       NewUserRepository(db),
		Projects:    NewProjectRepository(db),
		Tasks:       NewTaskRepository(db),
		Invitations: NewInvitationRepository(db),
		Comments:    NewCommentRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
