package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yukikurage/project-collab-api/internal/constants"
	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/identity"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/permissions"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/workflow"
)

var (
	ErrTaskNotFound        = apperrors.NewNotFound("Task not found")
	ErrTaskTitleRequired   = apperrors.NewValidation("Task title is required")
	ErrTaskTitleTooLong    = apperrors.NewValidation(fmt.Sprintf("Task title must be at most %d characters", constants.MaxTitleLength))
	ErrInvalidTaskStatus   = apperrors.NewValidationWithReason(apperrors.ReasonInvalidEnum, "Status must be todo, inprogress or done")
	ErrInvalidTaskPriority = apperrors.NewValidationWithReason(apperrors.ReasonInvalidEnum, "Priority must be low, medium or high")
	ErrInvalidAssignee     = apperrors.NewValidation("assigned_to must be a user id, all or unassigned")
)

// TaskService handles task related business logic.
type TaskService struct {
	repos    *repository.Repositories
	projects *ProjectService
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(repos *repository.Repositories, projects *ProjectService, m *metrics.Metrics) *TaskService {
	return &TaskService{
		repos:    repos,
		projects: projects,
		metrics:  m,
		now:      time.Now,
	}
}

// CreateTaskInput holds the fields of a new task. Empty status and priority
// take their defaults.
type CreateTaskInput struct {
	Title        string
	Description  string
	Status       models.TaskStatus
	Priority     models.TaskPriority
	DueDate      *time.Time
	AssignedToID *uint64
}

// UpdateTaskInput is a partial update. ClearDueDate and ClearAssignee set the
// column to NULL.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	Priority      *models.TaskPriority
	DueDate       *time.Time
	ClearDueDate  bool
	AssignedToID  *uint64
	ClearAssignee bool
}

// Create creates a task in a project the caller belongs to.
func (s *TaskService) Create(ctx context.Context, caller identity.Identity, projectID uint64, input CreateTaskInput) (*models.Task, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	var task *models.Task
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.projects.lockAndAuthorize(ctx, tx, caller, projectID, permissions.ActionManageTasks); err != nil {
			return err
		}

		title, err := validateTaskTitle(input.Title)
		if err != nil {
			return err
		}

		status := input.Status
		if status == "" {
			status = models.TaskStatusTodo
		}
		if !status.IsValid() {
			return ErrInvalidTaskStatus
		}

		priority := input.Priority
		if priority == "" {
			priority = models.TaskPriorityMedium
		}
		if !priority.IsValid() {
			return ErrInvalidTaskPriority
		}

		assignee := nonZero(input.AssignedToID)
		if err := ensureAssignee(ctx, tx.Users, assignee); err != nil {
			return err
		}

		task = &models.Task{
			ProjectID:    projectID,
			Title:        title,
			Description:  strings.TrimSpace(input.Description),
			Status:       status,
			Priority:     priority,
			DueDate:      input.DueDate,
			AssignedToID: assignee,
		}
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, task.ID)
}

// Get returns a task of a project the caller belongs to.
func (s *TaskService) Get(ctx context.Context, caller identity.Identity, id uint64) (*models.Task, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.authorize(ctx, caller, task.ProjectID, permissions.ActionManageTasks); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies a partial update. Only present fields are validated and any
// status may move to any other status.
func (s *TaskService) Update(ctx context.Context, caller identity.Identity, id uint64, input UpdateTaskInput) (*models.Task, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	found, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.projects.lockAndAuthorize(ctx, tx, caller, found.ProjectID, permissions.ActionManageTasks); err != nil {
			return err
		}

		task, err := tx.Tasks.FindByID(ctx, id)
		if err != nil {
			return notFound(err, ErrTaskNotFound, "find task")
		}

		if input.Title != nil {
			title, err := validateTaskTitle(*input.Title)
			if err != nil {
				return err
			}
			task.Title = title
		}
		if input.Description != nil {
			task.Description = strings.TrimSpace(*input.Description)
		}
		if input.Status != nil {
			if !input.Status.IsValid() {
				return ErrInvalidTaskStatus
			}
			task.Status = *input.Status
		}
		if input.Priority != nil {
			if !input.Priority.IsValid() {
				return ErrInvalidTaskPriority
			}
			task.Priority = *input.Priority
		}

		if input.ClearDueDate {
			task.DueDate = nil
		} else if input.DueDate != nil {
			task.DueDate = input.DueDate
		}

		if input.ClearAssignee {
			task.AssignedToID = nil
		} else if assignee := nonZero(input.AssignedToID); assignee != nil {
			if err := ensureAssignee(ctx, tx.Users, assignee); err != nil {
				return err
			}
			task.AssignedToID = assignee
		}
		task.AssignedTo = nil

		if err := tx.Tasks.Update(ctx, task); err != nil {
			return notFound(err, ErrTaskNotFound, "update task")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, id)
}

// Delete deletes a task of a project the caller belongs to.
func (s *TaskService) Delete(ctx context.Context, caller identity.Identity, id uint64) error {
	if err := requireIdentity(caller); err != nil {
		return err
	}

	task, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.projects.lockAndAuthorize(ctx, tx, caller, task.ProjectID, permissions.ActionManageTasks); err != nil {
			return err
		}
		if err := tx.Tasks.Delete(ctx, id); err != nil {
			return notFound(err, ErrTaskNotFound, "delete task")
		}
		return nil
	})
}

// ListByProject lists the project's tasks oldest first, narrowed by filter.
func (s *TaskService) ListByProject(ctx context.Context, caller identity.Identity, projectID uint64, filter workflow.TaskFilter) ([]models.Task, error) {
	if err := requireIdentity(caller); err != nil {
		return nil, err
	}

	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	if _, err := s.projects.authorize(ctx, caller, projectID, permissions.ActionReadProject); err != nil {
		return nil, err
	}

	tasks, err := s.repos.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return workflow.Filter(tasks, filter), nil
}

// Statistics summarizes every task of the project.
func (s *TaskService) Statistics(ctx context.Context, caller identity.Identity, projectID uint64) (workflow.Statistics, error) {
	if err := requireIdentity(caller); err != nil {
		return workflow.Statistics{}, err
	}

	if _, err := s.projects.authorize(ctx, caller, projectID, permissions.ActionReadTaskStats); err != nil {
		return workflow.Statistics{}, err
	}

	tasks, err := s.repos.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return workflow.Statistics{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	return workflow.ComputeStatistics(tasks, s.now()), nil
}

func (s *TaskService) find(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.repos.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "find task")
	}
	return task, nil
}

func (s *TaskService) reload(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := s.repos.Tasks.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTaskNotFound, "reload task")
	}
	return task, nil
}

// ensureAssignee checks that the account exists. Project membership of the
// assignee is not required.
func ensureAssignee(ctx context.Context, users repository.UserRepository, id *uint64) error {
	if id == nil {
		return nil
	}
	if _, err := users.FindByID(ctx, *id); err != nil {
		return notFound(err, ErrUserNotFound, "find assignee")
	}
	return nil
}

func validateTaskTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTaskTitleRequired
	}
	if len([]rune(title)) > constants.MaxTitleLength {
		return "", ErrTaskTitleTooLong
	}
	return title, nil
}

func validateFilter(f workflow.TaskFilter) error {
	if f.Priority != "" && f.Priority != constants.FilterAll && !models.TaskPriority(f.Priority).IsValid() {
		return ErrInvalidTaskPriority
	}

	switch f.AssignedTo {
	case "", constants.FilterAll, constants.FilterUnassigned:
		return nil
	}
	if _, err := strconv.ParseUint(f.AssignedTo, 10, 64); err != nil {
		return ErrInvalidAssignee
	}
	return nil
}
