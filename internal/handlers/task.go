package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-collab-api/internal/dto"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/middleware"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/services"
	"github.com/yukikurage/project-collab-api/internal/workflow"
)

type TaskHandler struct {
	tasks *services.TaskService
}

func NewTaskHandler(tasks *services.TaskService) *TaskHandler {
	return &TaskHandler{
		tasks: tasks,
	}
}

// ListTasks returns the tasks of a project
// Can filter by priority, search and assigned_to
func (h *TaskHandler) ListTasks(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	filter := workflow.TaskFilter{
		Priority:   c.Query("priority"),
		Search:     c.Query("search"),
		AssignedTo: c.Query("assigned_to"),
	}

	tasks, err := h.tasks.ListByProject(c.Request.Context(), middleware.GetIdentity(c), projectID, filter)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks))
}

// GetStatistics returns the board statistics of a project
func (h *TaskHandler) GetStatistics(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.tasks.Statistics(c.Request.Context(), middleware.GetIdentity(c), projectID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskStatisticsResponse{
		ProjectID:  projectID,
		Statistics: stats,
	})
}

// CreateTask creates a new task in a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	projectID, ok := parseID(c, "id")
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"due_date"`
		AssignedTo  *uint64             `json:"assigned_to"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), middleware.GetIdentity(c), projectID, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate,
		AssignedToID: req.AssignedTo,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), middleware.GetIdentity(c), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. due_date and assigned_to may be null
// to clear them.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string                 `json:"title"`
		Description *string                 `json:"description"`
		Status      *models.TaskStatus      `json:"status"`
		Priority    *models.TaskPriority    `json:"priority"`
		DueDate     dto.Nullable[time.Time] `json:"due_date"`
		AssignedTo  dto.Nullable[uint64]    `json:"assigned_to"`
	}

	var req UpdateTaskRequest
	if !bindPatch(c, &req) {
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), middleware.GetIdentity(c), id, services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Status:        req.Status,
		Priority:      req.Priority,
		DueDate:       req.DueDate.Ptr(),
		ClearDueDate:  req.DueDate.Set && !req.DueDate.Valid,
		AssignedToID:  req.AssignedTo.Ptr(),
		ClearAssignee: req.AssignedTo.Set && !req.AssignedTo.Valid,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), middleware.GetIdentity(c), id); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
