// Package workflow computes task board views. Nothing here touches storage.
package workflow

import (
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
)

type Statistics struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	InProgress     int `json:"in_progress"`
	Todo           int `json:"todo"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completion_rate"`
}

// ComputeStatistics counts tasks per column. A task is overdue when its due
// date is before now and it is not done. CompletionRate is the completed
// percentage rounded half up, 0 for an empty board.
func ComputeStatistics(tasks []models.Task, now time.Time) Statistics {
	var s Statistics
	s.Total = len(tasks)

	for _, t := range tasks {
		switch t.Status {
		case models.TaskStatusDone:
			s.Completed++
		case models.TaskStatusInProgress:
			s.InProgress++
		case models.TaskStatusTodo:
			s.Todo++
		}
		if t.DueDate != nil && t.DueDate.Before(now) && t.Status != models.TaskStatusDone {
			s.Overdue++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = (200*s.Completed + s.Total) / (2 * s.Total)
	}
	return s
}
