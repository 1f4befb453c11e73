package workflow

import (
	"strconv"
	"strings"

	"github.com/yukikurage/project-collab-api/internal/constants"
	"github.com/yukikurage/project-collab-api/internal/models"
)

// TaskFilter narrows a task list. Empty fields and "all" match everything.
// AssignedTo is a user id or "unassigned".
type TaskFilter struct {
	Priority   string
	Search     string
	AssignedTo string
}

// Filter returns the tasks matching every criterion of f, in input order.
func Filter(tasks []models.Task, f TaskFilter) []models.Task {
	search := strings.ToLower(f.Search)

	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !isNoop(f.Priority) && string(t.Priority) != f.Priority {
			continue
		}
		if !isNoop(f.AssignedTo) && !matchesAssignee(t, f.AssignedTo) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func isNoop(v string) bool {
	return v == "" || v == constants.FilterAll
}

func matchesAssignee(t models.Task, assignedTo string) bool {
	if assignedTo == constants.FilterUnassigned {
		return t.AssignedToID == nil
	}
	if t.AssignedToID == nil {
		return false
	}
	return strconv.FormatUint(*t.AssignedToID, 10) == assignedTo
}
