package services

import (
	"time"

	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/workflow"
)

func taskFilter() workflow.TaskFilter {
	return workflow.TaskFilter{}
}

func (suite *ServiceTestSuite) TestCreateTask_Defaults() {
	owner := suite.createUser("owner")
	project := suite.createProject(owner, nil)

	task, err := suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: " Write docs "})
	suite.Require().NoError(err)

	suite.Equal("Write docs", task.Title)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Nil(task.DueDate)
	suite.Nil(task.AssignedToID)
}

func (suite *ServiceTestSuite) TestCreateTask_Validation() {
	owner := suite.createUser("owner")
	outsider := suite.createUser("outsider")
	project := suite.createProject(owner, nil)

	_, err := suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: ""})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: "A", Status: "blocked"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: "A", Priority: "urgent"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: "A", AssignedToID: ptr(uint64(555))})
	suite.requireCode(err, apperrors.ErrCodeUserNotFound)

	_, err = suite.tasks.Create(suite.ctx, outsider, project.ID, CreateTaskInput{Title: "A"})
	suite.requireCode(err, apperrors.ErrCodeForbidden)
}

func (suite *ServiceTestSuite) TestUpdateTask_PartialAndClear() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	project := suite.createProject(owner, nil, member)

	due := day(3)
	task, err := suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{
		Title:        "Ship",
		Description:  "v1",
		DueDate:      &due,
		AssignedToID: ptr(member.UserID),
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(task.AssignedTo)
	suite.Equal(member.UserID, task.AssignedTo.ID)

	// Any status moves to any status.
	updated, err := suite.tasks.Update(suite.ctx, member, task.ID, UpdateTaskInput{Status: ptr(models.TaskStatusDone)})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, updated.Status)
	suite.Equal("Ship", updated.Title)
	suite.NotNil(updated.DueDate)

	updated, err = suite.tasks.Update(suite.ctx, member, task.ID, UpdateTaskInput{
		Status:        ptr(models.TaskStatusTodo),
		ClearDueDate:  true,
		ClearAssignee: true,
	})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, updated.Status)
	suite.Nil(updated.DueDate)
	suite.Nil(updated.AssignedToID)
	suite.Nil(updated.AssignedTo)
	suite.Equal("v1", updated.Description)

	_, err = suite.tasks.Update(suite.ctx, member, task.ID, UpdateTaskInput{Title: ptr("  ")})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)
}

func (suite *ServiceTestSuite) TestTaskAccessRequiresMembership() {
	owner := suite.createUser("owner")
	outsider := suite.createUser("outsider")
	project := suite.createProject(owner, nil)

	task, err := suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: "Ship"})
	suite.Require().NoError(err)

	_, err = suite.tasks.Get(suite.ctx, outsider, task.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, err = suite.tasks.Update(suite.ctx, outsider, task.ID, UpdateTaskInput{Title: ptr("x")})
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	err = suite.tasks.Delete(suite.ctx, outsider, task.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	suite.Require().NoError(suite.tasks.Delete(suite.ctx, owner, task.ID))

	_, err = suite.tasks.Get(suite.ctx, owner, task.ID)
	suite.requireCode(err, apperrors.ErrCodeNotFound)
}

func (suite *ServiceTestSuite) TestListTasks_Filter() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	project := suite.createProject(owner, nil, member)

	create := func(title, description string, priority models.TaskPriority, assignee *uint64) {
		_, err := suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{
			Title:        title,
			Description:  description,
			Priority:     priority,
			AssignedToID: assignee,
		})
		suite.Require().NoError(err)
	}
	create("Fix login bug", "", models.TaskPriorityHigh, ptr(member.UserID))
	create("Write release notes", "mention the BUG fix", models.TaskPriorityHigh, nil)
	create("Refactor", "", models.TaskPriorityLow, nil)

	all, err := suite.tasks.ListByProject(suite.ctx, member, project.ID, workflow.TaskFilter{Priority: "all"})
	suite.Require().NoError(err)
	suite.Len(all, 3)
	suite.Equal("Fix login bug", all[0].Title)

	found, err := suite.tasks.ListByProject(suite.ctx, member, project.ID, workflow.TaskFilter{
		Priority:   "high",
		Search:     "bug",
		AssignedTo: "unassigned",
	})
	suite.Require().NoError(err)
	suite.Require().Len(found, 1)
	suite.Equal("Write release notes", found[0].Title)

	_, err = suite.tasks.ListByProject(suite.ctx, member, project.ID, workflow.TaskFilter{Priority: "urgent"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.tasks.ListByProject(suite.ctx, member, project.ID, workflow.TaskFilter{AssignedTo: "someone"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)
}

func (suite *ServiceTestSuite) TestTaskStatistics() {
	owner := suite.createUser("owner")
	project := suite.createProject(owner, nil)
	suite.tasks.now = func() time.Time { return day(0) }

	past := day(-1)
	for _, input := range []CreateTaskInput{
		{Title: "a", Status: models.TaskStatusDone, DueDate: &past},
		{Title: "b", Status: models.TaskStatusDone},
		{Title: "c", Status: models.TaskStatusInProgress, DueDate: &past},
		{Title: "d", Status: models.TaskStatusTodo},
	} {
		_, err := suite.tasks.Create(suite.ctx, owner, project.ID, input)
		suite.Require().NoError(err)
	}

	stats, err := suite.tasks.Statistics(suite.ctx, owner, project.ID)
	suite.Require().NoError(err)
	suite.Equal(workflow.Statistics{
		Total:          4,
		Completed:      2,
		InProgress:     1,
		Todo:           1,
		Overdue:        1,
		CompletionRate: 50,
	}, stats)
}
