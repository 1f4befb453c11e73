package services

import (
	"context"

	"github.com/yukikurage/project-collab-api/internal/cache"
	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/repository"
)

// hookedProjects runs afterFind once, right after the next FindByID returns.
type hookedProjects struct {
	repository.ProjectRepository
	afterFind func()
}

func (r *hookedProjects) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	project, err := r.ProjectRepository.FindByID(ctx, id)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return project, err
}

// hookedTasks runs afterFind once, right after the next FindByID returns.
type hookedTasks struct {
	repository.TaskRepository
	afterFind func()
}

func (r *hookedTasks) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	task, err := r.TaskRepository.FindByID(ctx, id)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return task, err
}

func (suite *ServiceTestSuite) TestRemovalDuringLoadIsNotCached() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	project := suite.createProject(owner, nil, member)
	key := cache.ProjectKey(project.ID)

	suite.repos.Projects = &hookedProjects{
		ProjectRepository: suite.repos.Projects,
		afterFind: func() {
			_, err := suite.projects.RemoveMember(suite.ctx, owner, project.ID, member.UserID)
			suite.Require().NoError(err)
		},
	}

	// This read started before the removal committed.
	got, err := suite.projects.Get(suite.ctx, member, project.ID)
	suite.Require().NoError(err)
	suite.Contains(memberIDs(got), member.UserID)
	suite.False(suite.cache.has(key))

	_, err = suite.projects.Get(suite.ctx, member, project.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, err = suite.tasks.Create(suite.ctx, member, project.ID, CreateTaskInput{Title: "after removal"})
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count).Error)
	suite.Zero(count)
}

func (suite *ServiceTestSuite) TestWritesCheckCommittedRoster() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	project := suite.createProject(owner, nil, member)
	key := cache.ProjectKey(project.ID)

	task, err := suite.tasks.Create(suite.ctx, member, project.ID, CreateTaskInput{Title: "Draft"})
	suite.Require().NoError(err)
	stale, err := suite.projects.Get(suite.ctx, member, project.ID)
	suite.Require().NoError(err)

	_, err = suite.projects.RemoveMember(suite.ctx, owner, project.ID, member.UserID)
	suite.Require().NoError(err)

	// Put the pre-removal roster back, as a lagging cache node would serve it.
	gen, err := suite.cache.Generation(suite.ctx, key)
	suite.Require().NoError(err)
	stored, err := suite.cache.SetIfGeneration(suite.ctx, key, gen, stale)
	suite.Require().NoError(err)
	suite.Require().True(stored)

	_, err = suite.tasks.Create(suite.ctx, member, project.ID, CreateTaskInput{Title: "Sneaky"})
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, err = suite.tasks.Update(suite.ctx, member, task.ID, UpdateTaskInput{Title: ptr("Renamed")})
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	suite.requireCode(suite.tasks.Delete(suite.ctx, member, task.ID), apperrors.ErrCodeForbidden)

	_, err = suite.comments.Post(suite.ctx, member, PostCommentInput{ProjectID: project.ID, Text: "still here?"})
	suite.requireCode(err, apperrors.ErrCodeForbidden)
}

func (suite *ServiceTestSuite) TestTaskUpdateAfterProjectDeleteDoesNotResurrect() {
	owner := suite.createUser("owner")
	project := suite.createProject(owner, nil)

	task, err := suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: "Draft"})
	suite.Require().NoError(err)

	suite.repos.Tasks = &hookedTasks{
		TaskRepository: suite.repos.Tasks,
		afterFind: func() {
			suite.Require().NoError(suite.projects.Delete(suite.ctx, owner, project.ID))
		},
	}

	_, err = suite.tasks.Update(suite.ctx, owner, task.ID, UpdateTaskInput{Status: ptr(models.TaskStatusDone)})
	suite.requireCode(err, apperrors.ErrCodeNotFound)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count).Error)
	suite.Zero(count)
}

func (suite *ServiceTestSuite) TestSharedLoadIgnoresCallerCancellation() {
	owner := suite.createUser("owner")
	project := suite.createProject(owner, nil)

	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	got, err := suite.projects.Get(ctx, owner, project.ID)
	suite.Require().NoError(err)
	suite.Equal(project.ID, got.ID)
	suite.True(suite.cache.has(cache.ProjectKey(project.ID)))
}
