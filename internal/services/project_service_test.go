package services

import (
	"github.com/yukikurage/project-collab-api/internal/cache"
	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/identity"
	"github.com/yukikurage/project-collab-api/internal/models"
)

func (suite *ServiceTestSuite) TestCreateProject_DeduplicatesRoster() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	x := suite.createUser("x")

	project, err := suite.projects.Create(suite.ctx, owner, CreateProjectInput{
		Name:         "  Apollo  ",
		TeamLeaderID: ptr(leader.UserID),
		MemberIDs:    []uint64{owner.UserID, x.UserID, x.UserID, leader.UserID},
	})
	suite.Require().NoError(err)

	suite.Equal("Apollo", project.Name)
	suite.Equal(models.ProjectStatusActive, project.Status)
	suite.Equal(owner.UserID, project.Owner.ID)
	suite.Require().NotNil(project.TeamLeader)
	suite.Equal(leader.UserID, project.TeamLeader.ID)
	suite.Equal([]uint64{owner.UserID, leader.UserID, x.UserID}, memberIDs(project))
}

func (suite *ServiceTestSuite) TestCreateProject_Validation() {
	owner := suite.createUser("owner")

	_, err := suite.projects.Create(suite.ctx, owner, CreateProjectInput{Name: "   "})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	_, err = suite.projects.Create(suite.ctx, owner, CreateProjectInput{Name: "A", Status: "paused"})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)
	suite.Equal(apperrors.ReasonInvalidEnum, apperrors.ReasonOf(err))

	_, err = suite.projects.Create(suite.ctx, owner, CreateProjectInput{Name: "A", MemberIDs: []uint64{999}})
	suite.requireCode(err, apperrors.ErrCodeUserNotFound)
}

func (suite *ServiceTestSuite) TestUnauthenticatedCallerIsRejected() {
	owner := suite.createUser("owner")
	project := suite.createProject(owner, nil)
	var anonymous identity.Identity

	_, err := suite.projects.Get(suite.ctx, anonymous, project.ID)
	suite.requireCode(err, apperrors.ErrCodeUnauthorized)

	_, err = suite.projects.Create(suite.ctx, anonymous, CreateProjectInput{Name: "A"})
	suite.requireCode(err, apperrors.ErrCodeUnauthorized)

	_, err = suite.tasks.ListByProject(suite.ctx, anonymous, project.ID, taskFilter())
	suite.requireCode(err, apperrors.ErrCodeUnauthorized)

	_, err = suite.invitations.ListMine(suite.ctx, anonymous)
	suite.requireCode(err, apperrors.ErrCodeUnauthorized)

	_, _, err = suite.comments.ListByProject(suite.ctx, anonymous, project.ID, nil)
	suite.requireCode(err, apperrors.ErrCodeUnauthorized)
}

func (suite *ServiceTestSuite) TestGetProject_RequiresReader() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	outsider := suite.createUser("outsider")
	project := suite.createProject(owner, nil, member)

	got, err := suite.projects.Get(suite.ctx, member, project.ID)
	suite.Require().NoError(err)
	suite.Equal(project.ID, got.ID)

	_, err = suite.projects.Get(suite.ctx, outsider, project.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, err = suite.projects.Get(suite.ctx, owner, 9999)
	suite.requireCode(err, apperrors.ErrCodeNotFound)

	suite.Contains(suite.scrapeMetrics(), `projectcollab_authorization_denials_total{action="read_project"} 1`)
}

func (suite *ServiceTestSuite) TestListMine() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	outsider := suite.createUser("outsider")
	suite.createProject(owner, nil, member)
	suite.createProject(owner, nil)

	mine, err := suite.projects.ListMine(suite.ctx, owner)
	suite.Require().NoError(err)
	suite.Len(mine, 2)

	mine, err = suite.projects.ListMine(suite.ctx, member)
	suite.Require().NoError(err)
	suite.Len(mine, 1)

	mine, err = suite.projects.ListMine(suite.ctx, outsider)
	suite.Require().NoError(err)
	suite.Empty(mine)
}

func (suite *ServiceTestSuite) TestUpdateProject_ClearingLeaderKeepsMember() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	project := suite.createProject(owner, &leader)

	updated, err := suite.projects.Update(suite.ctx, owner, project.ID, UpdateProjectInput{
		Name:          ptr("Apollo II"),
		TeamLeaderSet: true,
	})
	suite.Require().NoError(err)

	suite.Equal("Apollo II", updated.Name)
	suite.Nil(updated.TeamLeader)
	suite.Nil(updated.TeamLeaderID)
	suite.Equal([]uint64{owner.UserID, leader.UserID}, memberIDs(updated))
}

func (suite *ServiceTestSuite) TestUpdateProject_ReconcilesRoster() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	x := suite.createUser("x")
	y := suite.createUser("y")
	project := suite.createProject(owner, &leader, x)

	// Dropping owner and leader from the list re-adds them.
	updated, err := suite.projects.Update(suite.ctx, leader, project.ID, UpdateProjectInput{
		MembersSet: true,
		MemberIDs:  []uint64{y.UserID},
	})
	suite.Require().NoError(err)
	suite.ElementsMatch([]uint64{owner.UserID, leader.UserID, y.UserID}, memberIDs(updated))

	// A new leader joins the roster.
	updated, err = suite.projects.Update(suite.ctx, owner, project.ID, UpdateProjectInput{
		TeamLeaderSet: true,
		TeamLeaderID:  ptr(x.UserID),
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated.TeamLeaderID)
	suite.Equal(x.UserID, *updated.TeamLeaderID)
	suite.ElementsMatch([]uint64{owner.UserID, leader.UserID, y.UserID, x.UserID}, memberIDs(updated))
}

func (suite *ServiceTestSuite) TestUpdateProject_FailuresLeaveStateUnchanged() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	project := suite.createProject(owner, nil, member)

	_, err := suite.projects.Update(suite.ctx, member, project.ID, UpdateProjectInput{Name: ptr("Hijack")})
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, err = suite.projects.Update(suite.ctx, owner, project.ID, UpdateProjectInput{
		Name:       ptr("Renamed"),
		MembersSet: true,
		MemberIDs:  []uint64{member.UserID, 4242},
	})
	suite.requireCode(err, apperrors.ErrCodeUserNotFound)

	_, err = suite.projects.Update(suite.ctx, owner, project.ID, UpdateProjectInput{Status: ptr(models.ProjectStatus("paused"))})
	suite.requireCode(err, apperrors.ErrCodeInvalidInput)

	got, err := suite.projects.Get(suite.ctx, owner, project.ID)
	suite.Require().NoError(err)
	suite.Equal("Apollo", got.Name)
	suite.Equal([]uint64{owner.UserID, member.UserID}, memberIDs(got))
}

func (suite *ServiceTestSuite) TestAddMember() {
	owner := suite.createUser("owner")
	x := suite.createUser("x")
	project := suite.createProject(owner, nil)

	updated, err := suite.projects.AddMember(suite.ctx, owner, project.ID, x.UserID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{owner.UserID, x.UserID}, memberIDs(updated))

	_, err = suite.projects.AddMember(suite.ctx, owner, project.ID, x.UserID)
	suite.requireReason(err, apperrors.ReasonAlreadyMember)

	_, err = suite.projects.AddMember(suite.ctx, owner, project.ID, 777)
	suite.requireCode(err, apperrors.ErrCodeUserNotFound)

	_, err = suite.projects.AddMember(suite.ctx, x, project.ID, owner.UserID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)
}

func (suite *ServiceTestSuite) TestRemoveMember() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	x := suite.createUser("x")
	outsider := suite.createUser("outsider")
	project := suite.createProject(owner, &leader, x)

	_, err := suite.projects.RemoveMember(suite.ctx, owner, project.ID, owner.UserID)
	suite.requireReason(err, apperrors.ReasonProtectedRole)

	_, err = suite.projects.RemoveMember(suite.ctx, owner, project.ID, leader.UserID)
	suite.requireReason(err, apperrors.ReasonProtectedRole)

	_, err = suite.projects.RemoveMember(suite.ctx, owner, project.ID, outsider.UserID)
	suite.requireCode(err, apperrors.ErrCodeNotFound)

	_, err = suite.projects.RemoveMember(suite.ctx, x, project.ID, x.UserID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	updated, err := suite.projects.RemoveMember(suite.ctx, leader, project.ID, x.UserID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{owner.UserID, leader.UserID}, memberIDs(updated))
}

func (suite *ServiceTestSuite) TestDeleteProject_Cascades() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	invitee := suite.createUser("invitee")
	project := suite.createProject(owner, &leader)

	_, err := suite.tasks.Create(suite.ctx, owner, project.ID, CreateTaskInput{Title: "Launch"})
	suite.Require().NoError(err)
	_, err = suite.comments.Post(suite.ctx, owner, PostCommentInput{ProjectID: project.ID, Text: "hello"})
	suite.Require().NoError(err)
	_, err = suite.invitations.Send(suite.ctx, owner, SendInvitationInput{ProjectID: project.ID, Email: invitee.Email, Role: models.InvitationRoleMember})
	suite.Require().NoError(err)

	err = suite.projects.Delete(suite.ctx, leader, project.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	suite.Require().NoError(suite.projects.Delete(suite.ctx, owner, project.ID))

	_, err = suite.projects.Get(suite.ctx, owner, project.ID)
	suite.requireCode(err, apperrors.ErrCodeNotFound)

	for _, model := range []interface{}{&models.Task{}, &models.Comment{}, &models.Invitation{}, &models.ProjectMember{}} {
		var count int64
		suite.Require().NoError(suite.db.Model(model).Where("project_id = ?", project.ID).Count(&count).Error)
		suite.Zero(count)
	}
}

func (suite *ServiceTestSuite) TestProjectCacheIsInvalidatedOnWrite() {
	owner := suite.createUser("owner")
	x := suite.createUser("x")
	project := suite.createProject(owner, nil)
	key := cache.ProjectKey(project.ID)

	_, err := suite.projects.Get(suite.ctx, owner, project.ID)
	suite.Require().NoError(err)
	suite.True(suite.cache.has(key))

	_, err = suite.projects.AddMember(suite.ctx, owner, project.ID, x.UserID)
	suite.Require().NoError(err)
	suite.False(suite.cache.has(key))

	// The new member can read through a fresh load.
	got, err := suite.projects.Get(suite.ctx, x, project.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{owner.UserID, x.UserID}, memberIDs(got))
	suite.True(suite.cache.has(key))
}
