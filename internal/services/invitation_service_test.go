package services

import (
	"errors"
	"strings"

	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/identity"
	"github.com/yukikurage/project-collab-api/internal/models"
)

func (suite *ServiceTestSuite) TestInviteAndAcceptTeamLeader() {
	owner := suite.createUser("owner")
	invitee := suite.createUser("invitee")
	project := suite.createProject(owner, nil)

	invitation, err := suite.invitations.Send(suite.ctx, owner, SendInvitationInput{
		ProjectID: project.ID,
		Email:     "  INVITEE@Example.com ",
		Role:      models.InvitationRoleTeamLeader,
	})
	suite.Require().NoError(err)
	suite.Equal("invitee@example.com", invitation.Email)
	suite.Equal(models.InvitationStatusPending, invitation.Status)
	suite.Len(invitation.Token, 64)
	suite.Equal(project.Name, invitation.Project.Name)
	suite.Equal(owner.UserID, invitation.InvitedBy.ID)

	mine, err := suite.invitations.ListMine(suite.ctx, invitee)
	suite.Require().NoError(err)
	suite.Require().Len(mine, 1)
	suite.Equal(invitation.ID, mine[0].ID)

	accepted, joined, err := suite.invitations.Accept(suite.ctx, invitee, invitation.ID)
	suite.Require().NoError(err)
	suite.Equal(models.InvitationStatusAccepted, accepted.Status)
	suite.Require().NotNil(joined.TeamLeader)
	suite.Equal(invitee.UserID, joined.TeamLeader.ID)
	suite.Equal([]uint64{owner.UserID, invitee.UserID}, memberIDs(joined))

	// A second response changes nothing.
	_, _, err = suite.invitations.Accept(suite.ctx, invitee, invitation.ID)
	suite.requireReason(err, apperrors.ReasonAlreadyProcessed)
	_, err = suite.invitations.Decline(suite.ctx, invitee, invitation.ID)
	suite.requireReason(err, apperrors.ReasonAlreadyProcessed)

	got, err := suite.projects.Get(suite.ctx, invitee, project.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{owner.UserID, invitee.UserID}, memberIDs(got))

	mine, err = suite.invitations.ListMine(suite.ctx, invitee)
	suite.Require().NoError(err)
	suite.Empty(mine)

	body := suite.scrapeMetrics()
	suite.Contains(body, `projectcollab_invitation_transitions_total{status="pending"} 1`)
	suite.Contains(body, `projectcollab_invitation_transitions_total{status="accepted"} 1`)
}

func (suite *ServiceTestSuite) TestAcceptMemberInvitationKeepsLeader() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	invitee := suite.createUser("invitee")
	project := suite.createProject(owner, &leader)

	invitation, err := suite.invitations.Send(suite.ctx, leader, SendInvitationInput{
		ProjectID: project.ID,
		Email:     invitee.Email,
		Role:      models.InvitationRoleMember,
	})
	suite.Require().NoError(err)

	_, joined, err := suite.invitations.Accept(suite.ctx, invitee, invitation.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(joined.TeamLeaderID)
	suite.Equal(leader.UserID, *joined.TeamLeaderID)
	suite.Equal([]uint64{owner.UserID, leader.UserID, invitee.UserID}, memberIDs(joined))
}

func (suite *ServiceTestSuite) TestSendInvitation_Rules() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	member := suite.createUser("member")
	invitee := suite.createUser("invitee")
	project := suite.createProject(owner, &leader, member)

	send := func(caller identity.Identity, email string, role models.InvitationRole) error {
		_, err := suite.invitations.Send(suite.ctx, caller, SendInvitationInput{ProjectID: project.ID, Email: email, Role: role})
		return err
	}

	suite.requireCode(send(owner, invitee.Email, "admin"), apperrors.ErrCodeInvalidInput)
	suite.requireCode(send(member, invitee.Email, models.InvitationRoleMember), apperrors.ErrCodeForbidden)
	suite.requireCode(send(leader, invitee.Email, models.InvitationRoleTeamLeader), apperrors.ErrCodeForbidden)
	suite.requireCode(send(owner, "nobody@example.com", models.InvitationRoleMember), apperrors.ErrCodeUserNotFound)
	suite.requireReason(send(owner, member.Email, models.InvitationRoleMember), apperrors.ReasonAlreadyMember)

	suite.Require().NoError(send(leader, invitee.Email, models.InvitationRoleMember))
	suite.requireReason(send(owner, strings.ToUpper(invitee.Email), models.InvitationRoleTeamLeader), apperrors.ReasonDuplicatePending)

	suite.Contains(suite.scrapeMetrics(), `projectcollab_authorization_denials_total{action="invite_team_leader"} 1`)
}

func (suite *ServiceTestSuite) TestRespondToInvitation_WrongEmail() {
	owner := suite.createUser("owner")
	invitee := suite.createUser("invitee")
	stranger := suite.createUser("stranger")
	project := suite.createProject(owner, nil)

	invitation, err := suite.invitations.Send(suite.ctx, owner, SendInvitationInput{ProjectID: project.ID, Email: invitee.Email, Role: models.InvitationRoleMember})
	suite.Require().NoError(err)

	_, _, err = suite.invitations.Accept(suite.ctx, stranger, invitation.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, err = suite.invitations.Decline(suite.ctx, stranger, invitation.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)

	_, _, err = suite.invitations.Accept(suite.ctx, invitee, 9999)
	suite.requireCode(err, apperrors.ErrCodeNotFound)
}

func (suite *ServiceTestSuite) TestDeclineInvitation() {
	owner := suite.createUser("owner")
	invitee := suite.createUser("invitee")
	project := suite.createProject(owner, nil)

	invitation, err := suite.invitations.Send(suite.ctx, owner, SendInvitationInput{ProjectID: project.ID, Email: invitee.Email, Role: models.InvitationRoleMember})
	suite.Require().NoError(err)

	declined, err := suite.invitations.Decline(suite.ctx, invitee, invitation.ID)
	suite.Require().NoError(err)
	suite.Equal(models.InvitationStatusDeclined, declined.Status)

	_, _, err = suite.invitations.Accept(suite.ctx, invitee, invitation.ID)
	suite.requireReason(err, apperrors.ReasonAlreadyProcessed)

	got, err := suite.projects.Get(suite.ctx, owner, project.ID)
	suite.Require().NoError(err)
	suite.Equal([]uint64{owner.UserID}, memberIDs(got))

	// A declined invitation no longer blocks a new one.
	_, err = suite.invitations.Send(suite.ctx, owner, SendInvitationInput{ProjectID: project.ID, Email: invitee.Email, Role: models.InvitationRoleMember})
	suite.NoError(err)
}

func (suite *ServiceTestSuite) TestListProjectInvitations() {
	owner := suite.createUser("owner")
	member := suite.createUser("member")
	a := suite.createUser("a")
	b := suite.createUser("b")
	project := suite.createProject(owner, nil, member)

	first, err := suite.invitations.Send(suite.ctx, owner, SendInvitationInput{ProjectID: project.ID, Email: a.Email, Role: models.InvitationRoleMember})
	suite.Require().NoError(err)
	_, err = suite.invitations.Decline(suite.ctx, a, first.ID)
	suite.Require().NoError(err)
	second, err := suite.invitations.Send(suite.ctx, owner, SendInvitationInput{ProjectID: project.ID, Email: b.Email, Role: models.InvitationRoleMember})
	suite.Require().NoError(err)

	list, err := suite.invitations.ListByProject(suite.ctx, owner, project.ID)
	suite.Require().NoError(err)
	suite.Require().Len(list, 2)
	suite.Equal(second.ID, list[0].ID)
	suite.Equal(models.InvitationStatusDeclined, list[1].Status)

	_, err = suite.invitations.ListByProject(suite.ctx, member, project.ID)
	suite.requireCode(err, apperrors.ErrCodeForbidden)
}

func (suite *ServiceTestSuite) TestDeleteInvitation() {
	owner := suite.createUser("owner")
	leader := suite.createUser("leader")
	invitee := suite.createUser("invitee")
	project := suite.createProject(owner, &leader)

	send := func(caller identity.Identity) uint64 {
		invitation, err := suite.invitations.Send(suite.ctx, caller, SendInvitationInput{ProjectID: project.ID, Email: invitee.Email, Role: models.InvitationRoleMember})
		suite.Require().NoError(err)
		return invitation.ID
	}

	byOwner := send(owner)
	suite.requireCode(suite.invitations.Delete(suite.ctx, leader, byOwner), apperrors.ErrCodeForbidden)
	suite.requireCode(suite.invitations.Delete(suite.ctx, invitee, byOwner), apperrors.ErrCodeForbidden)
	suite.Require().NoError(suite.invitations.Delete(suite.ctx, owner, byOwner))

	byLeader := send(leader)
	suite.Require().NoError(suite.invitations.Delete(suite.ctx, leader, byLeader))
	suite.requireCode(suite.invitations.Delete(suite.ctx, leader, byLeader), apperrors.ErrCodeNotFound)
}

func (suite *ServiceTestSuite) TestSendInvitation_TokenFailureRollsBack() {
	owner := suite.createUser("owner")
	invitee := suite.createUser("invitee")
	project := suite.createProject(owner, nil)
	suite.invitations.newToken = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := suite.invitations.Send(suite.ctx, owner, SendInvitationInput{ProjectID: project.ID, Email: invitee.Email, Role: models.InvitationRoleMember})
	suite.Require().Error(err)
	suite.Empty(apperrors.Code(err))
	suite.Contains(err.Error(), "entropy exhausted")

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Invitation{}).Count(&count).Error)
	suite.Zero(count)
}
