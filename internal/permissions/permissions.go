// Package permissions decides whether a caller may perform an action on a
// project. Functions here are pure; they never load anything.
package permissions

import (
	"errors"

	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/identity"
	"github.com/yukikurage/project-collab-api/internal/membership"
	"github.com/yukikurage/project-collab-api/internal/models"
)

type Action string

const (
	ActionReadProject         Action = "read_project"
	ActionUpdateProject       Action = "update_project"
	ActionDeleteProject       Action = "delete_project"
	ActionManageMembers       Action = "manage_members"
	ActionInviteMember        Action = "invite_member"
	ActionInviteTeamLeader    Action = "invite_team_leader"
	ActionViewInvitations     Action = "view_invitations"
	ActionRespondToInvitation Action = "respond_invitation"
	ActionDeleteInvitation    Action = "delete_invitation"
	ActionManageTasks         Action = "manage_tasks"
	ActionReadTaskStats       Action = "read_task_stats"
	ActionReadComments        Action = "read_comments"
	ActionPostComment         Action = "post_comment"
	ActionEditComment         Action = "edit_comment"
	ActionDeleteComment       Action = "delete_comment"
)

// DeniedError is a Forbidden APIError that remembers which action was denied.
type DeniedError struct {
	*apperrors.APIError
	Action Action
}

func (e *DeniedError) Unwrap() error {
	return e.APIError
}

func deny(action Action, message string) error {
	return &DeniedError{
		APIError: apperrors.NewForbidden(message),
		Action:   action,
	}
}

// DeniedAction returns the action of a denial wrapped in err.
func DeniedAction(err error) (Action, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Action, true
	}
	return "", false
}

// Authorize checks the roster-level rules for action.
func Authorize(callerID uint64, r membership.Roster, action Action) error {
	var ok bool
	switch action {
	case ActionReadProject, ActionReadComments, ActionReadTaskStats:
		ok = r.IsReader(callerID)
	case ActionUpdateProject, ActionManageMembers, ActionInviteMember, ActionViewInvitations:
		ok = r.IsOwner(callerID) || r.IsTeamLeader(callerID)
	case ActionDeleteProject, ActionInviteTeamLeader:
		ok = r.IsOwner(callerID)
	case ActionManageTasks, ActionPostComment:
		ok = r.Contains(callerID)
	}
	if !ok {
		return deny(action, messageFor(action))
	}
	return nil
}

// InviteAction returns the action required to send an invitation for role.
func InviteAction(role models.InvitationRole) Action {
	if role == models.InvitationRoleTeamLeader {
		return ActionInviteTeamLeader
	}
	return ActionInviteMember
}

// CanRemoveMember checks that the caller may manage members and that target
// does not hold the owner or team leader slot.
func CanRemoveMember(callerID uint64, r membership.Roster, target uint64) error {
	if err := Authorize(callerID, r, ActionManageMembers); err != nil {
		return err
	}
	if r.IsOwner(target) || r.IsTeamLeader(target) {
		return apperrors.NewConflict(apperrors.ReasonProtectedRole, "Cannot remove the project owner or team leader")
	}
	return nil
}

// CanRespondToInvitation allows only the invited address to accept or decline.
func CanRespondToInvitation(caller identity.Identity, invitationEmail string) error {
	if !caller.SameEmail(invitationEmail) {
		return deny(ActionRespondToInvitation, "This invitation was sent to a different email address")
	}
	return nil
}

// CanDeleteInvitation allows the project owner or the original inviter.
func CanDeleteInvitation(callerID uint64, r membership.Roster, invitedByID uint64) error {
	if r.IsOwner(callerID) || (callerID != 0 && callerID == invitedByID) {
		return nil
	}
	return deny(ActionDeleteInvitation, "Only the project owner or the inviter can delete this invitation")
}

// CanEditComment allows the author only.
func CanEditComment(callerID, authorID uint64) error {
	if callerID != 0 && callerID == authorID {
		return nil
	}
	return deny(ActionEditComment, "Only the author can edit this comment")
}

// CanDeleteComment allows the author, the owner or the team leader.
func CanDeleteComment(callerID uint64, r membership.Roster, authorID uint64) error {
	if (callerID != 0 && callerID == authorID) || r.IsOwner(callerID) || r.IsTeamLeader(callerID) {
		return nil
	}
	return deny(ActionDeleteComment, "Only the author, owner or team leader can delete this comment")
}

func messageFor(action Action) string {
	switch action {
	case ActionUpdateProject:
		return "Only the owner or team leader can update this project"
	case ActionDeleteProject:
		return "Only the owner can delete this project"
	case ActionManageMembers:
		return "Only the owner or team leader can manage members"
	case ActionInviteMember:
		return "Only the owner or team leader can send invitations"
	case ActionInviteTeamLeader:
		return "Only the owner can invite a team leader"
	case ActionViewInvitations:
		return "Only the owner or team leader can view invitations"
	case ActionManageTasks, ActionPostComment:
		return "You are not a member of this project"
	default:
		return "Access denied"
	}
}
