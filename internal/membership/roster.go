// Package membership holds the project roster value and the rules that keep
// its owner and team leader slots consistent with the member set.
//
// A Roster never shares its slices with the caller; every operation returns a
// fresh value.
package membership

import (
	apperrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
)

type Roster struct {
	Owner      uint64
	TeamLeader *uint64
	Members    []uint64
}

// Patch describes a roster change requested by a project update. A nil
// Members slice with MembersSet false means "keep the current members".
type Patch struct {
	TeamLeaderSet bool
	TeamLeader    *uint64
	MembersSet    bool
	Members       []uint64
}

// Empty reports whether the patch touches neither roster field.
func (p Patch) Empty() bool {
	return !p.TeamLeaderSet && !p.MembersSet
}

// New builds a roster from its parts. The owner comes first, then the team
// leader, then members in input order; duplicates are dropped.
func New(owner uint64, teamLeader *uint64, members []uint64) Roster {
	ids := make([]uint64, 0, len(members)+2)
	ids = append(ids, owner)
	if teamLeader != nil {
		ids = append(ids, *teamLeader)
	}
	ids = append(ids, members...)

	return Roster{
		Owner:      owner,
		TeamLeader: copyID(teamLeader),
		Members:    dedupe(ids),
	}
}

// FromProject reads the roster of a loaded project.
func FromProject(p *models.Project) Roster {
	return New(p.OwnerID, p.TeamLeaderID, p.MemberIDs())
}

// Reconcile applies patch to current. The owner and the (possibly new) team
// leader are always re-added so the slots stay inside the member set. Clearing
// the team leader leaves the former leader as a plain member unless the
// patch's member list drops them.
func Reconcile(current Roster, patch Patch) Roster {
	if patch.Empty() {
		return current.clone()
	}

	leader := current.TeamLeader
	if patch.TeamLeaderSet {
		leader = patch.TeamLeader
	}

	members := current.Members
	if patch.MembersSet {
		members = patch.Members
	}

	return New(current.Owner, leader, members)
}

// Add appends userID to the roster.
func (r Roster) Add(userID uint64) (Roster, error) {
	if r.Contains(userID) {
		return r.clone(), apperrors.NewConflict(apperrors.ReasonAlreadyMember, "User is already a member of this project")
	}
	next := r.clone()
	next.Members = append(next.Members, userID)
	return next, nil
}

// Remove drops userID from the roster. The owner and the team leader cannot
// be removed this way.
func (r Roster) Remove(userID uint64) (Roster, error) {
	if r.IsOwner(userID) || r.IsTeamLeader(userID) {
		return r.clone(), apperrors.NewConflict(apperrors.ReasonProtectedRole, "Cannot remove the project owner or team leader")
	}
	if !r.Contains(userID) {
		return r.clone(), apperrors.NewNotFound("User is not a member of this project")
	}

	next := r.clone()
	next.Members = next.Members[:0]
	for _, id := range r.Members {
		if id != userID {
			next.Members = append(next.Members, id)
		}
	}
	return next, nil
}

func (r Roster) Contains(userID uint64) bool {
	for _, id := range r.Members {
		if id == userID {
			return true
		}
	}
	return false
}

func (r Roster) IsOwner(userID uint64) bool {
	return userID != 0 && r.Owner == userID
}

func (r Roster) IsTeamLeader(userID uint64) bool {
	return r.TeamLeader != nil && *r.TeamLeader == userID
}

// IsReader reports whether userID may read the project: any member, the owner
// or the team leader.
func (r Roster) IsReader(userID uint64) bool {
	return r.IsOwner(userID) || r.IsTeamLeader(userID) || r.Contains(userID)
}

// Valid checks the roster invariants: owner and team leader are members and
// no member appears twice.
func (r Roster) Valid() bool {
	if r.Owner == 0 || !r.Contains(r.Owner) {
		return false
	}
	if r.TeamLeader != nil && !r.Contains(*r.TeamLeader) {
		return false
	}
	seen := make(map[uint64]struct{}, len(r.Members))
	for _, id := range r.Members {
		if _, ok := seen[id]; ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

// Diff returns the ids present in next but not in r, and those present in r
// but not in next.
func (r Roster) Diff(next Roster) (added, removed []uint64) {
	for _, id := range next.Members {
		if !r.Contains(id) {
			added = append(added, id)
		}
	}
	for _, id := range r.Members {
		if !next.Contains(id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

func (r Roster) clone() Roster {
	members := make([]uint64, len(r.Members))
	copy(members, r.Members)
	return Roster{
		Owner:      r.Owner,
		TeamLeader: copyID(r.TeamLeader),
		Members:    members,
	}
}

func copyID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func dedupe(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
