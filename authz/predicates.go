package authz

import "github.com/Stachugit-s/teamtaskmanager2/db"

// Owned is implemented by records that remember who created them.
// For comments the creator is the author.
type Owned interface {
	CreatorID() string
}

// IsAdmin checks the global admin role
func IsAdmin(r *Requester) bool {
	return r.Authenticated() && r.Role == db.UserRoleAdmin
}

// IsTeamLeader checks whether r leads team
func IsTeamLeader(r *Requester, team *db.Team) bool {
	return r.Authenticated() && team != nil && team.LeaderID == r.ID
}

// IsTeamMember checks the member set only. A leader missing from the set is
// not treated as a member here.
func IsTeamMember(r *Requester, team *db.Team) bool {
	return r.Authenticated() && team != nil && team.HasMember(r.ID)
}

// IsTeamVisible is the read scope of a team: its leader and its members.
// Team reads, list scopes and the dashboard all use it.
func IsTeamVisible(r *Requester, team *db.Team) bool {
	return IsTeamLeader(r, team) || IsTeamMember(r, team)
}

// IsResourceCreator checks created_by on projects and tasks and the author on comments
func IsResourceCreator(r *Requester, resource Owned) bool {
	if !r.Authenticated() || resource == nil {
		return false
	}
	return resource.CreatorID() == r.ID
}

// IsAssignee checks task.assigned_to; an unassigned task has no assignee
func IsAssignee(r *Requester, task *db.Task) bool {
	return r.Authenticated() && task != nil && task.AssignedTo != "" && task.AssignedTo == r.ID
}

// VisibleTeams filters teams down to the ones r may see through membership.
func VisibleTeams(r *Requester, teams []db.Team) []db.Team {
	visible := make([]db.Team, 0, len(teams))
	for i := range teams {
		if IsTeamVisible(r, &teams[i]) {
			visible = append(visible, teams[i])
		}
	}
	return visible
}
