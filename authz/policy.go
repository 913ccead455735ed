package authz

// Predicate is one role relationship evaluated over a resolved chain
type Predicate struct {
	Name  string
	Holds func(r *Requester, c *Chain) bool
}

// Rule is a disjunction: the first predicate that holds allows the operation.
type Rule struct {
	AnyOf  []Predicate
	Reason string // deny reason when nothing holds
}

var (
	anyAuthenticated = Predicate{"authenticated", func(r *Requester, _ *Chain) bool { return r.Authenticated() }}
	admin            = Predicate{"admin", func(r *Requester, _ *Chain) bool { return IsAdmin(r) }}
	teamLeader       = Predicate{"team_leader", func(r *Requester, c *Chain) bool { return IsTeamLeader(r, c.Team) }}
	teamMember       = Predicate{"team_member", func(r *Requester, c *Chain) bool { return IsTeamMember(r, c.Team) }}
	projectCreator   = Predicate{"project_creator", isProjectCreator}
	taskCreator      = Predicate{"task_creator", isTaskCreator}
	taskAssignee     = Predicate{"task_assignee", func(r *Requester, c *Chain) bool { return IsAssignee(r, c.Task) }}
	commentAuthor    = Predicate{"comment_author", isCommentAuthor}
)

func isProjectCreator(r *Requester, c *Chain) bool {
	return c.Project != nil && IsResourceCreator(r, c.Project)
}

func isTaskCreator(r *Requester, c *Chain) bool {
	return c.Task != nil && IsResourceCreator(r, c.Task)
}

func isCommentAuthor(r *Requester, c *Chain) bool {
	return c.Comment != nil && IsResourceCreator(r, c.Comment)
}

// Deny reasons surfaced to callers
const (
	ReasonTeamAccess    = "you do not have access to this team"
	ReasonTeamUpdate    = "only the team leader can edit the team"
	ReasonTeamDelete    = "only the team leader can delete the team"
	ReasonTeamManage    = "only the team leader can manage team members"
	ReasonLeaderRemoval = "the team leader cannot be removed from the team"
	ReasonProjectAccess = "you do not have access to this project"
	ReasonProjectUpdate = "only the team leader or the project creator can edit the project"
	ReasonProjectDelete = "only the team leader or the project creator can delete the project"
	ReasonTaskAccess    = "you do not have access to this task"
	ReasonTaskUpdate    = "only the team leader, the task creator or the assignee can edit the task"
	ReasonTaskDelete    = "only the team leader or the task creator can delete the task"
	ReasonCommentCreate = "you cannot comment on tasks in this team"
	ReasonCommentAccess = "you cannot view comments in this team"
	ReasonCommentUpdate = "only the comment author can edit the comment"
	ReasonCommentDelete = "only the comment author or the team leader can delete the comment"
)

// Policy is the permission table for every resource kind and action.
// Admin satisfies every rule.
var Policy = map[ResourceType]map[Action]Rule{
	ResourceTeam: {
		ActionCreate: {AnyOf: []Predicate{anyAuthenticated}},
		ActionRead:   {AnyOf: []Predicate{teamLeader, teamMember, admin}, Reason: ReasonTeamAccess},
		ActionUpdate: {AnyOf: []Predicate{teamLeader, admin}, Reason: ReasonTeamUpdate},
		ActionDelete: {AnyOf: []Predicate{teamLeader, admin}, Reason: ReasonTeamDelete},
		ActionManage: {AnyOf: []Predicate{teamLeader, admin}, Reason: ReasonTeamManage},
	},
	ResourceProject: {
		ActionCreate: {AnyOf: []Predicate{teamMember, teamLeader, admin}, Reason: ReasonTeamAccess},
		ActionRead:   {AnyOf: []Predicate{teamMember, teamLeader, admin}, Reason: ReasonProjectAccess},
		ActionUpdate: {AnyOf: []Predicate{teamLeader, projectCreator, admin}, Reason: ReasonProjectUpdate},
		ActionDelete: {AnyOf: []Predicate{teamLeader, projectCreator, admin}, Reason: ReasonProjectDelete},
	},
	ResourceTask: {
		ActionCreate: {AnyOf: []Predicate{teamMember, teamLeader, admin}, Reason: ReasonProjectAccess},
		ActionRead:   {AnyOf: []Predicate{teamMember, teamLeader, admin}, Reason: ReasonTaskAccess},
		ActionUpdate: {AnyOf: []Predicate{teamLeader, taskCreator, taskAssignee, admin}, Reason: ReasonTaskUpdate},
		// The assignee may edit a task but not delete it.
		ActionDelete: {AnyOf: []Predicate{teamLeader, taskCreator, admin}, Reason: ReasonTaskDelete},
	},
	ResourceComment: {
		ActionCreate: {AnyOf: []Predicate{teamMember, teamLeader, admin}, Reason: ReasonCommentCreate},
		ActionRead:   {AnyOf: []Predicate{teamMember, teamLeader, admin}, Reason: ReasonCommentAccess},
		ActionUpdate: {AnyOf: []Predicate{commentAuthor, admin}, Reason: ReasonCommentUpdate},
		ActionDelete: {AnyOf: []Predicate{commentAuthor, teamLeader, admin}, Reason: ReasonCommentDelete},
	},
}

// Evaluate applies rule to a resolved chain
func Evaluate(rule Rule, r *Requester, chain *Chain) Decision {
	for _, p := range rule.AnyOf {
		if p.Holds(r, chain) {
			return Decision{Outcome: OutcomeAllow, Chain: chain}
		}
	}
	return Decision{Outcome: OutcomeDeny, Reason: rule.Reason, Chain: chain}
}
