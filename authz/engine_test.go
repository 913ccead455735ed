package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stachugit-s/teamtaskmanager2/db"
)

func authorize(t *testing.T, e *Engine, r *Requester, action Action, target Target) Decision {
	t.Helper()
	d, err := e.Authorize(context.Background(), r, action, target)
	require.NoError(t, err)
	return d
}

func TestEngine_PolicyTable(t *testing.T) {
	engine := NewEngine(fixture())

	team := Target{Kind: ResourceTeam, ID: "X"}
	project := Target{Kind: ResourceProject, ID: "P"}
	task := Target{Kind: ResourceTask, ID: "K"}
	comment := Target{Kind: ResourceComment, ID: "c"}

	tests := []struct {
		name      string
		requester *Requester
		action    Action
		target    Target
		want      Outcome
	}{
		// Team
		{"anyone creates a team", user("M"), ActionCreate, Target{Kind: ResourceTeam}, OutcomeAllow},
		{"member reads team", user("B"), ActionRead, team, OutcomeAllow},
		{"outsider reads team", user("M"), ActionRead, team, OutcomeDeny},
		{"admin reads team", adminRequester("root"), ActionRead, team, OutcomeAllow},
		{"member updates team", user("A"), ActionUpdate, team, OutcomeDeny},
		{"leader updates team", user("L"), ActionUpdate, team, OutcomeAllow},
		{"leader deletes team", user("L"), ActionDelete, team, OutcomeAllow},
		{"member manages team", user("A"), ActionManage, team, OutcomeDeny},
		{"admin manages team", adminRequester("root"), ActionManage, team, OutcomeAllow},

		// Project
		{"member creates project", user("B"), ActionCreate, Target{Kind: ResourceProject, ParentID: "X"}, OutcomeAllow},
		{"outsider creates project", user("M"), ActionCreate, Target{Kind: ResourceProject, ParentID: "X"}, OutcomeDeny},
		{"member lists projects", user("B"), ActionRead, Target{Kind: ResourceProject, ParentID: "X"}, OutcomeAllow},
		{"member updates project", user("B"), ActionUpdate, project, OutcomeDeny},
		{"creator deletes project", user("L"), ActionDelete, project, OutcomeAllow},

		// Task
		{"member creates task", user("B"), ActionCreate, Target{Kind: ResourceTask, ParentID: "P"}, OutcomeAllow},
		{"member reads task", user("B"), ActionRead, task, OutcomeAllow},
		{"outsider reads task", user("M"), ActionRead, task, OutcomeDeny},
		{"assignee updates task", user("C"), ActionUpdate, task, OutcomeAllow},
		{"assignee deletes task", user("C"), ActionDelete, task, OutcomeDeny},
		{"creator deletes task", user("A"), ActionDelete, task, OutcomeAllow},
		{"plain member updates task", user("B"), ActionUpdate, task, OutcomeDeny},

		// Comment
		{"member comments", user("B"), ActionCreate, Target{Kind: ResourceComment, ParentID: "K"}, OutcomeAllow},
		{"outsider comments", user("M"), ActionCreate, Target{Kind: ResourceComment, ParentID: "K"}, OutcomeDeny},
		{"member lists comments", user("B"), ActionRead, Target{Kind: ResourceComment, ParentID: "K"}, OutcomeAllow},
		{"author edits comment", user("C"), ActionUpdate, comment, OutcomeAllow},
		{"leader edits comment", user("L"), ActionUpdate, comment, OutcomeDeny},
		{"admin edits comment", adminRequester("root"), ActionUpdate, comment, OutcomeAllow},

		// Existence and identity
		{"missing project", user("L"), ActionRead, Target{Kind: ResourceProject, ID: "nope"}, OutcomeNotFound},
		{"create under missing team", user("L"), ActionCreate, Target{Kind: ResourceProject, ParentID: "nope"}, OutcomeNotFound},
		{"no requester", nil, ActionRead, project, OutcomeUnauthenticated},
		{"empty requester", &Requester{}, ActionRead, project, OutcomeUnauthenticated},
		{"no requester on missing entity", nil, ActionRead, Target{Kind: ResourceProject, ID: "nope"}, OutcomeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := authorize(t, engine, tt.requester, tt.action, tt.target)
			assert.Equal(t, tt.want, d.Outcome)
			if tt.want == OutcomeDeny {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestEngine_AdminSatisfiesEveryRule(t *testing.T) {
	engine := NewEngine(fixture())
	root := adminRequester("root")

	targets := map[ResourceType]Target{
		ResourceTeam:    {Kind: ResourceTeam, ID: "X"},
		ResourceProject: {Kind: ResourceProject, ID: "P"},
		ResourceTask:    {Kind: ResourceTask, ID: "K"},
		ResourceComment: {Kind: ResourceComment, ID: "c"},
	}

	for kind, actions := range Policy {
		for action := range actions {
			if action == ActionCreate {
				continue
			}
			d := authorize(t, engine, root, action, targets[kind])
			assert.True(t, d.Allowed(), "%s %s", action, kind)
		}
	}
}

func TestEngine_InvalidTarget(t *testing.T) {
	engine := NewEngine(fixture())
	ctx := context.Background()

	tests := []struct {
		name   string
		action Action
		target Target
	}{
		{"update without id", ActionUpdate, Target{Kind: ResourceTask}},
		{"create with id", ActionCreate, Target{Kind: ResourceTask, ID: "K", ParentID: "P"}},
		{"create without parent", ActionCreate, Target{Kind: ResourceProject}},
		{"team read without id", ActionRead, Target{Kind: ResourceTeam, ParentID: "X"}},
		{"manage a project", ActionManage, Target{Kind: ResourceProject, ID: "P"}},
		{"unknown kind", ActionRead, Target{Kind: "board", ID: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Authorize(ctx, user("L"), tt.action, tt.target)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestEngine_StoreFailureIsAnError(t *testing.T) {
	store := fixture()
	store.fail = errStoreDown

	_, err := NewEngine(store).Authorize(context.Background(), user("L"), ActionRead, Target{Kind: ResourceTeam, ID: "X"})
	assert.ErrorIs(t, err, errStoreDown)
}

// Scenario A: L creates team X, is leader and sole member, creates project P, may update it.
func TestEngine_LeaderCreatesTeamAndProject(t *testing.T) {
	store := NewMockEntityStore()
	engine := NewEngine(store)
	leader := user("L")

	require.True(t, authorize(t, engine, leader, ActionCreate, Target{Kind: ResourceTeam}).Allowed())
	team := &db.Team{ID: "X", LeaderID: leader.ID, MemberIDs: []string{leader.ID}}
	store.AddTeam(team)

	assert.True(t, IsTeamLeader(leader, team))
	assert.True(t, IsTeamMember(leader, team))

	require.True(t, authorize(t, engine, leader, ActionCreate, Target{Kind: ResourceProject, ParentID: "X"}).Allowed())
	store.AddProject(&db.Project{ID: "P", TeamID: "X", CreatedBy: leader.ID})

	assert.Equal(t, OutcomeAllow, authorize(t, engine, leader, ActionUpdate, Target{Kind: ResourceProject, ID: "P"}).Outcome)
}

// Scenario B: outsider M cannot read P.
func TestEngine_OutsiderCannotReadProject(t *testing.T) {
	d := authorize(t, NewEngine(fixture()), user("M"), ActionRead, Target{Kind: ResourceProject, ID: "P"})
	assert.Equal(t, OutcomeDeny, d.Outcome)
	assert.Equal(t, ReasonProjectAccess, d.Reason)
	assert.ErrorIs(t, d.Err(), ErrForbidden)
}

// Scenario C: plain member B may not delete A's task K, leader L may.
func TestEngine_TaskDeleteByMemberAndLeader(t *testing.T) {
	engine := NewEngine(fixture())
	target := Target{Kind: ResourceTask, ID: "K"}

	assert.Equal(t, OutcomeDeny, authorize(t, engine, user("B"), ActionDelete, target).Outcome)
	assert.Equal(t, OutcomeAllow, authorize(t, engine, user("L"), ActionDelete, target).Outcome)
}

// Scenario D: leader L may delete C's comment, plain member B may not.
func TestEngine_CommentDeleteByLeaderAndMember(t *testing.T) {
	engine := NewEngine(fixture())
	target := Target{Kind: ResourceComment, ID: "c"}

	assert.Equal(t, OutcomeAllow, authorize(t, engine, user("L"), ActionDelete, target).Outcome)
	assert.Equal(t, OutcomeDeny, authorize(t, engine, user("B"), ActionDelete, target).Outcome)
	assert.Equal(t, OutcomeAllow, authorize(t, engine, user("C"), ActionDelete, target).Outcome)
}

func TestEngine_TaskDecisionsImplyPredicates(t *testing.T) {
	store := fixture()
	engine := NewEngine(store)
	target := Target{Kind: ResourceTask, ID: "K"}
	task := store.tasks["K"]
	team := store.teams["X"]

	requesters := []*Requester{user("L"), user("A"), user("B"), user("C"), user("M"), adminRequester("root")}
	for _, r := range requesters {
		if authorize(t, engine, r, ActionDelete, target).Allowed() {
			assert.True(t, IsTeamLeader(r, team) || IsResourceCreator(r, task) || IsAdmin(r), "delete allowed for %s", r.ID)
		}
		if authorize(t, engine, r, ActionUpdate, target).Allowed() {
			assert.True(t, IsTeamLeader(r, team) || IsResourceCreator(r, task) || IsAssignee(r, task) || IsAdmin(r), "update allowed for %s", r.ID)
		}
	}

	// assignee-only user
	assert.False(t, authorize(t, engine, user("C"), ActionDelete, target).Allowed())
}

func TestEngine_Idempotent(t *testing.T) {
	engine := NewEngine(fixture())
	targets := []Target{
		{Kind: ResourceTask, ID: "K"},
		{Kind: ResourceComment, ID: "c"},
		{Kind: ResourceProject, ID: "nope"},
	}

	for _, target := range targets {
		for _, r := range []*Requester{user("L"), user("B"), user("M"), nil} {
			first := authorize(t, engine, r, ActionDelete, target)
			second := authorize(t, engine, r, ActionDelete, target)
			assert.Equal(t, first.Outcome, second.Outcome)
			assert.Equal(t, first.Reason, second.Reason)
		}
	}
}

func TestEngine_AuthorizeMemberRemoval(t *testing.T) {
	store := fixture()
	// root leads team Y
	store.AddTeam(&db.Team{ID: "Y", LeaderID: "root", MemberIDs: []string{"root", "A"}})
	engine := NewEngine(store)
	ctx := context.Background()

	tests := []struct {
		name      string
		requester *Requester
		teamID    string
		userID    string
		want      Outcome
		reason    string
	}{
		{"leader removes member", user("L"), "X", "A", OutcomeAllow, ""},
		{"member removes member", user("B"), "X", "A", OutcomeDeny, ReasonTeamManage},
		{"leader removes self", user("L"), "X", "L", OutcomeDeny, ReasonLeaderRemoval},
		{"admin passes the gate", adminRequester("root"), "X", "B", OutcomeAllow, ""},
		{"admin removes leader", adminRequester("root"), "X", "L", OutcomeDeny, ReasonLeaderRemoval},
		{"admin leader removes self", adminRequester("root"), "Y", "root", OutcomeDeny, ReasonLeaderRemoval},
		{"missing team", user("L"), "nope", "A", OutcomeNotFound, ""},
		{"no requester", nil, "X", "A", OutcomeUnauthenticated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := engine.AuthorizeMemberRemoval(ctx, tt.requester, tt.teamID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Outcome)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestEngine_Observer(t *testing.T) {
	engine := NewEngine(fixture())
	observer := &recordingObserver{}
	engine.SetObserver(observer)

	authorize(t, engine, user("L"), ActionRead, Target{Kind: ResourceTeam, ID: "X"})
	authorize(t, engine, user("M"), ActionRead, Target{Kind: ResourceTeam, ID: "X"})
	_, err := engine.AuthorizeMemberRemoval(context.Background(), user("L"), "X", "L")
	require.NoError(t, err)

	require.Len(t, observer.decisions, 3)
	assert.Equal(t, OutcomeAllow, observer.decisions[0].Outcome)
	assert.Equal(t, OutcomeDeny, observer.decisions[1].Outcome)
	assert.Equal(t, ReasonLeaderRemoval, observer.decisions[2].Reason)
}

func TestEngine_ObserverFanOut(t *testing.T) {
	engine := NewEngine(fixture())
	first, second := &recordingObserver{}, &recordingObserver{}
	engine.SetObserver(first, nil, second)

	authorize(t, engine, user("M"), ActionDelete, Target{Kind: ResourceTeam, ID: "X"})

	require.Len(t, first.decisions, 1)
	require.Len(t, second.decisions, 1)
	assert.Equal(t, ReasonTeamDelete, second.decisions[0].Reason)

	engine.SetObserver()
	authorize(t, engine, user("L"), ActionRead, Target{Kind: ResourceTeam, ID: "X"})
	assert.Len(t, first.decisions, 1)
}

func TestDecision_Err(t *testing.T) {
	assert.NoError(t, Decision{Outcome: OutcomeAllow}.Err())
	assert.ErrorIs(t, Decision{Outcome: OutcomeUnauthenticated}.Err(), ErrUnauthenticated)
	assert.ErrorIs(t, Decision{Outcome: OutcomeNotFound}.Err(), ErrNotFound)

	err := Decision{Outcome: OutcomeDeny, Reason: ReasonTaskDelete}.Err()
	assert.ErrorIs(t, err, ErrForbidden)
	assert.EqualError(t, err, ReasonTaskDelete)

	var denied *DeniedError
	assert.True(t, errors.As(err, &denied))

	missing := Decision{Outcome: OutcomeNotFound, Missing: &NotFoundError{Kind: ResourceProject, Integrity: true}}.Err()
	assert.ErrorIs(t, missing, ErrIntegrity)
	assert.EqualError(t, missing, "project does not exist")
}

func TestRequesterContext(t *testing.T) {
	ctx := context.Background()
	_, ok := RequesterFromContext(ctx)
	assert.False(t, ok)

	ctx = WithRequester(ctx, user("L"))
	r, ok := RequesterFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "L", r.ID)
}
