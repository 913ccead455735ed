package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// testEnv is a memory store with the users every scenario needs
type testEnv struct {
	store    *store.Store
	services *Services
	users    map[string]*authz.Requester
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := store.NewMemoryStore()
	tokens := NewTokenService("test-secret", time.Hour)
	env := &testEnv{
		store:    s,
		services: New(s, authz.NewEngine(s), tokens, quietLogger()),
		users:    make(map[string]*authz.Requester),
	}

	for _, u := range []struct {
		id   string
		role db.UserRole
	}{
		{"L", db.UserRoleUser},
		{"A", db.UserRoleUser},
		{"B", db.UserRoleUser},
		{"C", db.UserRoleUser},
		{"M", db.UserRoleUser},
		{"root", db.UserRoleAdmin},
	} {
		user := &db.User{ID: u.id, Name: "User " + u.id, LastName: "Test", Email: u.id + "@example.com", PasswordHash: "x", Role: u.role}
		require.NoError(t, s.Users.Create(context.Background(), user))
		env.users[u.id] = &authz.Requester{ID: u.id, Role: u.role, Name: user.Name, Email: user.Email}
	}
	return env
}

// teamX creates team X led by L with members A, B and C
func (env *testEnv) teamX(t *testing.T) *db.TeamView {
	t.Helper()
	ctx := context.Background()
	team, err := env.services.Teams.CreateTeam(ctx, env.users["L"], CreateTeamInput{Name: "Team X"})
	require.NoError(t, err)
	for _, id := range []string{"A", "B", "C"} {
		_, err := env.services.Teams.AddMember(ctx, env.users["L"], team.ID, AddMemberInput{UserID: id})
		require.NoError(t, err)
	}
	return team
}

func (env *testEnv) project(t *testing.T, teamID string, creator string) *db.ProjectView {
	t.Helper()
	p, err := env.services.Projects.CreateProject(context.Background(), env.users[creator], CreateProjectInput{Name: "Project P", TeamID: teamID})
	require.NoError(t, err)
	return p
}

func (env *testEnv) task(t *testing.T, projectID, creator, assignee string) *db.TaskView {
	t.Helper()
	k, err := env.services.Tasks.CreateTask(context.Background(), env.users[creator], CreateTaskInput{Title: "Task K", ProjectID: projectID, AssignedTo: assignee})
	require.NoError(t, err)
	return k
}

// MockAuthorizer is a testify mock of authz.Authorizer
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, r *authz.Requester, action authz.Action, target authz.Target) (authz.Decision, error) {
	args := m.Called(ctx, r, action, target)
	return args.Get(0).(authz.Decision), args.Error(1)
}

func (m *MockAuthorizer) AuthorizeMemberRemoval(ctx context.Context, r *authz.Requester, teamID, userID string) (authz.Decision, error) {
	args := m.Called(ctx, r, teamID, userID)
	return args.Get(0).(authz.Decision), args.Error(1)
}

func TestServices_AuthorizerErrorsPropagate(t *testing.T) {
	s := store.NewMemoryStore()
	az := new(MockAuthorizer)
	errStore := errors.New("store unavailable")
	az.On("Authorize", mock.Anything, mock.Anything, authz.ActionDelete, authz.Target{Kind: authz.ResourceProject, ID: "p-1"}).
		Return(authz.Decision{}, errStore)

	err := NewProjectService(az, s).DeleteProject(context.Background(), &authz.Requester{ID: "u-1"}, "p-1")
	assert.ErrorIs(t, err, errStore)
	az.AssertExpectations(t)
}

func TestServices_DenyLeavesStoreUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	team := env.teamX(t)

	err := env.services.Teams.DeleteTeam(ctx, env.users["A"], team.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = env.store.GetTeam(ctx, team.ID)
	assert.NoError(t, err)
}

func TestServices_RequireRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Teams.CreateTeam(ctx, nil, CreateTeamInput{Name: "x"})
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	_, err = env.services.Tasks.ListTasks(ctx, &authz.Requester{}, TaskFilter{})
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)

	_, err = env.services.Dashboard.Stats(ctx, nil)
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
}
