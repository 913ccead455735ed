package authz

import (
	"context"
	"errors"
	"sync"

	"github.com/Stachugit-s/teamtaskmanager2/db"
)

// MockEntityStore is a map-backed EntityStore for tests
type MockEntityStore struct {
	teams    map[string]*db.Team
	projects map[string]*db.Project
	tasks    map[string]*db.Task
	comments map[string]*db.Comment
	fail     error
}

func NewMockEntityStore() *MockEntityStore {
	return &MockEntityStore{
		teams:    make(map[string]*db.Team),
		projects: make(map[string]*db.Project),
		tasks:    make(map[string]*db.Task),
		comments: make(map[string]*db.Comment),
	}
}

func (m *MockEntityStore) AddTeam(t *db.Team) { m.teams[t.ID] = t }
func (m *MockEntityStore) AddProject(p *db.Project) { m.projects[p.ID] = p }
func (m *MockEntityStore) AddTask(t *db.Task) { m.tasks[t.ID] = t }
func (m *MockEntityStore) AddComment(c *db.Comment) { m.comments[c.ID] = c }

func (m *MockEntityStore) GetTeam(ctx context.Context, id string) (*db.Team, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	if t, ok := m.teams[id]; ok {
		return t, nil
	}
	return nil, db.ErrRecordNotFound
}

func (m *MockEntityStore) GetProject(ctx context.Context, id string) (*db.Project, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, db.ErrRecordNotFound
}

func (m *MockEntityStore) GetTask(ctx context.Context, id string) (*db.Task, error) {
	if t, ok := m.tasks[id]; ok {
		return t, nil
	}
	return nil, db.ErrRecordNotFound
}

func (m *MockEntityStore) GetComment(ctx context.Context, id string) (*db.Comment, error) {
	if c, ok := m.comments[id]; ok {
		return c, nil
	}
	return nil, db.ErrRecordNotFound
}

// recordingObserver collects every decision it is shown
type recordingObserver struct {
	mu        sync.Mutex
	decisions []Decision
}

func (o *recordingObserver) ObserveDecision(ctx context.Context, r *Requester, action Action, target Target, d Decision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decisions = append(o.decisions, d)
}

var errStoreDown = errors.New("connection refused")

// fixture builds team X (leader L, members L, A, B, C) with project P,
// task K created by A, and comment c authored by C.
func fixture() *MockEntityStore {
	s := NewMockEntityStore()
	s.AddTeam(&db.Team{ID: "X", Name: "Team X", LeaderID: "L", MemberIDs: []string{"L", "A", "B", "C"}})
	s.AddProject(&db.Project{ID: "P", TeamID: "X", CreatedBy: "L", Status: db.ProjectStatusPlanned})
	s.AddTask(&db.Task{ID: "K", ProjectID: "P", CreatedBy: "A", AssignedTo: "C", Priority: db.TaskPriorityMedium, Status: db.TaskStatusTodo})
	s.AddComment(&db.Comment{ID: "c", TaskID: "K", UserID: "C", Text: "looks good"})
	return s
}

func user(id string) *Requester {
	return &Requester{ID: id, Role: db.UserRoleUser}
}

func adminRequester(id string) *Requester {
	return &Requester{ID: id, Role: db.UserRoleAdmin}
}
