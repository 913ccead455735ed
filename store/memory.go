package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Stachugit-s/teamtaskmanager2/db"
)

// memoryDB is the shared state behind the in-memory repositories.
// Every read returns a copy so callers never alias stored records.
type memoryDB struct {
	mu       sync.RWMutex
	seq      int64
	order    map[string]int64 // insertion sequence, breaks created_at ties
	users    map[string]db.User
	teams    map[string]db.Team
	projects map[string]db.Project
	tasks    map[string]db.Task
	comments map[string]db.Comment
}

// NewMemoryStore builds a Store kept entirely in process memory.
// Deletes cascade like the SQL schema; references are not checked on insert.
func NewMemoryStore() *Store {
	m := &memoryDB{
		order:    make(map[string]int64),
		users:    make(map[string]db.User),
		teams:    make(map[string]db.Team),
		projects: make(map[string]db.Project),
		tasks:    make(map[string]db.Task),
		comments: make(map[string]db.Comment),
	}
	return &Store{
		Users:    &memoryUsers{m},
		Teams:    &memoryTeams{m},
		Projects: &memoryProjects{m},
		Tasks:    &memoryTasks{m},
		Comments: &memoryComments{m},
	}
}

func (m *memoryDB) stamp(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	now := time.Now().UTC()
	*createdAt = now
	*updatedAt = now
	m.seq++
	m.order[*id] = m.seq
}

// newestFirst orders by created_at descending, later inserts first on ties
func (m *memoryDB) newestFirst(idA, idB string, a, b time.Time) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return m.order[idA] > m.order[idB]
}

func (m *memoryDB) deleteTask(id string) {
	for cid, c := range m.comments {
		if c.TaskID == id {
			delete(m.comments, cid)
		}
	}
	delete(m.tasks, id)
}

func (m *memoryDB) deleteProject(id string) {
	for tid, t := range m.tasks {
		if t.ProjectID == id {
			m.deleteTask(tid)
		}
	}
	delete(m.projects, id)
}

func copyTeam(t db.Team) db.Team {
	t.MemberIDs = append([]string{}, t.MemberIDs...)
	return t
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ============================================================================
// Users
// ============================================================================

type memoryUsers struct{ m *memoryDB }

var _ UserRepository = (*memoryUsers)(nil)

func (r *memoryUsers) Create(_ context.Context, user *db.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return db.ErrDuplicateRecord
		}
	}
	if _, exists := r.m.users[user.ID]; exists && user.ID != "" {
		return db.ErrDuplicateRecord
	}
	r.m.stamp(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	r.m.users[user.ID] = *user
	return nil
}

func (r *memoryUsers) Get(_ context.Context, id string) (*db.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	return &u, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*db.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, u := range r.m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, db.ErrRecordNotFound
}

func (r *memoryUsers) GetSummaries(_ context.Context, ids []string) (map[string]db.UserSummary, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	summaries := make(map[string]db.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			summaries[id] = u.Summary()
		}
	}
	return summaries, nil
}

func (r *memoryUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ============================================================================
// Teams
// ============================================================================

type memoryTeams struct{ m *memoryDB }

var _ TeamRepository = (*memoryTeams)(nil)

func (r *memoryTeams) Create(_ context.Context, team *db.Team) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.stamp(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if team.MemberIDs == nil {
		team.MemberIDs = []string{}
	}
	r.m.teams[team.ID] = copyTeam(*team)
	return nil
}

func (r *memoryTeams) Get(_ context.Context, id string) (*db.Team, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	t, ok := r.m.teams[id]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	t = copyTeam(t)
	return &t, nil
}

func (r *memoryTeams) ListByUser(_ context.Context, userID string) ([]db.Team, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	teams := []db.Team{}
	for _, t := range r.m.teams {
		if t.LeaderID == userID || t.HasMember(userID) {
			teams = append(teams, copyTeam(t))
		}
	}
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].Name != teams[j].Name {
			return teams[i].Name < teams[j].Name
		}
		return r.m.order[teams[i].ID] < r.m.order[teams[j].ID]
	})
	return teams, nil
}

func (r *memoryTeams) Update(_ context.Context, team *db.Team) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.teams[team.ID]
	if !ok {
		return db.ErrRecordNotFound
	}
	team.UpdatedAt = time.Now().UTC()
	stored.Name = team.Name
	stored.Description = team.Description
	stored.UpdatedAt = team.UpdatedAt
	r.m.teams[team.ID] = stored
	return nil
}

func (r *memoryTeams) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.teams[id]; !ok {
		return db.ErrRecordNotFound
	}
	for pid, p := range r.m.projects {
		if p.TeamID == id {
			r.m.deleteProject(pid)
		}
	}
	delete(r.m.teams, id)
	return nil
}

func (r *memoryTeams) AddMember(_ context.Context, teamID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	t, ok := r.m.teams[teamID]
	if !ok {
		return db.ErrRecordNotFound
	}
	if t.HasMember(userID) {
		return db.ErrDuplicateRecord
	}
	t = copyTeam(t)
	t.MemberIDs = append(t.MemberIDs, userID)
	r.m.teams[teamID] = t
	return nil
}

func (r *memoryTeams) RemoveMember(_ context.Context, teamID, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	t, ok := r.m.teams[teamID]
	if !ok || !t.HasMember(userID) {
		return db.ErrRecordNotFound
	}
	members := make([]string, 0, len(t.MemberIDs)-1)
	for _, id := range t.MemberIDs {
		if id != userID {
			members = append(members, id)
		}
	}
	t.MemberIDs = members
	r.m.teams[teamID] = t
	return nil
}

// ============================================================================
// Projects
// ============================================================================

type memoryProjects struct{ m *memoryDB }

var _ ProjectRepository = (*memoryProjects)(nil)

func (r *memoryProjects) Create(_ context.Context, project *db.Project) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.stamp(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	p := *project
	p.EndDate = copyTimePtr(p.EndDate)
	r.m.projects[p.ID] = p
	return nil
}

func (r *memoryProjects) Get(_ context.Context, id string) (*db.Project, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	p, ok := r.m.projects[id]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	p.EndDate = copyTimePtr(p.EndDate)
	return &p, nil
}

func (r *memoryProjects) ListByTeams(_ context.Context, teamIDs []string) ([]db.Project, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	wanted := make(map[string]bool, len(teamIDs))
	for _, id := range teamIDs {
		wanted[id] = true
	}

	projects := []db.Project{}
	for _, p := range r.m.projects {
		if wanted[p.TeamID] {
			p.EndDate = copyTimePtr(p.EndDate)
			projects = append(projects, p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return r.m.newestFirst(projects[i].ID, projects[j].ID, projects[i].CreatedAt, projects[j].CreatedAt)
	})
	return projects, nil
}

func (r *memoryProjects) Update(_ context.Context, project *db.Project) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.projects[project.ID]
	if !ok {
		return db.ErrRecordNotFound
	}
	project.UpdatedAt = time.Now().UTC()
	stored.Name = project.Name
	stored.Description = project.Description
	stored.StartDate = project.StartDate
	stored.EndDate = copyTimePtr(project.EndDate)
	stored.Status = project.Status
	stored.UpdatedAt = project.UpdatedAt
	r.m.projects[project.ID] = stored
	return nil
}

func (r *memoryProjects) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.projects[id]; !ok {
		return db.ErrRecordNotFound
	}
	r.m.deleteProject(id)
	return nil
}

// ============================================================================
// Tasks
// ============================================================================

type memoryTasks struct{ m *memoryDB }

var _ TaskRepository = (*memoryTasks)(nil)

func (r *memoryTasks) Create(_ context.Context, task *db.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.stamp(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	t := *task
	t.DueDate = copyTimePtr(t.DueDate)
	r.m.tasks[t.ID] = t
	return nil
}

func (r *memoryTasks) Get(_ context.Context, id string) (*db.Task, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	t, ok := r.m.tasks[id]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	t.DueDate = copyTimePtr(t.DueDate)
	return &t, nil
}

func (r *memoryTasks) ListByProjects(_ context.Context, projectIDs []string, assignedTo string) ([]db.Task, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	wanted := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = true
	}

	tasks := []db.Task{}
	for _, t := range r.m.tasks {
		if !wanted[t.ProjectID] {
			continue
		}
		if assignedTo != "" && t.AssignedTo != assignedTo {
			continue
		}
		t.DueDate = copyTimePtr(t.DueDate)
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return r.m.newestFirst(tasks[i].ID, tasks[j].ID, tasks[i].CreatedAt, tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r *memoryTasks) Update(_ context.Context, task *db.Task) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.tasks[task.ID]
	if !ok {
		return db.ErrRecordNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	stored.Title = task.Title
	stored.Description = task.Description
	stored.AssignedTo = task.AssignedTo
	stored.DueDate = copyTimePtr(task.DueDate)
	stored.Priority = task.Priority
	stored.Status = task.Status
	stored.UpdatedAt = task.UpdatedAt
	r.m.tasks[task.ID] = stored
	return nil
}

func (r *memoryTasks) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.tasks[id]; !ok {
		return db.ErrRecordNotFound
	}
	r.m.deleteTask(id)
	return nil
}

// ============================================================================
// Comments
// ============================================================================

type memoryComments struct{ m *memoryDB }

var _ CommentRepository = (*memoryComments)(nil)

func (r *memoryComments) Create(_ context.Context, comment *db.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.stamp(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	r.m.comments[comment.ID] = *comment
	return nil
}

func (r *memoryComments) Get(_ context.Context, id string) (*db.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	c, ok := r.m.comments[id]
	if !ok {
		return nil, db.ErrRecordNotFound
	}
	return &c, nil
}

func (r *memoryComments) ListByTask(_ context.Context, taskID string) ([]db.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	comments := []db.Comment{}
	for _, c := range r.m.comments {
		if c.TaskID == taskID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return r.m.newestFirst(comments[i].ID, comments[j].ID, comments[i].CreatedAt, comments[j].CreatedAt)
	})
	return comments, nil
}

func (r *memoryComments) Update(_ context.Context, comment *db.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	stored, ok := r.m.comments[comment.ID]
	if !ok {
		return db.ErrRecordNotFound
	}
	comment.UpdatedAt = time.Now().UTC()
	stored.Text = comment.Text
	stored.UpdatedAt = comment.UpdatedAt
	r.m.comments[comment.ID] = stored
	return nil
}

func (r *memoryComments) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.comments[id]; !ok {
		return db.ErrRecordNotFound
	}
	delete(r.m.comments, id)
	return nil
}
