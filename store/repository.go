// Package store persists users, teams, projects, tasks and comments.
// Repositories are purely a data access layer - no authorization logic.
// Absent records are reported as db.ErrRecordNotFound, unique violations as
// db.ErrDuplicateRecord.
package store

import (
	"context"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
)

// UserRepository handles user accounts
type UserRepository interface {
	// Create inserts a user; the id is assigned when empty
	Create(ctx context.Context, user *db.User) error

	Get(ctx context.Context, id string) (*db.User, error)

	// GetByEmail matches the email case-insensitively
	GetByEmail(ctx context.Context, email string) (*db.User, error)

	// GetSummaries returns display fields keyed by id; unknown ids are skipped
	GetSummaries(ctx context.Context, ids []string) (map[string]db.UserSummary, error)

	EmailExists(ctx context.Context, email string) (bool, error)
}

// TeamRepository handles teams and their member sets
type TeamRepository interface {
	// Create inserts the team together with its member ids
	Create(ctx context.Context, team *db.Team) error

	Get(ctx context.Context, id string) (*db.Team, error)

	// ListByUser returns teams the user leads or belongs to
	ListByUser(ctx context.Context, userID string) ([]db.Team, error)

	// Update writes name and description
	Update(ctx context.Context, team *db.Team) error

	// Delete removes the team; owned projects, tasks and comments go with it
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, teamID, userID string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}

// ProjectRepository handles projects
type ProjectRepository interface {
	Create(ctx context.Context, project *db.Project) error
	Get(ctx context.Context, id string) (*db.Project, error)

	// ListByTeams returns projects owned by any of teamIDs
	ListByTeams(ctx context.Context, teamIDs []string) ([]db.Project, error)

	Update(ctx context.Context, project *db.Project) error
	Delete(ctx context.Context, id string) error
}

// TaskRepository handles tasks
type TaskRepository interface {
	Create(ctx context.Context, task *db.Task) error
	Get(ctx context.Context, id string) (*db.Task, error)

	// ListByProjects returns tasks in any of projectIDs, narrowed to
	// assignedTo when it is not empty
	ListByProjects(ctx context.Context, projectIDs []string, assignedTo string) ([]db.Task, error)

	Update(ctx context.Context, task *db.Task) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository handles task comments
type CommentRepository interface {
	Create(ctx context.Context, comment *db.Comment) error
	Get(ctx context.Context, id string) (*db.Comment, error)

	// ListByTask returns comments newest first
	ListByTask(ctx context.Context, taskID string) ([]db.Comment, error)

	Update(ctx context.Context, comment *db.Comment) error
	Delete(ctx context.Context, id string) error
}

// Store bundles the repositories and exposes the lookup-by-id surface
// the authorization engine resolves chains through.
type Store struct {
	Users    UserRepository
	Teams    TeamRepository
	Projects ProjectRepository
	Tasks    TaskRepository
	Comments CommentRepository
}

// Ensure Store implements authz.EntityStore
var _ authz.EntityStore = (*Store)(nil)

func (s *Store) GetTeam(ctx context.Context, id string) (*db.Team, error) {
	return s.Teams.Get(ctx, id)
}

func (s *Store) GetProject(ctx context.Context, id string) (*db.Project, error) {
	return s.Projects.Get(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id string) (*db.Task, error) {
	return s.Tasks.Get(ctx, id)
}

func (s *Store) GetComment(ctx context.Context, id string) (*db.Comment, error) {
	return s.Comments.Get(ctx, id)
}
