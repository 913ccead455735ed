package db

import (
	"errors"
	"time"
)

var (
	// ErrRecordNotFound is returned by every store lookup when the record is absent.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateRecord is returned when a unique key (user email, team membership) already exists.
	ErrDuplicateRecord = errors.New("duplicate record")
)

// ===========================
// USERS
// ===========================

// UserRole is the global role of a user account
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the display shape of a user embedded in other responses
type UserSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name,omitempty"`
	Email    string `json:"email"`
}

// Summary returns the display fields of the user
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, LastName: u.LastName, Email: u.Email}
}

// ===========================
// TEAMS
// ===========================

type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	LeaderID    string    `json:"leader_id"`
	MemberIDs   []string  `json:"member_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasMember reports whether userID is in the member set
func (t *Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// TeamView is a team with its leader and members populated for display
type TeamView struct {
	Team
	Leader  *UserSummary  `json:"leader,omitempty"`
	Members []UserSummary `json:"members"`
}

// ===========================
// PROJECTS
// ===========================

type ProjectStatus string

const (
	ProjectStatusPlanned    ProjectStatus = "planned"
	ProjectStatusInProgress ProjectStatus = "in-progress"
	ProjectStatusOnHold     ProjectStatus = "on-hold"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// Valid reports whether s is one of the known project statuses
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanned, ProjectStatusInProgress, ProjectStatusOnHold, ProjectStatusCompleted:
		return true
	}
	return false
}

type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	TeamID      string        `json:"team_id"`
	CreatedBy   string        `json:"created_by"`
	StartDate   time.Time     `json:"start_date"`
	EndDate     *time.Time    `json:"end_date,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CreatorID implements authz.Owned
func (p *Project) CreatorID() string {
	if p == nil {
		return ""
	}
	return p.CreatedBy
}

type ProjectView struct {
	Project
	TeamName string       `json:"team_name,omitempty"`
	Creator  *UserSummary `json:"creator,omitempty"`
}

// ===========================
// TASKS
// ===========================

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	ProjectID   string       `json:"project_id"`
	AssignedTo  string       `json:"assigned_to,omitempty"` // empty when unassigned
	CreatedBy   string       `json:"created_by"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Task) CreatorID() string {
	if t == nil {
		return ""
	}
	return t.CreatedBy
}

type TaskView struct {
	Task
	ProjectName string       `json:"project_name,omitempty"`
	Assignee    *UserSummary `json:"assignee,omitempty"`
	Creator     *UserSummary `json:"creator,omitempty"`
}

// ===========================
// COMMENTS
// ===========================

type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"` // author
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreatorID returns the author; comments have no separate creator field.
func (c *Comment) CreatorID() string {
	if c == nil {
		return ""
	}
	return c.UserID
}

type CommentView struct {
	Comment
	Author *UserSummary `json:"author,omitempty"`
}
