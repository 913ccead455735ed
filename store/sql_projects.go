package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Stachugit-s/teamtaskmanager2/db"
)

// ============================================================================
// SQLProjectRepository
// ============================================================================

// SQLProjectRepository implements ProjectRepository using SQL
type SQLProjectRepository struct {
	conn *sql.DB
}

// NewSQLProjectRepository creates a new SQLProjectRepository
func NewSQLProjectRepository(conn *sql.DB) *SQLProjectRepository {
	return &SQLProjectRepository{conn: conn}
}

// Ensure SQLProjectRepository implements ProjectRepository
var _ ProjectRepository = (*SQLProjectRepository)(nil)

const projectColumns = `id, name, COALESCE(description, ''), team_id, created_by, start_date, end_date, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*db.Project, error) {
	var p db.Project
	var endDate sql.NullTime
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.TeamID, &p.CreatedBy, &p.StartDate, &endDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.EndDate = timePtr(endDate)
	return &p, nil
}

// Create creates a new project
func (r *SQLProjectRepository) Create(ctx context.Context, project *db.Project) error {
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, team_id, created_by, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, project.ID, project.Name, project.Description, project.TeamID, project.CreatedBy,
		project.StartDate, nullTime(project.EndDate), project.Status, project.CreatedAt, project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Get retrieves a project by ID
func (r *SQLProjectRepository) Get(ctx context.Context, id string) (*db.Project, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// ListByTeams returns projects owned by any of teamIDs, newest first
func (r *SQLProjectRepository) ListByTeams(ctx context.Context, teamIDs []string) ([]db.Project, error) {
	if len(teamIDs) == 0 {
		return []db.Project{}, nil
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE team_id IN (`+placeholders(1, len(teamIDs))+`)
		ORDER BY created_at DESC
	`, stringArgs(teamIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []db.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update writes every mutable project field
func (r *SQLProjectRepository) Update(ctx context.Context, project *db.Project) error {
	project.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx, `
		UPDATE projects
		SET name = $1, description = $2, start_date = $3, end_date = $4, status = $5, updated_at = $6
		WHERE id = $7
	`, project.Name, project.Description, project.StartDate, nullTime(project.EndDate),
		project.Status, project.UpdatedAt, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return checkAffected(result)
}

// Delete deletes a project and, through the schema, its tasks and comments
func (r *SQLProjectRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return checkAffected(result)
}

// ============================================================================
// SQLTaskRepository
// ============================================================================

// SQLTaskRepository implements TaskRepository using SQL
type SQLTaskRepository struct {
	conn *sql.DB
}

// NewSQLTaskRepository creates a new SQLTaskRepository
func NewSQLTaskRepository(conn *sql.DB) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn}
}

// Ensure SQLTaskRepository implements TaskRepository
var _ TaskRepository = (*SQLTaskRepository)(nil)

const taskColumns = `id, title, COALESCE(description, ''), project_id, assigned_to, created_by, due_date, priority, status, created_at, updated_at`

func scanTask(row rowScanner) (*db.Task, error) {
	var t db.Task
	var assignedTo sql.NullString
	var dueDate sql.NullTime
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.ProjectID, &assignedTo, &t.CreatedBy, &dueDate, &t.Priority, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.AssignedTo = assignedTo.String
	t.DueDate = timePtr(dueDate)
	return &t, nil
}

// Create creates a new task
func (r *SQLTaskRepository) Create(ctx context.Context, task *db.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, project_id, assigned_to, created_by, due_date, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, task.ID, task.Title, task.Description, task.ProjectID, nullString(task.AssignedTo), task.CreatedBy,
		nullTime(task.DueDate), task.Priority, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Get retrieves a task by ID
func (r *SQLTaskRepository) Get(ctx context.Context, id string) (*db.Task, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListByProjects returns tasks in any of projectIDs, newest first
func (r *SQLTaskRepository) ListByProjects(ctx context.Context, projectIDs []string, assignedTo string) ([]db.Task, error) {
	if len(projectIDs) == 0 {
		return []db.Task{}, nil
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id IN (` + placeholders(1, len(projectIDs)) + `)`
	args := stringArgs(projectIDs)
	if assignedTo != "" {
		args = append(args, assignedTo)
		query += fmt.Sprintf(` AND assigned_to = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []db.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update writes every mutable task field
func (r *SQLTaskRepository) Update(ctx context.Context, task *db.Task) error {
	task.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx, `
		UPDATE tasks
		SET title = $1, description = $2, assigned_to = $3, due_date = $4, priority = $5, status = $6, updated_at = $7
		WHERE id = $8
	`, task.Title, task.Description, nullString(task.AssignedTo), nullTime(task.DueDate),
		task.Priority, task.Status, task.UpdatedAt, task.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return checkAffected(result)
}

// Delete deletes a task and its comments
func (r *SQLTaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return checkAffected(result)
}

// ============================================================================
// SQLCommentRepository
// ============================================================================

// SQLCommentRepository implements CommentRepository using SQL
type SQLCommentRepository struct {
	conn *sql.DB
}

// NewSQLCommentRepository creates a new SQLCommentRepository
func NewSQLCommentRepository(conn *sql.DB) *SQLCommentRepository {
	return &SQLCommentRepository{conn: conn}
}

// Ensure SQLCommentRepository implements CommentRepository
var _ CommentRepository = (*SQLCommentRepository)(nil)

// Create creates a new comment
func (r *SQLCommentRepository) Create(ctx context.Context, comment *db.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO comments (id, text, task_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, comment.ID, comment.Text, comment.TaskID, comment.UserID, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// Get retrieves a comment by ID
func (r *SQLCommentRepository) Get(ctx context.Context, id string) (*db.Comment, error) {
	var c db.Comment
	err := r.conn.QueryRowContext(ctx, `
		SELECT id, text, task_id, user_id, created_at, updated_at
		FROM comments
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Text, &c.TaskID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

// ListByTask returns the task's comments, newest first
func (r *SQLCommentRepository) ListByTask(ctx context.Context, taskID string) ([]db.Comment, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, text, task_id, user_id, created_at, updated_at
		FROM comments
		WHERE task_id = $1
		ORDER BY created_at DESC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []db.Comment{}
	for rows.Next() {
		var c db.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.TaskID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Update rewrites the comment text
func (r *SQLCommentRepository) Update(ctx context.Context, comment *db.Comment) error {
	comment.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx, `
		UPDATE comments
		SET text = $1, updated_at = $2
		WHERE id = $3
	`, comment.Text, comment.UpdatedAt, comment.ID)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return checkAffected(result)
}

// Delete deletes a comment
func (r *SQLCommentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return checkAffected(result)
}
