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
// SQLUserRepository
// ============================================================================

// SQLUserRepository implements UserRepository using SQL
type SQLUserRepository struct {
	conn *sql.DB
}

// NewSQLUserRepository creates a new SQLUserRepository
func NewSQLUserRepository(conn *sql.DB) *SQLUserRepository {
	return &SQLUserRepository{conn: conn}
}

// Ensure SQLUserRepository implements UserRepository
var _ UserRepository = (*SQLUserRepository)(nil)

const userColumns = `id, name, last_name, email, password_hash, role, created_at, updated_at`

// Create creates a new user
func (r *SQLUserRepository) Create(ctx context.Context, user *db.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO users (id, name, last_name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.Name, user.LastName, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID
func (r *SQLUserRepository) Get(ctx context.Context, id string) (*db.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email
func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*db.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// GetSummaries returns display fields for the given users
func (r *SQLUserRepository) GetSummaries(ctx context.Context, ids []string) (map[string]db.UserSummary, error) {
	summaries := make(map[string]db.UserSummary, len(ids))
	if len(ids) == 0 {
		return summaries, nil
	}

	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, name, last_name, email FROM users
		WHERE id IN (`+placeholders(1, len(ids))+`)
	`, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s db.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.LastName, &s.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		summaries[s.ID] = s
	}
	return summaries, rows.Err()
}

// EmailExists checks if an email is already registered
func (r *SQLUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE lower(email) = lower($1)`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

func scanUser(row *sql.Row) (*db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.Name, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// ============================================================================
// SQLTeamRepository
// ============================================================================

// SQLTeamRepository implements TeamRepository using SQL.
// Members live in team_members; the leader is stored on the team row.
type SQLTeamRepository struct {
	conn *sql.DB
}

// NewSQLTeamRepository creates a new SQLTeamRepository
func NewSQLTeamRepository(conn *sql.DB) *SQLTeamRepository {
	return &SQLTeamRepository{conn: conn}
}

// Ensure SQLTeamRepository implements TeamRepository
var _ TeamRepository = (*SQLTeamRepository)(nil)

// Create inserts the team and its member rows in one transaction
func (r *SQLTeamRepository) Create(ctx context.Context, team *db.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	team.CreatedAt = now
	team.UpdatedAt = now

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO teams (id, name, description, leader_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, team.ID, team.Name, team.Description, team.LeaderID, team.CreatedAt, team.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	for _, userID := range team.MemberIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO team_members (team_id, user_id, created_at)
			VALUES ($1, $2, $3)
		`, team.ID, userID, now)
		if err != nil {
			return fmt.Errorf("failed to add team member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit team: %w", err)
	}
	return nil
}

// Get retrieves a team and its member ids
func (r *SQLTeamRepository) Get(ctx context.Context, id string) (*db.Team, error) {
	var t db.Team
	err := r.conn.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, ''), leader_id, created_at, updated_at
		FROM teams
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Description, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	members, err := r.memberIDs(ctx, []string{t.ID})
	if err != nil {
		return nil, err
	}
	t.MemberIDs = members[t.ID]
	if t.MemberIDs == nil {
		t.MemberIDs = []string{}
	}
	return &t, nil
}

// ListByUser returns teams led by or including userID
func (r *SQLTeamRepository) ListByUser(ctx context.Context, userID string) ([]db.Team, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT t.id, t.name, COALESCE(t.description, ''), t.leader_id, t.created_at, t.updated_at
		FROM teams t
		WHERE t.leader_id = $1
		   OR t.id IN (SELECT m.team_id FROM team_members m WHERE m.user_id = $1)
		ORDER BY t.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
	}
	defer rows.Close()

	var teams []db.Team
	for rows.Next() {
		var t db.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return []db.Team{}, nil
	}

	ids := make([]string, len(teams))
	for i := range teams {
		ids[i] = teams[i].ID
	}
	members, err := r.memberIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		teams[i].MemberIDs = members[teams[i].ID]
		if teams[i].MemberIDs == nil {
			teams[i].MemberIDs = []string{}
		}
	}
	return teams, nil
}

// memberIDs loads member ids for several teams in one query
func (r *SQLTeamRepository) memberIDs(ctx context.Context, teamIDs []string) (map[string][]string, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT team_id, user_id FROM team_members
		WHERE team_id IN (`+placeholders(1, len(teamIDs))+`)
		ORDER BY created_at
	`, stringArgs(teamIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string, len(teamIDs))
	for rows.Next() {
		var teamID, userID string
		if err := rows.Scan(&teamID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members[teamID] = append(members[teamID], userID)
	}
	return members, rows.Err()
}

// Update updates name and description
func (r *SQLTeamRepository) Update(ctx context.Context, team *db.Team) error {
	team.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx, `
		UPDATE teams
		SET name = $1, description = $2, updated_at = $3
		WHERE id = $4
	`, team.Name, team.Description, team.UpdatedAt, team.ID)
	if err != nil {
		return fmt.Errorf("failed to update team: %w", err)
	}
	return checkAffected(result)
}

// Delete deletes a team (cascades to projects, tasks, comments, members)
func (r *SQLTeamRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return checkAffected(result)
}

// AddMember adds userID to the team's member set
func (r *SQLTeamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	_, err := r.conn.ExecContext(ctx, `
		INSERT INTO team_members (team_id, user_id, created_at)
		VALUES ($1, $2, $3)
	`, teamID, userID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// RemoveMember removes userID from the team's member set
func (r *SQLTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	result, err := r.conn.ExecContext(ctx, `
		DELETE FROM team_members
		WHERE team_id = $1 AND user_id = $2
	`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return checkAffected(result)
}
