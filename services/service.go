// Package services implements the team, project, task and comment use cases,
// the dashboard, and user accounts. Every entity operation follows the same
// order: requester check, input validation, authorization, store access.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// kindUser names users in not-found errors; users are not part of any chain
const kindUser authz.ResourceType = "user"

// validate runs the same rules gin applies to binding tags, for callers that
// do not come through HTTP
var validate = validator.New()

// Services bundles every use case over one store and one authorizer
type Services struct {
	Teams     *TeamService
	Projects  *ProjectService
	Tasks     *TaskService
	Comments  *CommentService
	Dashboard *DashboardService
	Users     *UserService
}

// New wires all services over s, with az gating every entity operation
func New(s *store.Store, az authz.Authorizer, tokens *TokenService, logger *logrus.Logger) *Services {
	if logger == nil {
		logger = logrus.New()
	}
	return &Services{
		Teams:     NewTeamService(az, s, logger),
		Projects:  NewProjectService(az, s),
		Tasks:     NewTaskService(az, s),
		Comments:  NewCommentService(az, s),
		Dashboard: NewDashboardService(s),
		Users:     NewUserService(s.Users, tokens, logger),
	}
}

func requireRequester(r *authz.Requester) error {
	if !r.Authenticated() {
		return authz.ErrUnauthenticated
	}
	return nil
}

// authorize runs one engine decision and returns the chain it was made on
func authorize(ctx context.Context, az authz.Authorizer, r *authz.Requester, action authz.Action, target authz.Target) (*authz.Chain, error) {
	decision, err := az.Authorize(ctx, r, action, target)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decision.Err()
	}
	return decision.Chain, nil
}

// storeError maps store sentinels onto the authz taxonomy
func storeError(err error, kind authz.ResourceType, id string) error {
	switch {
	case errors.Is(err, db.ErrRecordNotFound):
		return &authz.NotFoundError{Kind: kind, ID: id}
	case errors.Is(err, db.ErrDuplicateRecord):
		return fmt.Errorf("%w: %s", authz.ErrAlreadyExists, kind)
	default:
		return err
	}
}

// userSummaries loads display fields for ids, skipping empty ones
func userSummaries(ctx context.Context, users store.UserRepository, ids ...string) (map[string]db.UserSummary, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	summaries, err := users.GetSummaries(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return summaries, nil
}

func summaryPtr(summaries map[string]db.UserSummary, id string) *db.UserSummary {
	s, ok := summaries[id]
	if !ok {
		return nil
	}
	return &s
}

// visibleTeams is the requester's list and dashboard scope
func visibleTeams(ctx context.Context, s *store.Store, r *authz.Requester) ([]db.Team, error) {
	teams, err := s.Teams.ListByUser(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return authz.VisibleTeams(r, teams), nil
}

func teamIDs(teams []db.Team) []string {
	ids := make([]string, len(teams))
	for i := range teams {
		ids[i] = teams[i].ID
	}
	return ids
}

func projectIDs(projects []db.Project) []string {
	ids := make([]string, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
	}
	return ids
}
