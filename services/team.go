package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// TeamService handles team business logic
type TeamService struct {
	authz  authz.Authorizer
	store  *store.Store
	logger *logrus.Logger
}

// NewTeamService creates a new team service
func NewTeamService(az authz.Authorizer, s *store.Store, logger *logrus.Logger) *TeamService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TeamService{authz: az, store: s, logger: logger}
}

// CreateTeamInput represents input for creating a team
type CreateTeamInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
}

// UpdateTeamInput represents input for updating a team; nil or empty fields are kept
type UpdateTeamInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AddMemberInput names the user to add, by id or by email
type AddMemberInput struct {
	UserID string `json:"user_id,omitempty" binding:"required_without=Email"`
	Email  string `json:"email,omitempty" binding:"omitempty,email"`
}

// CreateTeam creates a team led by the requester, who is also its first member
func (s *TeamService) CreateTeam(ctx context.Context, r *authz.Requester, input CreateTeamInput) (*db.TeamView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, authz.Invalid("team name is required")
	}
	if _, err := authorize(ctx, s.authz, r, authz.ActionCreate, authz.Target{Kind: authz.ResourceTeam}); err != nil {
		return nil, err
	}

	team := &db.Team{
		Name:        name,
		Description: input.Description,
		LeaderID:    r.ID,
		MemberIDs:   []string{r.ID},
	}
	if err := s.store.Teams.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"team_id": team.ID, "user_id": r.ID}).Info("Team created")
	return s.view(ctx, team)
}

// ListTeams returns the teams the requester leads or belongs to
func (s *TeamService) ListTeams(ctx context.Context, r *authz.Requester) ([]db.TeamView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	teams, err := visibleTeams(ctx, s.store, r)
	if err != nil {
		return nil, err
	}

	views := make([]db.TeamView, 0, len(teams))
	for i := range teams {
		v, err := s.view(ctx, &teams[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// GetTeam retrieves a team the requester may read
func (s *TeamService) GetTeam(ctx context.Context, r *authz.Requester, teamID string) (*db.TeamView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	chain, err := authorize(ctx, s.authz, r, authz.ActionRead, authz.Target{Kind: authz.ResourceTeam, ID: teamID})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, chain.Team)
}

// UpdateTeam changes name and description
func (s *TeamService) UpdateTeam(ctx context.Context, r *authz.Requester, teamID string, input UpdateTeamInput) (*db.TeamView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	chain, err := authorize(ctx, s.authz, r, authz.ActionUpdate, authz.Target{Kind: authz.ResourceTeam, ID: teamID})
	if err != nil {
		return nil, err
	}

	team := chain.Team
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil && *input.Description != "" {
		team.Description = *input.Description
	}

	if err := s.store.Teams.Update(ctx, team); err != nil {
		return nil, storeError(err, authz.ResourceTeam, teamID)
	}
	return s.view(ctx, team)
}

// DeleteTeam deletes a team with its projects, tasks and comments
func (s *TeamService) DeleteTeam(ctx context.Context, r *authz.Requester, teamID string) error {
	if err := requireRequester(r); err != nil {
		return err
	}
	if _, err := authorize(ctx, s.authz, r, authz.ActionDelete, authz.Target{Kind: authz.ResourceTeam, ID: teamID}); err != nil {
		return err
	}

	if err := s.store.Teams.Delete(ctx, teamID); err != nil {
		return storeError(err, authz.ResourceTeam, teamID)
	}

	s.logger.WithFields(logrus.Fields{"team_id": teamID, "user_id": r.ID}).Info("Team deleted")
	return nil
}

// AddMember adds an existing user to the team
func (s *TeamService) AddMember(ctx context.Context, r *authz.Requester, teamID string, input AddMemberInput) (*db.TeamView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	if input.UserID == "" && strings.TrimSpace(input.Email) == "" {
		return nil, authz.Invalid("user_id or email is required")
	}
	chain, err := authorize(ctx, s.authz, r, authz.ActionManage, authz.Target{Kind: authz.ResourceTeam, ID: teamID})
	if err != nil {
		return nil, err
	}

	userID, err := s.resolveUser(ctx, input)
	if err != nil {
		return nil, err
	}
	if chain.Team.HasMember(userID) {
		return nil, fmt.Errorf("%w: user is already a member of this team", authz.ErrAlreadyExists)
	}

	if err := s.store.Teams.AddMember(ctx, teamID, userID); err != nil {
		return nil, storeError(err, authz.ResourceTeam, teamID)
	}
	return s.reload(ctx, teamID)
}

// RemoveMember removes a user from the team. The leader can never be removed.
func (s *TeamService) RemoveMember(ctx context.Context, r *authz.Requester, teamID, userID string) (*db.TeamView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, authz.Invalid("user id is required")
	}

	decision, err := s.authz.AuthorizeMemberRemoval(ctx, r, teamID, userID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decision.Err()
	}

	if err := s.store.Teams.RemoveMember(ctx, teamID, userID); err != nil {
		return nil, storeError(err, kindUser, userID)
	}
	return s.reload(ctx, teamID)
}

func (s *TeamService) resolveUser(ctx context.Context, input AddMemberInput) (string, error) {
	if input.UserID != "" {
		user, err := s.store.Users.Get(ctx, input.UserID)
		if err != nil {
			return "", storeError(err, kindUser, input.UserID)
		}
		return user.ID, nil
	}
	email := strings.TrimSpace(input.Email)
	user, err := s.store.Users.GetByEmail(ctx, email)
	if err != nil {
		return "", storeError(err, kindUser, email)
	}
	return user.ID, nil
}

func (s *TeamService) reload(ctx context.Context, teamID string) (*db.TeamView, error) {
	team, err := s.store.Teams.Get(ctx, teamID)
	if err != nil {
		return nil, storeError(err, authz.ResourceTeam, teamID)
	}
	return s.view(ctx, team)
}

func (s *TeamService) view(ctx context.Context, team *db.Team) (*db.TeamView, error) {
	summaries, err := userSummaries(ctx, s.store.Users, append([]string{team.LeaderID}, team.MemberIDs...)...)
	if err != nil {
		return nil, err
	}

	v := &db.TeamView{Team: *team, Leader: summaryPtr(summaries, team.LeaderID), Members: []db.UserSummary{}}
	for _, id := range team.MemberIDs {
		if m, ok := summaries[id]; ok {
			v.Members = append(v.Members, m)
		}
	}
	return v, nil
}
