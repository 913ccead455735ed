package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// ProjectService handles project business logic
type ProjectService struct {
	authz authz.Authorizer
	store *store.Store
}

// NewProjectService creates a new project service
func NewProjectService(az authz.Authorizer, s *store.Store) *ProjectService {
	return &ProjectService{authz: az, store: s}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description,omitempty"`
	TeamID      string           `json:"team_id" binding:"required"`
	StartDate   Date             `json:"start_date,omitempty"`
	EndDate     Date             `json:"end_date,omitempty"`
	Status      db.ProjectStatus `json:"status,omitempty" binding:"omitempty,oneof=planned in-progress on-hold completed"`
}

// UpdateProjectInput represents input for updating a project; nil or empty fields are kept
type UpdateProjectInput struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	StartDate   Date              `json:"start_date,omitempty"`
	EndDate     Date              `json:"end_date,omitempty"`
	Status      *db.ProjectStatus `json:"status,omitempty"`
}

// CreateProject creates a project under a team the requester belongs to
func (s *ProjectService) CreateProject(ctx context.Context, r *authz.Requester, input CreateProjectInput) (*db.ProjectView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, authz.Invalid("project name is required")
	}
	if input.TeamID == "" {
		return nil, authz.Invalid("team_id is required")
	}
	status := input.Status
	if status == "" {
		status = db.ProjectStatusPlanned
	}
	if !status.Valid() {
		return nil, authz.Invalid("unknown project status %q", status)
	}
	start := time.Now().UTC()
	if input.StartDate.Set() {
		start = input.StartDate.Time
	}
	if input.EndDate.Set() && input.EndDate.Before(start) {
		return nil, authz.Invalid("end_date must not be before start_date")
	}

	chain, err := authorize(ctx, s.authz, r, authz.ActionCreate, authz.Target{Kind: authz.ResourceProject, ParentID: input.TeamID})
	if err != nil {
		return nil, err
	}

	project := &db.Project{
		Name:        name,
		Description: input.Description,
		TeamID:      chain.Team.ID,
		CreatedBy:   r.ID,
		StartDate:   start,
		EndDate:     input.EndDate.Ptr(),
		Status:      status,
	}
	if err := s.store.Projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return s.view(ctx, project, chain.Team)
}

// ListProjects returns the projects of teamID, or of every visible team when teamID is empty
func (s *ProjectService) ListProjects(ctx context.Context, r *authz.Requester, teamID string) ([]db.ProjectView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}

	var teams []db.Team
	if teamID != "" {
		chain, err := authorize(ctx, s.authz, r, authz.ActionRead, authz.Target{Kind: authz.ResourceProject, ParentID: teamID})
		if err != nil {
			return nil, err
		}
		teams = []db.Team{*chain.Team}
	} else {
		visible, err := visibleTeams(ctx, s.store, r)
		if err != nil {
			return nil, err
		}
		teams = visible
	}

	projects, err := s.store.Projects.ListByTeams(ctx, teamIDs(teams))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	creatorIDs := make([]string, len(projects))
	for i := range projects {
		creatorIDs[i] = projects[i].CreatedBy
	}
	summaries, err := userSummaries(ctx, s.store.Users, creatorIDs...)
	if err != nil {
		return nil, err
	}
	teamNames := make(map[string]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}

	views := make([]db.ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, db.ProjectView{
			Project:  p,
			TeamName: teamNames[p.TeamID],
			Creator:  summaryPtr(summaries, p.CreatedBy),
		})
	}
	return views, nil
}

// GetProject retrieves a project the requester may read
func (s *ProjectService) GetProject(ctx context.Context, r *authz.Requester, projectID string) (*db.ProjectView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	chain, err := authorize(ctx, s.authz, r, authz.ActionRead, authz.Target{Kind: authz.ResourceProject, ID: projectID})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, chain.Project, chain.Team)
}

// UpdateProject applies the non-empty fields of input
func (s *ProjectService) UpdateProject(ctx context.Context, r *authz.Requester, projectID string, input UpdateProjectInput) (*db.ProjectView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	if input.Status != nil && *input.Status != "" && !input.Status.Valid() {
		return nil, authz.Invalid("unknown project status %q", *input.Status)
	}

	chain, err := authorize(ctx, s.authz, r, authz.ActionUpdate, authz.Target{Kind: authz.ResourceProject, ID: projectID})
	if err != nil {
		return nil, err
	}

	project := chain.Project
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		project.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil && *input.Description != "" {
		project.Description = *input.Description
	}
	if input.StartDate.Set() {
		project.StartDate = input.StartDate.Time
	}
	if input.EndDate.Set() {
		project.EndDate = input.EndDate.Ptr()
	}
	if input.Status != nil && *input.Status != "" {
		project.Status = *input.Status
	}
	if project.EndDate != nil && project.EndDate.Before(project.StartDate) {
		return nil, authz.Invalid("end_date must not be before start_date")
	}

	if err := s.store.Projects.Update(ctx, project); err != nil {
		return nil, storeError(err, authz.ResourceProject, projectID)
	}
	return s.view(ctx, project, chain.Team)
}

// DeleteProject deletes a project with its tasks and comments
func (s *ProjectService) DeleteProject(ctx context.Context, r *authz.Requester, projectID string) error {
	if err := requireRequester(r); err != nil {
		return err
	}
	if _, err := authorize(ctx, s.authz, r, authz.ActionDelete, authz.Target{Kind: authz.ResourceProject, ID: projectID}); err != nil {
		return err
	}
	if err := s.store.Projects.Delete(ctx, projectID); err != nil {
		return storeError(err, authz.ResourceProject, projectID)
	}
	return nil
}

func (s *ProjectService) view(ctx context.Context, project *db.Project, team *db.Team) (*db.ProjectView, error) {
	summaries, err := userSummaries(ctx, s.store.Users, project.CreatedBy)
	if err != nil {
		return nil, err
	}
	v := &db.ProjectView{Project: *project, Creator: summaryPtr(summaries, project.CreatedBy)}
	if team != nil {
		v.TeamName = team.Name
	}
	return v, nil
}
