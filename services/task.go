package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// TaskService handles task business logic
type TaskService struct {
	authz authz.Authorizer
	store *store.Store
}

// NewTaskService creates a new task service
func NewTaskService(az authz.Authorizer, s *store.Store) *TaskService {
	return &TaskService{authz: az, store: s}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description,omitempty"`
	ProjectID   string          `json:"project_id" binding:"required"`
	AssignedTo  string          `json:"assigned_to,omitempty"`
	DueDate     Date            `json:"due_date,omitempty"`
	Priority    db.TaskPriority `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	Status      db.TaskStatus   `json:"status,omitempty" binding:"omitempty,oneof=todo in-progress review completed"`
}

// UpdateTaskInput represents input for updating a task; nil or empty fields are kept
type UpdateTaskInput struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	AssignedTo  *string          `json:"assigned_to,omitempty"`
	DueDate     Date             `json:"due_date,omitempty"`
	Priority    *db.TaskPriority `json:"priority,omitempty"`
	Status      *db.TaskStatus   `json:"status,omitempty"`
}

// TaskFilter narrows ListTasks
type TaskFilter struct {
	ProjectID  string
	AssignedTo string
}

// CreateTask creates a task in a project of a team the requester belongs to
func (s *TaskService) CreateTask(ctx context.Context, r *authz.Requester, input CreateTaskInput) (*db.TaskView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, authz.Invalid("task title is required")
	}
	if input.ProjectID == "" {
		return nil, authz.Invalid("project_id is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = db.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, authz.Invalid("unknown task priority %q", priority)
	}
	status := input.Status
	if status == "" {
		status = db.TaskStatusTodo
	}
	if !status.Valid() {
		return nil, authz.Invalid("unknown task status %q", status)
	}

	chain, err := authorize(ctx, s.authz, r, authz.ActionCreate, authz.Target{Kind: authz.ResourceTask, ParentID: input.ProjectID})
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	task := &db.Task{
		Title:       title,
		Description: input.Description,
		ProjectID:   chain.Project.ID,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   r.ID,
		DueDate:     input.DueDate.Ptr(),
		Priority:    priority,
		Status:      status,
	}
	if err := s.store.Tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return s.view(ctx, task, chain.Project)
}

// ListTasks returns the tasks of filter.ProjectID, or of every project in a
// visible team when it is empty, optionally narrowed to one assignee
func (s *TaskService) ListTasks(ctx context.Context, r *authz.Requester, filter TaskFilter) ([]db.TaskView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}

	var projects []db.Project
	if filter.ProjectID != "" {
		chain, err := authorize(ctx, s.authz, r, authz.ActionRead, authz.Target{Kind: authz.ResourceTask, ParentID: filter.ProjectID})
		if err != nil {
			return nil, err
		}
		projects = []db.Project{*chain.Project}
	} else {
		teams, err := visibleTeams(ctx, s.store, r)
		if err != nil {
			return nil, err
		}
		projects, err = s.store.Projects.ListByTeams(ctx, teamIDs(teams))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}
	}

	tasks, err := s.store.Tasks.ListByProjects(ctx, projectIDs(projects), filter.AssignedTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return taskViews(ctx, s.store.Users, tasks, projects)
}

// GetTask retrieves a task the requester may read
func (s *TaskService) GetTask(ctx context.Context, r *authz.Requester, taskID string) (*db.TaskView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	chain, err := authorize(ctx, s.authz, r, authz.ActionRead, authz.Target{Kind: authz.ResourceTask, ID: taskID})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, chain.Task, chain.Project)
}

// UpdateTask applies the non-empty fields of input
func (s *TaskService) UpdateTask(ctx context.Context, r *authz.Requester, taskID string, input UpdateTaskInput) (*db.TaskView, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}
	if input.Priority != nil && *input.Priority != "" && !input.Priority.Valid() {
		return nil, authz.Invalid("unknown task priority %q", *input.Priority)
	}
	if input.Status != nil && *input.Status != "" && !input.Status.Valid() {
		return nil, authz.Invalid("unknown task status %q", *input.Status)
	}

	chain, err := authorize(ctx, s.authz, r, authz.ActionUpdate, authz.Target{Kind: authz.ResourceTask, ID: taskID})
	if err != nil {
		return nil, err
	}

	task := chain.Task
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil && *input.Description != "" {
		task.Description = *input.Description
	}
	if input.AssignedTo != nil && *input.AssignedTo != "" && *input.AssignedTo != task.AssignedTo {
		if err := s.checkAssignee(ctx, *input.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = *input.AssignedTo
	}
	if input.DueDate.Set() {
		task.DueDate = input.DueDate.Ptr()
	}
	if input.Priority != nil && *input.Priority != "" {
		task.Priority = *input.Priority
	}
	if input.Status != nil && *input.Status != "" {
		task.Status = *input.Status
	}

	if err := s.store.Tasks.Update(ctx, task); err != nil {
		return nil, storeError(err, authz.ResourceTask, taskID)
	}
	return s.view(ctx, task, chain.Project)
}

// DeleteTask deletes a task with its comments
func (s *TaskService) DeleteTask(ctx context.Context, r *authz.Requester, taskID string) error {
	if err := requireRequester(r); err != nil {
		return err
	}
	if _, err := authorize(ctx, s.authz, r, authz.ActionDelete, authz.Target{Kind: authz.ResourceTask, ID: taskID}); err != nil {
		return err
	}
	if err := s.store.Tasks.Delete(ctx, taskID); err != nil {
		return storeError(err, authz.ResourceTask, taskID)
	}
	return nil
}

func (s *TaskService) checkAssignee(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	if _, err := s.store.Users.Get(ctx, userID); err != nil {
		return storeError(err, kindUser, userID)
	}
	return nil
}

func (s *TaskService) view(ctx context.Context, task *db.Task, project *db.Project) (*db.TaskView, error) {
	views, err := taskViews(ctx, s.store.Users, []db.Task{*task}, []db.Project{*project})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// taskViews decorates tasks with project names and assignee/creator summaries
func taskViews(ctx context.Context, users store.UserRepository, tasks []db.Task, projects []db.Project) ([]db.TaskView, error) {
	ids := make([]string, 0, 2*len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.AssignedTo, t.CreatedBy)
	}
	summaries, err := userSummaries(ctx, users, ids...)
	if err != nil {
		return nil, err
	}
	projectNames := make(map[string]string, len(projects))
	for _, p := range projects {
		projectNames[p.ID] = p.Name
	}

	views := make([]db.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, db.TaskView{
			Task:        t,
			ProjectName: projectNames[t.ProjectID],
			Assignee:    summaryPtr(summaries, t.AssignedTo),
			Creator:     summaryPtr(summaries, t.CreatedBy),
		})
	}
	return views, nil
}
