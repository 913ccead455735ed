package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

// dashboardListLimit caps the upcoming and recently completed lists
const dashboardListLimit = 5

// DashboardStats aggregates the requester's visible teams, projects and tasks
type DashboardStats struct {
	TotalTeams             int                      `json:"total_teams"`
	TotalProjects          int                      `json:"total_projects"`
	TotalTasks             int                      `json:"total_tasks"`
	UserAssignedTasks      int                      `json:"user_assigned_tasks"`
	TasksByStatus          map[db.TaskStatus]int    `json:"tasks_by_status"`
	UserTasksByStatus      map[db.TaskStatus]int    `json:"user_tasks_by_status"`
	TasksByPriority        map[db.TaskPriority]int  `json:"tasks_by_priority"`
	ProjectsByStatus       map[db.ProjectStatus]int `json:"projects_by_status"`
	UpcomingTasks          []db.TaskView            `json:"upcoming_tasks"`
	RecentlyCompletedTasks []db.TaskView            `json:"recently_completed_tasks"`
}

func newDashboardStats() *DashboardStats {
	return &DashboardStats{
		TasksByStatus: map[db.TaskStatus]int{
			db.TaskStatusTodo: 0, db.TaskStatusInProgress: 0, db.TaskStatusReview: 0, db.TaskStatusCompleted: 0,
		},
		UserTasksByStatus: map[db.TaskStatus]int{
			db.TaskStatusTodo: 0, db.TaskStatusInProgress: 0, db.TaskStatusReview: 0, db.TaskStatusCompleted: 0,
		},
		TasksByPriority: map[db.TaskPriority]int{
			db.TaskPriorityLow: 0, db.TaskPriorityMedium: 0, db.TaskPriorityHigh: 0,
		},
		ProjectsByStatus: map[db.ProjectStatus]int{
			db.ProjectStatusPlanned: 0, db.ProjectStatusInProgress: 0, db.ProjectStatusOnHold: 0, db.ProjectStatusCompleted: 0,
		},
		UpcomingTasks:          []db.TaskView{},
		RecentlyCompletedTasks: []db.TaskView{},
	}
}

// DashboardService computes read-only statistics over the visible scope
type DashboardService struct {
	store *store.Store
	now   func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(s *store.Store) *DashboardService {
	return &DashboardService{store: s, now: time.Now}
}

// Stats computes the dashboard for the requester. A requester in no team gets
// zero counts and empty lists.
func (s *DashboardService) Stats(ctx context.Context, r *authz.Requester) (*DashboardStats, error) {
	if err := requireRequester(r); err != nil {
		return nil, err
	}

	stats := newDashboardStats()

	teams, err := visibleTeams(ctx, s.store, r)
	if err != nil {
		return nil, err
	}
	stats.TotalTeams = len(teams)
	if len(teams) == 0 {
		return stats, nil
	}

	projects, err := s.store.Projects.ListByTeams(ctx, teamIDs(teams))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	tasks, err := s.store.Tasks.ListByProjects(ctx, projectIDs(projects), "")
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	stats.TotalProjects = len(projects)
	stats.TotalTasks = len(tasks)
	for _, p := range projects {
		stats.ProjectsByStatus[p.Status]++
	}

	now := s.now()
	var upcoming, completed []db.Task
	for _, t := range tasks {
		stats.TasksByStatus[t.Status]++
		stats.TasksByPriority[t.Priority]++
		if t.AssignedTo == r.ID {
			stats.UserAssignedTasks++
			stats.UserTasksByStatus[t.Status]++
		}
		if t.Status == db.TaskStatusCompleted {
			completed = append(completed, t)
		} else if t.DueDate != nil && !t.DueDate.Before(now) {
			upcoming = append(upcoming, t)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].DueDate.Before(*upcoming[j].DueDate) })
	sort.SliceStable(completed, func(i, j int) bool { return completed[i].UpdatedAt.After(completed[j].UpdatedAt) })

	if stats.UpcomingTasks, err = taskViews(ctx, s.store.Users, limitTasks(upcoming), projects); err != nil {
		return nil, err
	}
	if stats.RecentlyCompletedTasks, err = taskViews(ctx, s.store.Users, limitTasks(completed), projects); err != nil {
		return nil, err
	}
	return stats, nil
}

func limitTasks(tasks []db.Task) []db.Task {
	if len(tasks) > dashboardListLimit {
		return tasks[:dashboardListLimit]
	}
	return tasks
}
