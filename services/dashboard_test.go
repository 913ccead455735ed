package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stachugit-s/teamtaskmanager2/db"
)

func TestDashboardService_NoTeams(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.services.Dashboard.Stats(context.Background(), env.users["M"])
	require.NoError(t, err)

	assert.Zero(t, stats.TotalTeams)
	assert.Zero(t, stats.TotalProjects)
	assert.Zero(t, stats.TotalTasks)
	assert.Empty(t, stats.UpcomingTasks)
	assert.NotNil(t, stats.UpcomingTasks)
	assert.Empty(t, stats.RecentlyCompletedTasks)
	assert.Equal(t, 0, stats.TasksByStatus[db.TaskStatusTodo])
	assert.Len(t, stats.TasksByStatus, 4)
	assert.Len(t, stats.TasksByPriority, 3)
	assert.Len(t, stats.ProjectsByStatus, 4)
}

func TestDashboardService_Stats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.services.Dashboard.now = func() time.Time { return now }

	team := env.teamX(t)
	project := env.project(t, team.ID, "L")

	due := func(d time.Duration) Date {
		return DateOf(now.Add(d))
	}
	create := func(input CreateTaskInput) {
		input.ProjectID = project.ID
		_, err := env.services.Tasks.CreateTask(ctx, env.users["A"], input)
		require.NoError(t, err)
	}

	// seven upcoming, the list keeps the five soonest
	for i := 7; i >= 1; i-- {
		create(CreateTaskInput{Title: "upcoming", AssignedTo: "C", DueDate: due(time.Duration(i) * time.Hour)})
	}
	create(CreateTaskInput{Title: "overdue", DueDate: due(-time.Hour), Priority: db.TaskPriorityHigh})
	create(CreateTaskInput{Title: "no due date", Status: db.TaskStatusReview, Priority: db.TaskPriorityLow})
	create(CreateTaskInput{Title: "done early", Status: db.TaskStatusCompleted, AssignedTo: "C", DueDate: due(time.Hour)})
	create(CreateTaskInput{Title: "done late", Status: db.TaskStatusCompleted})

	// a team C is not in does not count
	other, err := env.services.Teams.CreateTeam(ctx, env.users["M"], CreateTeamInput{Name: "Other"})
	require.NoError(t, err)
	hidden := env.project(t, other.ID, "M")
	env.task(t, hidden.ID, "M", "")

	stats, err := env.services.Dashboard.Stats(ctx, env.users["C"])
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalTeams)
	assert.Equal(t, 1, stats.TotalProjects)
	assert.Equal(t, 11, stats.TotalTasks)
	assert.Equal(t, 8, stats.UserAssignedTasks)

	assert.Equal(t, 8, stats.TasksByStatus[db.TaskStatusTodo])
	assert.Equal(t, 1, stats.TasksByStatus[db.TaskStatusReview])
	assert.Equal(t, 2, stats.TasksByStatus[db.TaskStatusCompleted])
	assert.Equal(t, 0, stats.TasksByStatus[db.TaskStatusInProgress])
	assert.Equal(t, 7, stats.UserTasksByStatus[db.TaskStatusTodo])
	assert.Equal(t, 1, stats.UserTasksByStatus[db.TaskStatusCompleted])

	assert.Equal(t, 9, stats.TasksByPriority[db.TaskPriorityMedium])
	assert.Equal(t, 1, stats.TasksByPriority[db.TaskPriorityHigh])
	assert.Equal(t, 1, stats.TasksByPriority[db.TaskPriorityLow])
	assert.Equal(t, 1, stats.ProjectsByStatus[db.ProjectStatusPlanned])

	require.Len(t, stats.UpcomingTasks, 5)
	for i, task := range stats.UpcomingTasks {
		require.NotNil(t, task.DueDate)
		assert.Equal(t, now.Add(time.Duration(i+1)*time.Hour), *task.DueDate)
		assert.Equal(t, "Project P", task.ProjectName)
	}

	require.Len(t, stats.RecentlyCompletedTasks, 2)
	for _, task := range stats.RecentlyCompletedTasks {
		assert.Equal(t, db.TaskStatusCompleted, task.Status)
	}
}

func TestDashboardService_RecentlyCompletedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	team := env.teamX(t)
	project := env.project(t, team.ID, "L")

	ids := map[string]string{}
	for _, title := range []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7"} {
		task, err := env.services.Tasks.CreateTask(ctx, env.users["A"], CreateTaskInput{Title: title, ProjectID: project.ID})
		require.NoError(t, err)
		ids[title] = task.ID
	}

	completed := db.TaskStatusCompleted
	for _, title := range []string{"c3", "c1", "c7", "c5", "c2", "c6", "c4"} {
		time.Sleep(2 * time.Millisecond)
		_, err := env.services.Tasks.UpdateTask(ctx, env.users["A"], ids[title], UpdateTaskInput{Status: &completed})
		require.NoError(t, err)
	}

	stats, err := env.services.Dashboard.Stats(ctx, env.users["L"])
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TasksByStatus[db.TaskStatusCompleted])

	require.Len(t, stats.RecentlyCompletedTasks, 5)
	titles := make([]string, 0, 5)
	for i, task := range stats.RecentlyCompletedTasks {
		titles = append(titles, task.Title)
		if i > 0 {
			assert.True(t, task.UpdatedAt.Before(stats.RecentlyCompletedTasks[i-1].UpdatedAt),
				"%s should be older than %s", task.Title, stats.RecentlyCompletedTasks[i-1].Title)
		}
	}
	assert.Equal(t, []string{"c4", "c6", "c2", "c5", "c7"}, titles)
}

func TestDashboardService_AdminScope(t *testing.T) {
	env := newTestEnv(t)
	team := env.teamX(t)
	env.project(t, team.ID, "L")

	stats, err := env.services.Dashboard.Stats(context.Background(), env.users["root"])
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTeams)
	assert.Zero(t, stats.TotalProjects)
}
