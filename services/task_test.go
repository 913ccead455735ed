package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stachugit-s/teamtaskmanager2/authz"
	"github.com/Stachugit-s/teamtaskmanager2/db"
)

func TestTaskService_CreateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	team := env.teamX(t)
	project := env.project(t, team.ID, "L")

	task, err := env.services.Tasks.CreateTask(ctx, env.users["A"], CreateTaskInput{Title: "K", ProjectID: project.ID, AssignedTo: "C"})
	require.NoError(t, err)
	assert.Equal(t, db.TaskPriorityMedium, task.Priority)
	assert.Equal(t, db.TaskStatusTodo, task.Status)
	assert.Equal(t, "Project P", task.ProjectName)
	require.NotNil(t, task.Assignee)
	assert.Equal(t, "C", task.Assignee.ID)
	require.NotNil(t, task.Creator)
	assert.Equal(t, "A", task.Creator.ID)

	_, err = env.services.Tasks.CreateTask(ctx, env.users["A"], CreateTaskInput{Title: "K", ProjectID: project.ID, AssignedTo: "ghost"})
	assert.ErrorIs(t, err, authz.ErrNotFound)

	_, err = env.services.Tasks.CreateTask(ctx, env.users["M"], CreateTaskInput{Title: "K", ProjectID: project.ID})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	_, err = env.services.Tasks.CreateTask(ctx, env.users["A"], CreateTaskInput{Title: "K", ProjectID: project.ID, Priority: "urgent"})
	assert.ErrorIs(t, err, authz.ErrInvalidInput)
}

func TestTaskService_OrphanedTaskIsIntegrityError(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	orphan := &db.Task{Title: "orphan", ProjectID: "gone", CreatedBy: "A", Priority: db.TaskPriorityLow, Status: db.TaskStatusTodo}
	require.NoError(t, env.store.Tasks.Create(ctx, orphan))

	_, err := env.services.Tasks.GetTask(ctx, env.users["A"], orphan.ID)
	assert.ErrorIs(t, err, authz.ErrIntegrity)
	assert.EqualError(t, err, "project does not exist")
}

// Assignee may edit but not delete; the creator may do both
func TestTaskService_UpdateDeleteAsymmetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	team := env.teamX(t)
	project := env.project(t, team.ID, "L")
	task := env.task(t, project.ID, "A", "C")

	status := db.TaskStatusInProgress
	updated, err := env.services.Tasks.UpdateTask(ctx, env.users["C"], task.ID, UpdateTaskInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, db.TaskStatusInProgress, updated.Status)

	err = env.services.Tasks.DeleteTask(ctx, env.users["C"], task.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.EqualError(t, err, authz.ReasonTaskDelete)

	_, err = env.services.Tasks.UpdateTask(ctx, env.users["B"], task.ID, UpdateTaskInput{Status: &status})
	assert.ErrorIs(t, err, authz.ErrForbidden)

	require.NoError(t, env.services.Tasks.DeleteTask(ctx, env.users["A"], task.ID))
}

func TestTaskService_UpdateAssignee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	team := env.teamX(t)
	project := env.project(t, team.ID, "L")
	task := env.task(t, project.ID, "A", "C")

	ghost := "ghost"
	_, err := env.services.Tasks.UpdateTask(ctx, env.users["A"], task.ID, UpdateTaskInput{AssignedTo: &ghost})
	assert.ErrorIs(t, err, authz.ErrNotFound)

	// an empty assignee leaves the current one in place
	empty := ""
	updated, err := env.services.Tasks.UpdateTask(ctx, env.users["A"], task.ID, UpdateTaskInput{AssignedTo: &empty})
	require.NoError(t, err)
	assert.Equal(t, "C", updated.AssignedTo)

	b := "B"
	updated, err = env.services.Tasks.UpdateTask(ctx, env.users["A"], task.ID, UpdateTaskInput{AssignedTo: &b})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.AssignedTo)

	// C is no longer assignee and loses edit rights
	title := "stolen"
	_, err = env.services.Tasks.UpdateTask(ctx, env.users["C"], task.ID, UpdateTaskInput{Title: &title})
	assert.ErrorIs(t, err, authz.ErrForbidden)
}

func TestTaskService_ListTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	team := env.teamX(t)
	p1 := env.project(t, team.ID, "L")
	p2 := env.project(t, team.ID, "A")
	env.task(t, p1.ID, "A", "C")
	env.task(t, p1.ID, "A", "B")
	env.task(t, p2.ID, "B", "C")

	other, err := env.services.Teams.CreateTeam(ctx, env.users["M"], CreateTeamInput{Name: "Other"})
	require.NoError(t, err)
	hidden := env.project(t, other.ID, "M")
	env.task(t, hidden.ID, "M", "")

	tests := []struct {
		name      string
		requester string
		filter    TaskFilter
		want      int
		wantErr   error
	}{
		{"all visible", "B", TaskFilter{}, 3, nil},
		{"one project", "B", TaskFilter{ProjectID: p1.ID}, 2, nil},
		{"by assignee", "B", TaskFilter{AssignedTo: "C"}, 2, nil},
		{"project and assignee", "B", TaskFilter{ProjectID: p1.ID, AssignedTo: "C"}, 1, nil},
		{"other team project", "B", TaskFilter{ProjectID: hidden.ID}, 0, authz.ErrForbidden},
		{"missing project", "B", TaskFilter{ProjectID: "ghost"}, 0, authz.ErrNotFound},
		{"outsider sees own team only", "M", TaskFilter{}, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := env.services.Tasks.ListTasks(ctx, env.users[tt.requester], tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, tasks, tt.want)
		})
	}
}
