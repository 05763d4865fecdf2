package services

import (
	"context"
	"testing"

	"github.com/BadissRH/easypm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProjectReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	alice := f.addUser(t, "Alice", models.RoleCollaborator)
	bob := f.addUser(t, "Bob", models.RoleCollaborator)

	p, err := f.projectSvc.Create(ctx, pm, CreateProjectInput{
		Name:   "Apollo",
		Budget: 1000,
		Team:   []string{alice.UserID.Hex(), bob.UserID.Hex()},
	})
	require.NoError(t, err)

	completed := func(who models.AuthContext) CreateTaskInput {
		return CreateTaskInput{Title: "done", Status: models.TaskCompleted, Assignee: ptr(who.UserID.Hex())}
	}
	f.addTask(t, pm, p.ID, completed(alice))
	f.addTask(t, pm, p.ID, completed(alice))
	f.addTask(t, pm, p.ID, CreateTaskInput{Title: "todo"})
	f.addTask(t, pm, p.ID, CreateTaskInput{Title: "doing", Status: models.TaskInProgress, Assignee: ptr(bob.UserID.Hex())})
	f.addTask(t, pm, p.ID, CreateTaskInput{Title: "review", Status: models.TaskReview})

	report, err := f.reportSvc.ProjectReport(ctx, pm, p.ID)
	require.NoError(t, err)

	assert.Equal(t, 500.0, report.BudgetUsed)
	assert.Equal(t, models.TaskCounts{ToDo: 1, InProgress: 1, Completed: 2}, report.TaskCounts)
	assert.Equal(t, 5, report.TotalTasks)
	require.Len(t, report.TeamCompletion, 2)
	assert.Equal(t, models.MemberCompletion{UserID: alice.UserID, Name: "Alice", Email: "alice@easypm.test", Completed: 2}, report.TeamCompletion[0])
	assert.Equal(t, 0, report.TeamCompletion[1].Completed)
}

func TestProjectReportAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	member := f.addUser(t, "Mia", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", member.UserID)

	_, err := f.reportSvc.ProjectReport(ctx, member, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.reportSvc.ProjectReport(ctx, pm, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	report, err := f.reportSvc.ProjectReport(ctx, pm, p.ID)
	require.NoError(t, err)
	assert.Zero(t, report.TotalTasks)
	assert.Zero(t, report.BudgetUsed)
}
