package services

import (
	"context"
	"errors"
	"testing"

	"github.com/BadissRH/easypm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateProjectRecordsCreated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)

	p, err := f.projectSvc.Create(ctx, pm, CreateProjectInput{
		Name:        "Apollo",
		Description: "moon",
		Team:        []string{dev.UserID.Hex()},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ProjectActive, p.Status)
	assert.Equal(t, models.MethodologyNone, p.Methodology)
	assert.Equal(t, pm.UserID, p.CreatedBy)

	entries, err := f.activityStore.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionCreated, entries[0].Action)
	assert.Equal(t, models.CreatedDetails{Name: "Apollo", Description: "moon"}, entries[0].Details)
	assert.Equal(t, pm.UserID, *entries[0].UserID)

	member, err := f.users.GetByID(ctx, dev.UserID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{p.ID}, member.Projects)
}

func TestCreateProjectValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)

	_, err := f.projectSvc.Create(ctx, dev, CreateProjectInput{Name: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	cases := map[string]CreateProjectInput{
		"missing name":   {},
		"bad status":     {Name: "x", Status: "Sleeping"},
		"bad progress":   {Name: "x", Progress: 101},
		"negative":       {Name: "x", Budget: -1},
		"unknown member": {Name: "x", Team: []string{primitive.NewObjectID().Hex()}},
		"bad member id":  {Name: "x", Team: []string{"nope"}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.projectSvc.Create(ctx, pm, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	all, _ := f.activityStore.ListAll(ctx)
	assert.Empty(t, all)
}

func TestUpdateProjectStatusAndProgressEmitsTwoEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	p := f.addProject(t, pm, "Apollo")

	onHold := models.ProjectOnHold
	updated, err := f.projectSvc.Update(ctx, pm, p.ID, UpdateProjectInput{Status: &onHold, Progress: ptr(40)})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectOnHold, updated.Status)
	assert.Equal(t, 40, updated.Progress)

	entries, err := f.activityStore.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.ProgressUpdatedDetails{From: 0, To: 40}, entries[0].Details)
	assert.Equal(t, models.StatusChangedDetails{From: models.ProjectActive, To: models.ProjectOnHold}, entries[1].Details)
	assert.Equal(t, models.ActionCreated, entries[2].Action)
}

func TestUpdateProjectUnchangedFieldsEmitNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	p := f.addProject(t, pm, "Apollo")

	active := models.ProjectActive
	_, err := f.projectSvc.Update(ctx, pm, p.ID, UpdateProjectInput{
		Name:     ptr("Apollo"),
		Status:   &active,
		Progress: ptr(0),
		Team:     &[]string{},
	})
	require.NoError(t, err)

	assert.Equal(t, []models.Action{models.ActionCreated}, f.actions(t, p.ID))
}

func TestUpdateProjectTeamAndOtherFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	a := f.addUser(t, "Alice", models.RoleCollaborator)
	b := f.addUser(t, "Bob", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", a.UserID)

	_, err := f.projectSvc.Update(ctx, pm, p.ID, UpdateProjectInput{
		Name:        ptr("Artemis"),
		Description: ptr("return"),
		Team:        &[]string{b.UserID.Hex()},
		Budget:      ptr(1000.0),
	})
	require.NoError(t, err)

	entries, err := f.activityStore.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	team, ok := entries[1].Details.(models.TeamChangedDetails)
	require.True(t, ok)
	assert.Equal(t, []string{b.UserID.Hex()}, team.Added)
	assert.Equal(t, []string{a.UserID.Hex()}, team.Removed)

	upd, ok := entries[0].Details.(models.UpdatedDetails)
	require.True(t, ok)
	assert.Len(t, upd.Changes, 3)
	assert.Equal(t, models.FieldChange{From: "Apollo", To: "Artemis"}, upd.Changes["name"])
	assert.Equal(t, models.FieldChange{From: 0.0, To: 1000.0}, upd.Changes["budget"])

	alice, _ := f.users.GetByID(ctx, a.UserID)
	bob, _ := f.users.GetByID(ctx, b.UserID)
	assert.Empty(t, alice.Projects)
	assert.Equal(t, []primitive.ObjectID{p.ID}, bob.Projects)
}

func TestCollaboratorMayOnlyChangeStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	member := f.addUser(t, "Mia", models.RoleCollaborator)
	outsider := f.addUser(t, "Otto", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", member.UserID)

	done := models.ProjectCompleted
	_, err := f.projectSvc.Update(ctx, member, p.ID, UpdateProjectInput{Status: &done})
	require.NoError(t, err)

	_, err = f.projectSvc.Update(ctx, member, p.ID, UpdateProjectInput{Status: &done, Progress: ptr(100)})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.projectSvc.Update(ctx, outsider, p.ID, UpdateProjectInput{Status: &done})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.projectSvc.Get(ctx, outsider, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.projectSvc.Get(ctx, member, p.ID)
	assert.NoError(t, err)
}

func TestListProjectsByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	member := f.addUser(t, "Mia", models.RoleCollaborator)
	f.addProject(t, pm, "Mine", member.UserID)
	f.addProject(t, pm, "Other")

	all, err := f.projectSvc.List(ctx, pm)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := f.projectSvc.List(ctx, member)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Mine", own[0].Name)
}

func TestDeleteProjectCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	member := f.addUser(t, "Mia", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", member.UserID)
	f.addTask(t, pm, p.ID, CreateTaskInput{Title: "one"})
	f.addTask(t, pm, p.ID, CreateTaskInput{Title: "two"})

	err := f.projectSvc.Delete(ctx, member, p.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.projectSvc.Delete(ctx, pm, p.ID))

	_, err = f.projectSvc.Get(ctx, pm, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	tasks, _ := f.tasks.ListByProject(ctx, p.ID)
	assert.Empty(t, tasks)
	u, _ := f.users.GetByID(ctx, member.UserID)
	assert.Empty(t, u.Projects)

	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	require.NotEmpty(t, entries)
	assert.Equal(t, models.DeletedDetails{Name: "Apollo", ID: p.ID.Hex()}, entries[0].Details)

	err = f.projectSvc.Delete(ctx, pm, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	p := f.addProject(t, pm, "Apollo")

	f.activityStore.FailAppends(errors.New("audit store down"))
	onHold := models.ProjectOnHold
	_, err := f.projectSvc.Update(ctx, pm, p.ID, UpdateProjectInput{Status: &onHold})
	require.NoError(t, err)
	f.activityStore.FailAppends(nil)

	stored, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectOnHold, stored.Status)
	assert.Equal(t, []models.Action{models.ActionCreated}, f.actions(t, p.ID))
}
