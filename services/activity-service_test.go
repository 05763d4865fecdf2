package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BadissRH/easypm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestListForProjectAccessAndOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	member := f.addUser(t, "Mia", models.RoleCollaborator)
	outsider := f.addUser(t, "Otto", models.RoleCollaborator)
	mine := f.addProject(t, pm, "Mine", member.UserID)
	f.addProject(t, pm, "Other", outsider.UserID)
	f.addTask(t, member, mine.ID, CreateTaskInput{Title: "one"})

	_, err := f.activity.ListForProject(ctx, outsider, mine.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.activity.ListForProject(ctx, pm, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)

	views, err := f.activity.ListForProject(ctx, member, mine.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, models.ActionTaskCreated, views[0].Action)
	assert.Equal(t, models.ActionCreated, views[1].Action)
	assert.False(t, views[0].CreatedAt.Before(views[1].CreatedAt))
	for _, v := range views {
		assert.Equal(t, mine.ID, v.ProjectID)
	}
	require.NotNil(t, views[0].User)
	assert.Equal(t, "Mia", views[0].User.Name)
	assert.Equal(t, "Petra", views[1].User.Name)
}

func TestListForProjectResolvesMissingActorsToNil(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	p := f.addProject(t, pm, "Apollo")

	ghost := primitive.NewObjectID()
	_, err := f.activity.Append(ctx, p.ID, &ghost, models.StatusChangedDetails{From: models.ProjectActive, To: models.ProjectOnHold})
	require.NoError(t, err)
	_, err = f.activity.Append(ctx, p.ID, nil, models.ProgressUpdatedDetails{From: 0, To: 10})
	require.NoError(t, err)

	views, err := f.activity.ListForProject(ctx, pm, p.ID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Nil(t, views[0].User)
	assert.Nil(t, views[0].UserID)
	assert.Nil(t, views[1].User)
	assert.Equal(t, ghost, *views[1].UserID)
	assert.NotNil(t, views[2].User)
}

func TestListAllIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "Ada", models.RoleAdmin)
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	f.addProject(t, pm, "One")
	f.addProject(t, pm, "Two")

	_, err := f.activity.ListAll(ctx, pm)
	assert.ErrorIs(t, err, ErrForbidden)

	views, err := f.activity.ListAll(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestAppendUsesServiceClockAndBreaker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.activity.Breaker = NewBreaker("activity-test", time.Minute)
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	p := f.addProject(t, pm, "Apollo")

	entry, err := f.activity.Append(ctx, p.ID, &pm.UserID, models.ProgressUpdatedDetails{From: 0, To: 5})
	require.NoError(t, err)
	assert.Equal(t, models.ActionProgressUpdated, entry.Action)
	assert.False(t, entry.CreatedAt.IsZero())

	down := errors.New("store down")
	f.activityStore.FailAppends(down)
	_, err = f.activity.Append(ctx, p.ID, nil, models.ProgressUpdatedDetails{From: 5, To: 6})
	assert.ErrorIs(t, err, down)

	_, err = f.activity.Append(ctx, p.ID, nil, nil)
	assert.Error(t, err)
}
