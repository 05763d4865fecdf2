package services

import (
	"context"
	"testing"
	"time"

	"github.com/BadissRH/easypm/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTaskDefaultsAndEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", dev.UserID)

	task, err := f.taskSvc.Create(ctx, pm, p.ID, CreateTaskInput{Title: "Design", Assignee: ptr(dev.UserID.Hex())})
	require.NoError(t, err)
	assert.Equal(t, models.TaskToDo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.True(t, task.AssignedTo(dev.UserID))

	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	require.Equal(t, models.ActionTaskCreated, entries[0].Action)
	details := entries[0].Details.(models.TaskCreatedDetails)
	assert.Equal(t, task.ID.Hex(), details.TaskID)
	assert.Equal(t, dev.UserID.Hex(), *details.Assignee)

	notes, err := f.notifySvc.List(ctx, dev)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, task.ID.Hex(), notes[0].TaskID)
}

func TestCreateTaskAccessAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	member := f.addUser(t, "Mia", models.RoleCollaborator)
	outsider := f.addUser(t, "Otto", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", member.UserID)

	_, err := f.taskSvc.Create(ctx, member, p.ID, CreateTaskInput{Title: "ok"})
	assert.NoError(t, err)

	_, err = f.taskSvc.Create(ctx, outsider, p.ID, CreateTaskInput{Title: "no"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.taskSvc.Create(ctx, pm, p.ID, CreateTaskInput{Title: "x", Assignee: ptr(outsider.UserID.Hex())})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.taskSvc.Create(ctx, pm, p.ID, CreateTaskInput{Title: "x", Status: "Sleeping"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.taskSvc.Create(ctx, pm, primitive.NewObjectID(), CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTaskEmitsEntriesInOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", dev.UserID)
	task := f.addTask(t, pm, p.ID, CreateTaskInput{Title: "Design"})

	inProgress := models.TaskInProgress
	high := models.PriorityHigh
	updated, err := f.taskSvc.Update(ctx, pm, task.ID, UpdateTaskInput{
		Title:    ptr("Design v2"),
		Status:   &inProgress,
		Priority: &high,
		Assignee: Some(dev.UserID.Hex()),
	})
	require.NoError(t, err)
	assert.Equal(t, "Design v2", updated.Title)

	assert.Equal(t, []models.Action{
		models.ActionTaskUpdated,
		models.ActionTaskReassigned,
		models.ActionTaskStatusChanged,
		models.ActionTaskCreated,
		models.ActionCreated,
	}, f.actions(t, p.ID))

	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	upd := entries[0].Details.(models.TaskUpdatedDetails)
	assert.Len(t, upd.Changes, 2)
	assert.Equal(t, models.FieldChange{From: models.PriorityMedium, To: models.PriorityHigh}, upd.Changes["priority"])
	re := entries[1].Details.(models.TaskReassignedDetails)
	assert.Equal(t, dev.UserID.Hex(), *re.To)

	_, err = f.taskSvc.Update(ctx, pm, task.ID, UpdateTaskInput{Assignee: Null[string]()})
	require.NoError(t, err)
	entries, _ = f.activityStore.ListByProject(ctx, p.ID)
	re = entries[0].Details.(models.TaskReassignedDetails)
	assert.Nil(t, re.To)

	stored, _ := f.tasks.GetByID(ctx, task.ID)
	assert.Nil(t, stored.Assignee)
}

func TestUpdateTaskNoChangesEmitsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	p := f.addProject(t, pm, "Apollo")
	task := f.addTask(t, pm, p.ID, CreateTaskInput{Title: "Design"})

	todo := models.TaskToDo
	_, err := f.taskSvc.Update(ctx, pm, task.ID, UpdateTaskInput{Title: ptr("Design"), Status: &todo, Assignee: Null[string]()})
	require.NoError(t, err)
	assert.Len(t, f.actions(t, p.ID), 2)
}

func TestUpdateTaskKeepsAssigneeRemovedFromTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	mia := f.addUser(t, "Mia", models.RoleCollaborator)
	other := f.addUser(t, "Omar", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", mia.UserID)
	task := f.addTask(t, pm, p.ID, CreateTaskInput{Title: "T1", Assignee: ptr(mia.UserID.Hex())})

	_, err := f.projectSvc.Update(ctx, pm, p.ID, UpdateProjectInput{Team: &[]string{}})
	require.NoError(t, err)

	updated, err := f.taskSvc.Update(ctx, pm, task.ID, UpdateTaskInput{Title: ptr("T2"), Assignee: Some(mia.UserID.Hex())})
	require.NoError(t, err)
	assert.Equal(t, "T2", updated.Title)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, mia.UserID, *updated.Assignee)

	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	upd, ok := entries[0].Details.(models.TaskUpdatedDetails)
	require.True(t, ok)
	assert.Equal(t, models.FieldChange{From: "T1", To: "T2"}, upd.Changes["title"])
	assert.Equal(t, models.ActionTeamChanged, entries[1].Action)

	_, err = f.taskSvc.Update(ctx, pm, task.ID, UpdateTaskInput{Assignee: Some(other.UserID.Hex())})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.taskSvc.Update(ctx, pm, task.ID, UpdateTaskInput{Assignee: Some("not-an-id")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateTaskEntriesShareNewTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", dev.UserID)
	task := f.addTask(t, pm, p.ID, CreateTaskInput{Title: "Design"})

	done := models.TaskCompleted
	_, err := f.taskSvc.Update(ctx, pm, task.ID, UpdateTaskInput{
		Title:    ptr("  Design v2 "),
		Status:   &done,
		Assignee: Some(dev.UserID.Hex()),
	})
	require.NoError(t, err)

	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	require.Len(t, entries, 5)
	assert.Equal(t, "Design v2", entries[0].Details.(models.TaskUpdatedDetails).Title)
	assert.Equal(t, "Design v2", entries[1].Details.(models.TaskReassignedDetails).Title)
	assert.Equal(t, "Design v2", entries[2].Details.(models.TaskStatusChangedDetails).Title)
}

func TestTaskEditAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	member := f.addUser(t, "Mia", models.RoleCollaborator)
	outsider := f.addUser(t, "Otto", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", member.UserID)
	task := f.addTask(t, pm, p.ID, CreateTaskInput{Title: "Design"})

	_, err := f.taskSvc.Update(ctx, member, task.ID, UpdateTaskInput{Description: ptr("details")})
	assert.NoError(t, err)

	_, err = f.taskSvc.Update(ctx, outsider, task.ID, UpdateTaskInput{Description: ptr("nope")})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.taskSvc.AddComment(ctx, outsider, task.ID, CommentInput{Text: "hi"})
	assert.ErrorIs(t, err, ErrForbidden)

	err = f.taskSvc.Delete(ctx, member, task.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, f.taskSvc.Delete(ctx, pm, task.ID))
	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	assert.Equal(t, models.TaskDeletedDetails{TaskID: task.ID.Hex(), Title: "Design"}, entries[0].Details)
}

func TestCommentsAndAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", dev.UserID)
	task := f.addTask(t, dev, p.ID, CreateTaskInput{Title: "Design", Assignee: ptr(dev.UserID.Hex())})

	comment, err := f.taskSvc.AddComment(ctx, pm, task.ID, CommentInput{Text: "looks good"})
	require.NoError(t, err)
	assert.Equal(t, pm.UserID, comment.Author)

	_, err = f.taskSvc.AddComment(ctx, pm, task.ID, CommentInput{Text: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	attachment, err := f.taskSvc.AddAttachment(ctx, dev, task.ID, AttachmentInput{Name: "spec.pdf", URL: "https://files.test/spec.pdf", MimeType: "application/pdf"})
	require.NoError(t, err)

	_, err = f.taskSvc.AddAttachment(ctx, dev, task.ID, AttachmentInput{Name: "bad", URL: "not a url"})
	assert.ErrorIs(t, err, ErrValidation)

	stored, _ := f.tasks.GetByID(ctx, task.ID)
	assert.Len(t, stored.Comments, 1)
	assert.True(t, stored.UpdatedAt.Equal(attachment.UploadedAt))
	assert.True(t, comment.CreatedAt.Before(attachment.UploadedAt))
	assert.Len(t, stored.Attachments, 1)

	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	att := entries[0].Details.(models.TaskUpdatedDetails)
	assert.Equal(t, models.FieldChange{From: 0, To: 1}, att.Changes["attachments"])
	assert.Equal(t, models.ActionCommentAdded, entries[1].Action)

	// Dev assigned the task to themself, so only the comment notified them.
	notes, _ := f.notifySvc.List(ctx, dev)
	assert.Len(t, notes, 1)
}

func TestListDueAndByAssigneeFilterByAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)
	mine := f.addProject(t, pm, "Mine", dev.UserID)
	other := f.addProject(t, pm, "Other", pm.UserID)

	due := func(d int) *time.Time {
		v := time.Date(2024, 7, d, 12, 0, 0, 0, time.UTC)
		return &v
	}
	f.addTask(t, pm, mine.ID, CreateTaskInput{Title: "a", DueDate: due(10)})
	f.addTask(t, pm, other.ID, CreateTaskInput{Title: "b", DueDate: due(5), Assignee: ptr(pm.UserID.Hex())})
	f.addTask(t, pm, mine.ID, CreateTaskInput{Title: "c", DueDate: due(30)})

	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC)

	all, err := f.taskSvc.ListDue(ctx, pm, from, to)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Title)

	visible, err := f.taskSvc.ListDue(ctx, dev, from, to)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "a", visible[0].Title)

	_, err = f.taskSvc.ListDue(ctx, pm, to, from)
	assert.ErrorIs(t, err, ErrValidation)

	byPM, err := f.taskSvc.ListByAssignee(ctx, dev, pm.UserID)
	require.NoError(t, err)
	assert.Empty(t, byPM)

	mineTasks, err := f.taskSvc.ListMine(ctx, pm)
	require.NoError(t, err)
	assert.Len(t, mineTasks, 1)
}
