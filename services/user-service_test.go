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

func TestLoginRecordsAuthEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "Ada", models.RoleAdmin)
	pm := f.addUser(t, "Petra", models.RoleProjectManager)

	token, user, err := f.userSvc.Login(ctx, LoginInput{Email: "PETRA@easypm.test", Password: "Secret1!"}, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, pm.UserID, user.ID)

	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: "petra@easypm.test", Password: "wrong"}, "10.0.0.2")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: "nobody@easypm.test", Password: "Secret1!"}, "10.0.0.3")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: "not-an-email", Password: "x"}, "10.0.0.4")
	assert.ErrorIs(t, err, ErrValidation)

	f.userSvc.Logout(ctx, pm, "10.0.0.1")

	_, err = f.userSvc.ListAuthEvents(ctx, pm)
	assert.ErrorIs(t, err, ErrForbidden)

	events, err := f.userSvc.ListAuthEvents(ctx, admin)
	require.NoError(t, err)
	require.Len(t, events, 4)
	assert.Equal(t, models.AuthLogout, events[0].Kind)
	assert.Equal(t, models.AuthLoginFailure, events[1].Kind)
	assert.Nil(t, events[1].UserID)
	assert.Equal(t, "10.0.0.3", events[1].SourceAddress)
	assert.Equal(t, models.AuthLoginFailure, events[2].Kind)
	assert.Equal(t, pm.UserID, *events[2].UserID)
	assert.Equal(t, models.AuthLoginSuccess, events[3].Kind)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "Ada", models.RoleAdmin)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)

	token, _, err := f.userSvc.Login(ctx, LoginInput{Email: dev.Email, Password: "Secret1!"}, "")
	require.NoError(t, err)

	auth, err := f.userSvc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, dev.UserID, auth.UserID)
	assert.Equal(t, models.RoleCollaborator, auth.Role)

	// Role changes apply to tokens issued earlier.
	_, err = f.userSvc.ChangeRole(ctx, admin, dev.UserID, ChangeRoleInput{Role: models.RoleProjectManager})
	require.NoError(t, err)
	auth, err = f.userSvc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleProjectManager, auth.Role)

	_, err = f.userSvc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, f.userSvc.Delete(ctx, admin, dev.UserID))
	_, err = f.userSvc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestInviteAndAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "Ada", models.RoleAdmin)
	pm := f.addUser(t, "Petra", models.RoleProjectManager)

	_, err := f.userSvc.Invite(ctx, pm, InviteInput{Name: "New", Email: "new@easypm.test"})
	assert.ErrorIs(t, err, ErrForbidden)

	invited, err := f.userSvc.Invite(ctx, admin, InviteInput{Name: "New", Email: "New@EasyPM.test"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCollaborator, invited.Role)
	assert.False(t, invited.IsActive)
	assert.Equal(t, "new@easypm.test", invited.Email)

	_, err = f.userSvc.Invite(ctx, admin, InviteInput{Name: "Again", Email: "new@easypm.test"})
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: "new@easypm.test", Password: "Welcome1!"}, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	token := f.mailer.lastToken(t)
	assert.Contains(t, f.mailer.sent[len(f.mailer.sent)-1].Body, "http://app.test/accept-invite?token=")

	_, err = f.userSvc.AcceptInvite(ctx, TokenPasswordInput{Token: token, Password: "weak"})
	assert.ErrorIs(t, err, ErrValidation)

	user, err := f.userSvc.AcceptInvite(ctx, TokenPasswordInput{Token: token, Password: "Welcome1!"})
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: "new@easypm.test", Password: "Welcome1!"}, "")
	assert.NoError(t, err)

	_, err = f.userSvc.AcceptInvite(ctx, TokenPasswordInput{Token: token, Password: "Welcome1!"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.addUser(t, "Dev", models.RoleCollaborator)

	require.NoError(t, f.userSvc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ghost@easypm.test"}))
	assert.Empty(t, f.mailer.sent)

	require.NoError(t, f.userSvc.ForgotPassword(ctx, ForgotPasswordInput{Email: dev.Email}))
	token := f.mailer.lastToken(t)

	// An invite token cannot be used as a reset token and vice versa.
	_, err := f.userSvc.AcceptInvite(ctx, TokenPasswordInput{Token: token, Password: "Changed1!"})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.userSvc.ResetPassword(ctx, TokenPasswordInput{Token: token, Password: "Changed1!"}, "10.0.0.9"))

	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: dev.Email, Password: "Secret1!"}, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: dev.Email, Password: "Changed1!"}, "")
	assert.NoError(t, err)

	err = f.userSvc.ResetPassword(ctx, TokenPasswordInput{Token: token, Password: "Changed2!"}, "")
	assert.ErrorIs(t, err, ErrValidation)

	events, _ := f.authEvents.List(ctx)
	kinds := []models.AuthEventKind{}
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, models.AuthPasswordReset)
}

func TestResetTokenExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.addUser(t, "Dev", models.RoleCollaborator)

	require.NoError(t, f.userSvc.ForgotPassword(ctx, ForgotPasswordInput{Email: dev.Email}))
	token := f.mailer.lastToken(t)

	f.clock.Advance(2 * time.Hour)
	err := f.userSvc.ResetPassword(ctx, TokenPasswordInput{Token: token, Password: "Changed1!"}, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.tokens.GetByToken(ctx, token)
	assert.Error(t, err)
}

func TestChangePasswordAndProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dev := f.addUser(t, "Dev", models.RoleCollaborator)

	err := f.userSvc.ChangePassword(ctx, dev, ChangePasswordInput{OldPassword: "wrong", NewPassword: "Changed1!"}, "")
	assert.ErrorIs(t, err, ErrValidation)

	err = f.userSvc.ChangePassword(ctx, dev, ChangePasswordInput{OldPassword: "Secret1!", NewPassword: "nodigits!"}, "")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.userSvc.ChangePassword(ctx, dev, ChangePasswordInput{OldPassword: "Secret1!", NewPassword: "Changed1!"}, ""))

	user, err := f.userSvc.UpdateMe(ctx, dev, UpdateProfileInput{Name: "  Developer  "})
	require.NoError(t, err)
	assert.Equal(t, "Developer", user.Name)

	me, err := f.userSvc.Me(ctx, dev)
	require.NoError(t, err)
	assert.Equal(t, "Developer", me.Name)
}

func TestChangeRoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "Ada", models.RoleAdmin)
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)

	_, err := f.userSvc.ChangeRole(ctx, pm, dev.UserID, ChangeRoleInput{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.userSvc.ChangeRole(ctx, admin, admin.UserID, ChangeRoleInput{Role: models.RoleCollaborator})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.userSvc.ChangeRole(ctx, admin, dev.UserID, ChangeRoleInput{Role: "Owner"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.userSvc.ChangeRole(ctx, admin, primitive.NewObjectID(), ChangeRoleInput{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := f.userSvc.List(ctx, pm)
	require.NoError(t, err)
	assert.Len(t, users, 3)
	_, err = f.userSvc.List(ctx, dev)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteUserCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "Ada", models.RoleAdmin)
	pm := f.addUser(t, "Petra", models.RoleProjectManager)
	dev := f.addUser(t, "Dev", models.RoleCollaborator)
	p := f.addProject(t, pm, "Apollo", dev.UserID, pm.UserID)
	task := f.addTask(t, pm, p.ID, CreateTaskInput{Title: "Design", Assignee: ptr(dev.UserID.Hex())})

	err := f.userSvc.Delete(ctx, pm, dev.UserID)
	assert.ErrorIs(t, err, ErrForbidden)
	err = f.userSvc.Delete(ctx, admin, admin.UserID)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, f.userSvc.Delete(ctx, admin, dev.UserID))

	_, err = f.users.GetByID(ctx, dev.UserID)
	assert.Error(t, err)

	stored, err := f.tasks.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Assignee)

	project, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{pm.UserID}, project.Team)

	entries, _ := f.activityStore.ListByProject(ctx, p.ID)
	assert.Equal(t, models.TeamChangedDetails{Added: []string{}, Removed: []string{dev.UserID.Hex()}}, entries[0].Details)
	assert.Equal(t, admin.UserID, *entries[0].UserID)
	assert.Equal(t, models.TaskReassignedDetails{TaskID: task.ID.Hex(), Title: "Design", To: nil}, entries[1].Details)
	assert.Equal(t, admin.UserID, *entries[1].UserID)
	assert.True(t, stored.UpdatedAt.After(task.UpdatedAt))

	err = f.userSvc.Delete(ctx, admin, dev.UserID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.userSvc.EnsureAdmin(ctx, "Administrator", "root@easypm.test", "Bootstrap1!"))
	require.NoError(t, f.userSvc.EnsureAdmin(ctx, "Administrator", "root@easypm.test", "Other1!pw"))

	users, err := f.users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)

	_, _, err = f.userSvc.Login(ctx, LoginInput{Email: "root@easypm.test", Password: "Bootstrap1!"}, "")
	assert.NoError(t, err)

	err = f.userSvc.EnsureAdmin(ctx, "Administrator", "other@easypm.test", "weak")
	assert.ErrorIs(t, err, ErrValidation)
}
