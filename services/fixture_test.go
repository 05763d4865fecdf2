package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories/memory"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// tickingClock advances one second per call so every timestamp is distinct.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *tickingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMail struct {
	To, Subject, Body string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	body := m.sent[len(m.sent)-1].Body
	i := strings.Index(body, "token=")
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len("token="):]
	return rest[:strings.IndexByte(rest, '"')]
}

type fixture struct {
	clock *tickingClock

	users         *memory.UserStore
	projects      *memory.ProjectStore
	tasks         *memory.TaskStore
	activityStore *memory.ActivityStore
	tokens        *memory.TokenStore
	authEvents    *memory.AuthEventStore
	notifications *memory.NotificationStore
	mailer        *captureMailer

	activity   *ActivityService
	projectSvc *ProjectService
	taskSvc    *TaskService
	reportSvc  *ReportService
	userSvc    *UserService
	notifySvc  *NotificationService
	jwt        *JWTService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock:         newTickingClock(),
		users:         memory.NewUserStore(),
		projects:      memory.NewProjectStore(),
		tasks:         memory.NewTaskStore(),
		activityStore: memory.NewActivityStore(),
		tokens:        memory.NewTokenStore(),
		authEvents:    memory.NewAuthEventStore(),
		notifications: memory.NewNotificationStore(),
		mailer:        &captureMailer{},
	}
	now := f.clock.Now

	f.activity = NewActivityService(f.activityStore, f.projects, f.users, nil, now)
	f.notifySvc = NewNotificationService(f.notifications, nil, now)
	f.projectSvc = NewProjectService(f.projects, f.tasks, f.users, f.activity, now)
	f.taskSvc = NewTaskService(f.tasks, f.projects, f.activity, f.notifySvc, now)
	f.reportSvc = NewReportService(f.projects, f.tasks, f.users, now)
	f.jwt = NewJWTService("test-secret", time.Hour, now)
	f.userSvc = NewUserService(f.users, f.projects, f.tasks, f.tokens, f.authEvents, f.activity, f.jwt, f.mailer)
	f.userSvc.BcryptCost = bcrypt.MinCost
	f.userSvc.FrontendURL = "http://app.test"
	f.userSvc.Now = now
	return f
}

// addUser stores an active user with password "Secret1!" and returns its AuthContext.
func (f *fixture) addUser(t *testing.T, name string, role models.Role) models.AuthContext {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret1!"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@easypm.test",
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return models.AuthContext{UserID: u.ID, Email: u.Email, Role: role}
}

func (f *fixture) addProject(t *testing.T, by models.AuthContext, name string, team ...primitive.ObjectID) *models.Project {
	t.Helper()
	hexTeam := make([]string, 0, len(team))
	for _, id := range team {
		hexTeam = append(hexTeam, id.Hex())
	}
	p, err := f.projectSvc.Create(context.Background(), by, CreateProjectInput{Name: name, Team: hexTeam})
	require.NoError(t, err)
	return p
}

func (f *fixture) addTask(t *testing.T, by models.AuthContext, projectID primitive.ObjectID, in CreateTaskInput) *models.Task {
	t.Helper()
	task, err := f.taskSvc.Create(context.Background(), by, projectID, in)
	require.NoError(t, err)
	return task
}

func (f *fixture) actions(t *testing.T, projectID primitive.ObjectID) []models.Action {
	t.Helper()
	entries, err := f.activityStore.ListByProject(context.Background(), projectID)
	require.NoError(t, err)
	out := make([]models.Action, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
