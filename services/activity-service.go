package services

import (
	"context"
	"fmt"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/metrics"
	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ActivityService struct {
	Store    repositories.ActivityStore
	Projects repositories.ProjectStore
	Users    repositories.UserStore
	Breaker  *gobreaker.CircuitBreaker
	Now      Clock
}

func NewActivityService(store repositories.ActivityStore, projects repositories.ProjectStore, users repositories.UserStore, breaker *gobreaker.CircuitBreaker, now Clock) *ActivityService {
	if now == nil {
		now = SystemClock
	}
	return &ActivityService{
		Store:    store,
		Projects: projects,
		Users:    users,
		Breaker:  breaker,
		Now:      now,
	}
}

// Append writes one entry. The action comes from the details variant and the timestamp
// from the service clock.
func (s *ActivityService) Append(ctx context.Context, projectID primitive.ObjectID, actor *primitive.ObjectID, details models.ActivityDetails) (*models.ActivityLogEntry, error) {
	if details == nil {
		return nil, fmt.Errorf("activity details are required")
	}
	entry := &models.ActivityLogEntry{
		ProjectID: projectID,
		UserID:    actor,
		Action:    details.Action(),
		Details:   details,
		CreatedAt: s.Now(),
	}
	err := runGuarded(s.Breaker, func() error {
		return s.Store.Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Record appends each entry in order after a mutation has committed. Failures are logged
// and counted, never returned: the mutation stays successful without its audit entry.
func (s *ActivityService) Record(ctx context.Context, projectID primitive.ObjectID, actor *primitive.ObjectID, details ...models.ActivityDetails) {
	for _, d := range details {
		if _, err := s.Append(ctx, projectID, actor, d); err != nil {
			metrics.RecordActivityAppendFailure(string(d.Action()))
			logging.Logger.WithFields(logrus.Fields{
				"project": projectID.Hex(),
				"action":  d.Action(),
			}).Errorf("Event ID: ACTIVITY_APPEND_FAILED, Description: Failed to record activity entry: %v", err)
		}
	}
}

func (s *ActivityService) ListForProject(ctx context.Context, auth models.AuthContext, projectID primitive.ObjectID) ([]models.ActivityLogView, error) {
	project, err := s.Projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, storeErr("project", err)
	}
	if err := requireProjectRead(auth, project); err != nil {
		return nil, err
	}

	entries, err := s.Store.ListByProject(ctx, projectID)
	if err != nil {
		return nil, internal("failed to load activity log", err)
	}
	return s.resolve(ctx, entries)
}

func (s *ActivityService) ListAll(ctx context.Context, auth models.AuthContext) ([]models.ActivityLogView, error) {
	if err := requireAdmin(auth); err != nil {
		return nil, err
	}
	entries, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, internal("failed to load activity log", err)
	}
	return s.resolve(ctx, entries)
}

// resolve attaches the acting user to each entry. Entries whose actor is null or no
// longer exists get a nil user.
func (s *ActivityService) resolve(ctx context.Context, entries []models.ActivityLogEntry) ([]models.ActivityLogView, error) {
	seen := map[primitive.ObjectID]bool{}
	ids := []primitive.ObjectID{}
	for _, e := range entries {
		if e.UserID != nil && !seen[*e.UserID] {
			seen[*e.UserID] = true
			ids = append(ids, *e.UserID)
		}
	}

	users, err := s.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, internal("failed to resolve activity users", err)
	}
	byID := make(map[primitive.ObjectID]models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}

	views := make([]models.ActivityLogView, 0, len(entries))
	for _, e := range entries {
		v := models.ActivityLogView{ActivityLogEntry: e}
		if e.UserID != nil {
			if u, ok := byID[*e.UserID]; ok {
				v.User = &u
			}
		}
		views = append(views, v)
	}
	return views, nil
}
