package services

import (
	"context"
	"errors"
	"time"

	"github.com/BadissRH/easypm/logging"
	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	Store   repositories.NotificationStore
	Breaker *gobreaker.CircuitBreaker
	Now     Clock
}

func NewNotificationService(store repositories.NotificationStore, breaker *gobreaker.CircuitBreaker, now Clock) *NotificationService {
	if now == nil {
		now = SystemClock
	}
	return &NotificationService{Store: store, Breaker: breaker, Now: now}
}

// Notify stores a notification for userID. It is best effort: failures are logged only.
func (s *NotificationService) Notify(ctx context.Context, userID, projectID, taskID primitive.ObjectID, message string) {
	if s == nil || s.Store == nil {
		return
	}
	n := &models.Notification{
		UserID:    userID.Hex(),
		ProjectID: projectID.Hex(),
		TaskID:    taskID.Hex(),
		Message:   message,
		// Cassandra timestamps keep millisecond precision only.
		CreatedAt: s.Now().Truncate(time.Millisecond),
	}
	err := runGuarded(s.Breaker, func() error {
		return s.Store.Create(ctx, n)
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_CREATE_FAILED, Description: Failed to notify user %s: %v", userID.Hex(), err)
	}
}

func (s *NotificationService) List(ctx context.Context, auth models.AuthContext) ([]models.Notification, error) {
	list, err := s.Store.ListByUser(ctx, auth.UserID.Hex())
	if err != nil {
		return nil, internal("failed to load notifications", err)
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, auth models.AuthContext, in NotificationRefInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	err := s.Store.MarkRead(ctx, auth.UserID.Hex(), in.NotificationID, in.CreatedAt.UTC())
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("notification")
	}
	if err != nil {
		return internal("failed to update notification", err)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, auth models.AuthContext, in NotificationRefInput) error {
	if err := validateInput(in); err != nil {
		return err
	}
	err := s.Store.Delete(ctx, auth.UserID.Hex(), in.NotificationID, in.CreatedAt.UTC())
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("notification")
	}
	if err != nil {
		return internal("failed to delete notification", err)
	}
	return nil
}
