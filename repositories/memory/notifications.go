package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"github.com/google/uuid"
)

type NotificationStore struct {
	mu            sync.RWMutex
	notifications map[string][]models.Notification
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{notifications: map[string][]models.Notification{}}
}

func (s *NotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	s.notifications[n.UserID] = append(s.notifications[n.UserID], *n)
	return nil
}

func (s *NotificationStore) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.notifications[userID]
	out := make([]models.Notification, len(src))
	for i, n := range src {
		out[len(src)-1-i] = n
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, userID, id string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(userID, id, createdAt)
	if i < 0 {
		return repositories.ErrNotFound
	}
	s.notifications[userID][i].IsRead = true
	return nil
}

func (s *NotificationStore) Delete(_ context.Context, userID, id string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(userID, id, createdAt)
	if i < 0 {
		return repositories.ErrNotFound
	}
	list := s.notifications[userID]
	s.notifications[userID] = append(list[:i:i], list[i+1:]...)
	return nil
}

func (s *NotificationStore) indexOf(userID, id string, createdAt time.Time) int {
	for i, n := range s.notifications[userID] {
		if n.ID == id && n.CreatedAt.Equal(createdAt) {
			return i
		}
	}
	return -1
}
