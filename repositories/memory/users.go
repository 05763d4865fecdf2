// Package memory holds map-backed stores with the same semantics as the MongoDB and
// Cassandra repositories. Every read returns a copy.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[primitive.ObjectID]models.User{}}
}

func copyUser(u models.User) models.User {
	u.Projects = append([]primitive.ObjectID{}, u.Projects...)
	return u
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.Projects == nil {
		user.Projects = []primitive.ObjectID{}
	}
	s.users[user.ID] = copyUser(*user)
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := copyUser(u)
	return &c, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			c := copyUser(u)
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *UserStore) GetMany(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *UserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sortUsers(out)
	return out, nil
}

func sortUsers(users []models.User) {
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID.Hex() < users[j].ID.Hex()
	})
}

func (s *UserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.Email = strings.ToLower(user.Email)
	for id, u := range s.users {
		if id != user.ID && u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	s.users[user.ID] = copyUser(*user)
	return nil
}

func (s *UserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *UserStore) AddProject(_ context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range userIDs {
		u, ok := s.users[id]
		if !ok || containsID(u.Projects, projectID) {
			continue
		}
		u.Projects = append(append([]primitive.ObjectID{}, u.Projects...), projectID)
		u.UpdatedAt = at.UTC()
		s.users[id] = u
	}
	return nil
}

func (s *UserStore) RemoveProject(_ context.Context, userIDs []primitive.ObjectID, projectID primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range userIDs {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		kept := []primitive.ObjectID{}
		for _, p := range u.Projects {
			if p != projectID {
				kept = append(kept, p)
			}
		}
		u.Projects = kept
		u.UpdatedAt = at.UTC()
		s.users[id] = u
	}
	return nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
