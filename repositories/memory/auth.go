package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthEventStore struct {
	mu     sync.RWMutex
	events []models.AuthEvent
}

func NewAuthEventStore() *AuthEventStore {
	return &AuthEventStore{}
}

func (s *AuthEventStore) Append(_ context.Context, event *models.AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *AuthEventStore) List(_ context.Context) ([]models.AuthEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AuthEvent, len(s.events))
	for i, e := range s.events {
		out[len(s.events)-1-i] = e
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

type TokenStore struct {
	mu     sync.RWMutex
	tokens map[primitive.ObjectID]models.ResetToken
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: map[primitive.ObjectID]models.ResetToken{}}
}

func (s *TokenStore) Create(_ context.Context, token *models.ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tokens {
		if t.Token == token.Token {
			return repositories.ErrDuplicate
		}
	}
	if token.ID.IsZero() {
		token.ID = primitive.NewObjectID()
	}
	s.tokens[token.ID] = *token
	return nil
}

func (s *TokenStore) GetByToken(_ context.Context, token string) (*models.ResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tokens {
		if t.Token == token {
			c := t
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *TokenStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, id)
	return nil
}

func (s *TokenStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, id)
		}
	}
	return nil
}
