package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStore struct {
	mu       sync.RWMutex
	projects map[primitive.ObjectID]models.Project
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: map[primitive.ObjectID]models.Project{}}
}

func copyProject(p models.Project) models.Project {
	p.Team = append([]primitive.ObjectID{}, p.Team...)
	if p.Phases != nil {
		p.Phases = append([]string{}, p.Phases...)
	}
	if p.Deadline != nil {
		d := *p.Deadline
		p.Deadline = &d
	}
	if p.SprintDuration != nil {
		v := *p.SprintDuration
		p.SprintDuration = &v
	}
	if p.WIPLimit != nil {
		v := *p.WIPLimit
		p.WIPLimit = &v
	}
	return p
}

func (s *ProjectStore) Create(_ context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.ID.IsZero() {
		project.ID = primitive.NewObjectID()
	}
	if project.Team == nil {
		project.Team = []primitive.ObjectID{}
	}
	s.projects[project.ID] = copyProject(*project)
	return nil
}

func (s *ProjectStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := copyProject(p)
	return &c, nil
}

func (s *ProjectStore) List(_ context.Context) ([]models.Project, error) {
	return s.filter(func(models.Project) bool { return true }), nil
}

func (s *ProjectStore) ListByMember(_ context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	return s.filter(func(p models.Project) bool { return p.HasMember(userID) }), nil
}

func (s *ProjectStore) filter(keep func(models.Project) bool) []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Project{}
	for _, p := range s.projects {
		if keep(p) {
			out = append(out, copyProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out
}

func (s *ProjectStore) Update(_ context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[project.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.projects[project.ID] = copyProject(*project)
	return nil
}

func (s *ProjectStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}
