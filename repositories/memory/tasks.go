package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BadissRH/easypm/models"
	"github.com/BadissRH/easypm/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type storedTask struct {
	task models.Task
	seq  int64
}

type TaskStore struct {
	mu    sync.RWMutex
	seq   int64
	tasks map[primitive.ObjectID]storedTask
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: map[primitive.ObjectID]storedTask{}}
}

func copyTask(t models.Task) models.Task {
	t.Comments = append([]models.Comment{}, t.Comments...)
	t.Attachments = append([]models.Attachment{}, t.Attachments...)
	if t.Assignee != nil {
		a := *t.Assignee
		t.Assignee = &a
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.StoryPoints != nil {
		v := *t.StoryPoints
		t.StoryPoints = &v
	}
	return t
}

func (s *TaskStore) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.Comments == nil {
		task.Comments = []models.Comment{}
	}
	if task.Attachments == nil {
		task.Attachments = []models.Attachment{}
	}
	s.seq++
	s.tasks[task.ID] = storedTask{task: copyTask(*task), seq: s.seq}
	return nil
}

func (s *TaskStore) GetByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := copyTask(st.task)
	return &c, nil
}

func (s *TaskStore) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	return s.filter(func(t models.Task) bool { return t.ProjectID == projectID }, false), nil
}

func (s *TaskStore) ListByAssignee(_ context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.filter(func(t models.Task) bool { return t.AssignedTo(userID) }, false), nil
}

func (s *TaskStore) ListDue(_ context.Context, from, to time.Time) ([]models.Task, error) {
	return s.filter(func(t models.Task) bool {
		return t.DueDate != nil && !t.DueDate.Before(from) && !t.DueDate.After(to)
	}, true), nil
}

func (s *TaskStore) filter(keep func(models.Task) bool, byDueDate bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []storedTask{}
	for _, st := range s.tasks {
		if keep(st.task) {
			matched = append(matched, st)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if byDueDate && !a.task.DueDate.Equal(*b.task.DueDate) {
			return a.task.DueDate.Before(*b.task.DueDate)
		}
		return a.seq < b.seq
	})

	out := make([]models.Task, 0, len(matched))
	for _, st := range matched {
		out = append(out, copyTask(st.task))
	}
	return out
}

func (s *TaskStore) Update(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tasks[task.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	st.task = copyTask(*task)
	s.tasks[task.ID] = st
	return nil
}

func (s *TaskStore) AddComment(_ context.Context, taskID primitive.ObjectID, comment models.Comment, at time.Time) error {
	return s.modify(taskID, at, func(t *models.Task) {
		t.Comments = append(t.Comments, comment)
	})
}

func (s *TaskStore) AddAttachment(_ context.Context, taskID primitive.ObjectID, attachment models.Attachment, at time.Time) error {
	return s.modify(taskID, at, func(t *models.Task) {
		t.Attachments = append(t.Attachments, attachment)
	})
}

func (s *TaskStore) modify(taskID primitive.ObjectID, at time.Time, fn func(*models.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.tasks[taskID]
	if !ok {
		return repositories.ErrNotFound
	}
	t := copyTask(st.task)
	fn(&t)
	t.UpdatedAt = at.UTC()
	st.task = t
	s.tasks[taskID] = st
	return nil
}

func (s *TaskStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *TaskStore) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, st := range s.tasks {
		if st.task.ProjectID == projectID {
			delete(s.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s *TaskStore) Unassign(_ context.Context, userID primitive.ObjectID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, st := range s.tasks {
		if st.task.AssignedTo(userID) {
			t := copyTask(st.task)
			t.Assignee = nil
			t.UpdatedAt = at.UTC()
			st.task = t
			s.tasks[id] = st
			n++
		}
	}
	return n, nil
}
