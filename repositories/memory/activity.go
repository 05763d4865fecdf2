package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/BadissRH/easypm/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type storedEntry struct {
	entry models.ActivityLogEntry
	seq   int64
}

type ActivityStore struct {
	mu        sync.RWMutex
	seq       int64
	entries   []storedEntry
	appendErr error
}

func NewActivityStore() *ActivityStore {
	return &ActivityStore{}
}

// FailAppends makes every following Append return err; nil restores normal behaviour.
func (s *ActivityStore) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

func (s *ActivityStore) Append(_ context.Context, entry *models.ActivityLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.appendErr != nil {
		return s.appendErr
	}
	if entry.Details == nil {
		return fmt.Errorf("activity entry without details")
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	entry.Action = entry.Details.Action()

	e := *entry
	if e.UserID != nil {
		u := *e.UserID
		e.UserID = &u
	}
	s.seq++
	s.entries = append(s.entries, storedEntry{entry: e, seq: s.seq})
	return nil
}

func (s *ActivityStore) ListByProject(_ context.Context, projectID primitive.ObjectID) ([]models.ActivityLogEntry, error) {
	return s.list(func(e models.ActivityLogEntry) bool { return e.ProjectID == projectID }), nil
}

func (s *ActivityStore) ListAll(_ context.Context) ([]models.ActivityLogEntry, error) {
	return s.list(func(models.ActivityLogEntry) bool { return true }), nil
}

func (s *ActivityStore) list(keep func(models.ActivityLogEntry) bool) []models.ActivityLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []storedEntry{}
	for _, se := range s.entries {
		if keep(se.entry) {
			matched = append(matched, se)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.entry.CreatedAt.Equal(b.entry.CreatedAt) {
			return a.entry.CreatedAt.After(b.entry.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]models.ActivityLogEntry, 0, len(matched))
	for _, se := range matched {
		out = append(out, se.entry)
	}
	return out
}
