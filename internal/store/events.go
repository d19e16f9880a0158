package store

import (
	"log/slog"

	"github.com/yaakapp/yaaksync/internal/models"
)

// UpdateSource records who originated a write.
type UpdateSource string

const (
	UpdateSourceUser       UpdateSource = "user"
	UpdateSourceSync       UpdateSource = "sync"
	UpdateSourceBackground UpdateSource = "background"
)

// ModelChange is delivered to listeners after a write commits.
type ModelChange struct {
	Kind        models.Kind
	ID          string
	WorkspaceID string
	Deleted     bool
	Source      UpdateSource
}

// Subscribe registers fn for every committed change. The returned function
// removes the listener.
func (s *Store) Subscribe(fn func(ModelChange)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) emit(changes []ModelChange) {
	if len(changes) == 0 {
		return
	}

	s.mu.RLock()
	listeners := make([]func(ModelChange), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, change := range changes {
		slog.Debug("model change", "kind", change.Kind, "id", change.ID, "deleted", change.Deleted, "source", change.Source)
		for _, fn := range listeners {
			fn(change)
		}
	}
}

func changeFor(r models.Resource, deleted bool, source UpdateSource) ModelChange {
	return ModelChange{
		Kind:        r.Kind(),
		ID:          r.GetID(),
		WorkspaceID: r.GetWorkspaceID(),
		Deleted:     deleted,
		Source:      source,
	}
}
