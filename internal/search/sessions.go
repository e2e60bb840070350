package search

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned to a search that was replaced by a newer one for the same session.
var ErrSuperseded = errors.New("search superseded by a newer request")

type sessionEntry struct {
	id     uint64
	cancel context.CancelFunc
}

// Sessions keeps at most one live search per session key. Starting a search cancels the
// previous one for that key, and only the newest may deliver its result. Supersession is
// decided after the search returns, so a search that had already settled still reports
// ErrSuperseded if a newer one registered in the meantime.
type Sessions struct {
	mu     sync.Mutex
	nextID uint64
	active map[string]sessionEntry
}

func NewSessions() *Sessions {
	return &Sessions{active: make(map[string]sessionEntry)}
}

// Run calls fn under supersession for key. An empty key runs fn directly.
func (s *Sessions) Run(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if key == "" {
		return fn(ctx)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if prev, ok := s.active[key]; ok {
		prev.cancel()
	}
	s.active[key] = sessionEntry{id: id, cancel: cancel}
	s.mu.Unlock()

	err := fn(runCtx)

	s.mu.Lock()
	current := s.active[key].id == id
	if current {
		delete(s.active, key)
	}
	s.mu.Unlock()

	if !current {
		return ErrSuperseded
	}
	return err
}

// Active reports how many sessions have a search in flight.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
