package explorer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/playperu/attractionmap/internal/metrics"
)

var ErrNoSession = errors.New("session not found")

// Factory opens the session for a freshly allocated ID.
type Factory func(id string) (*Session, error)

// Registry tracks the open sessions of the process.
type Registry struct {
	open     Factory
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(open Factory) *Registry {
	return &Registry{
		open:     open,
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) Create() (*Session, error) {
	id := uuid.NewString()
	s, err := r.open(id)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Delete closes and forgets the session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return ErrNoSession
	}

	metrics.SessionsActive.Set(float64(n))
	s.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Close() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	metrics.SessionsActive.Set(0)
	return nil
}
