package wizard

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Factory opens a new wizard of one kind. The wizard must call onClose from its
// OnClose hook so the registry can forget it.
type Factory func(id string, onClose func()) Session

// Sessions keeps the open wizards of this process. Drafts live here until they are
// committed or cancelled and are never shared with other processes.
type Sessions struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	factories map[string]Factory
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{
		sessions:  make(map[string]Session),
		factories: make(map[string]Factory),
	}
}

// Register makes a wizard kind available to Open.
func (s *Sessions) Register(kind string, factory Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.factories[kind] = factory
}

// Kinds lists the registered wizard kinds in name order.
func (s *Sessions) Kinds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kinds := make([]string, 0, len(s.factories))
	for kind := range s.factories {
		kinds = append(kinds, kind)
	}

	sort.Strings(kinds)

	return kinds
}

// Open starts a new wizard of the given kind.
func (s *Sessions) Open(kind string) (Session, error) {
	s.mu.RLock()
	factory, ok := s.factories[kind]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	id := uuid.New().String()
	session := factory(id, func() { s.remove(id) })

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	return session, nil
}

// Get returns an open wizard by id.
func (s *Sessions) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	return session, nil
}

// Len returns the number of open wizards.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

func (s *Sessions) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}

// Sweep cancels wizards idle for longer than maxIdle and returns how many were closed.
// Wizards in the middle of a submission are left alone.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.RLock()
	idle := make([]Session, 0)

	for _, session := range s.sessions {
		if session.LastActivity().Before(cutoff) {
			idle = append(idle, session)
		}
	}
	s.mu.RUnlock()

	closed := 0

	for _, session := range idle {
		if err := session.Cancel(); err == nil {
			closed++
		}
	}

	return closed
}
