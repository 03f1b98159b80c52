package server

import (
	"sync"

	"github.com/tradedocs/tradedocs/internal/batch"
)

// sessionStore keeps one in-flight review session per operator. Sessions are
// transient; durability comes from the draft endpoints.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*batch.Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*batch.Session)}
}

func (s *sessionStore) get(operator string) (*batch.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[operator]
	return sess, ok
}

func (s *sessionStore) put(operator string, sess *batch.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[operator] = sess
}

func (s *sessionStore) drop(operator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, operator)
}
