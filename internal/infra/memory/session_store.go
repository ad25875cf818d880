package memory

import (
	"context"
	"sync"
	"time"

	"codequest-quiz-service/internal/app"
)

type sessionEntry struct {
	session  *app.Session
	lastSeen time.Time
}

// SessionStore is an in-memory implementation of app.SessionRepository.
// Attempts not accessed for ttl are closed and evicted; a zero ttl keeps
// them until Delete.
type SessionStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = &sessionEntry{session: session, lastSeen: s.now()}
}

func (s *SessionStore) Get(attemptID string) (*app.Session, bool) {
	s.mu.Lock()
	entry, ok := s.sessions[attemptID]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	now := s.now()
	if s.expired(entry, now) {
		delete(s.sessions, attemptID)
		s.mu.Unlock()
		entry.session.Close()
		return nil, false
	}
	entry.lastSeen = now
	s.mu.Unlock()
	return entry.session, true
}

func (s *SessionStore) Delete(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, attemptID)
}

// Sweep closes and evicts every idle attempt, returning how many were removed.
func (s *SessionStore) Sweep(_ context.Context) int {
	now := s.now()
	var stale []*app.Session

	s.mu.Lock()
	for id, entry := range s.sessions {
		if s.expired(entry, now) {
			delete(s.sessions, id)
			stale = append(stale, entry.session)
		}
	}
	s.mu.Unlock()

	for _, session := range stale {
		session.Close()
	}
	return len(stale)
}

// Len reports how many attempts are held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(entry *sessionEntry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(entry.lastSeen) >= s.ttl
}
