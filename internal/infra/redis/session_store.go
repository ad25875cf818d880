package redis

import (
	"context"
	"sync"
	"time"

	"codequest-quiz-service/internal/app"
	"codequest-quiz-service/internal/logging"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions own a timer goroutine and subscriber channels, so the live
//     objects stay in a local map.
//   - Redis holds a liveness hash per attempt (subject, username, created)
//     that expires after ttl without access. Operators can list live
//     attempts with SCAN quiz:attempt:*.
//   - Once the hash is gone the local session is closed and evicted, on
//     access or by Sweep.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	ctx := context.Background()
	key := s.key(session.ID())
	// best-effort liveness marker
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"subject", session.Subject(),
			"username", session.Username(),
			"created", session.CreatedAt().UTC().Format(time.RFC3339),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		logging.Default().WithError(err).WithField("attempt", session.ID()).Warn("redis liveness marker not written")
	}
}

func (s *SessionStore) Get(attemptID string) (*app.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[attemptID]
	s.mu.RUnlock()
	if !ok || s.ttl <= 0 {
		return session, ok
	}

	alive, err := s.client.Expire(context.Background(), s.key(attemptID), s.ttl).Result()
	if err != nil {
		// Redis unavailable: keep serving the local session.
		logging.Default().WithError(err).WithField("attempt", attemptID).Warn("redis liveness marker not refreshed")
		return session, true
	}
	if !alive {
		s.evict(attemptID)
		return nil, false
	}
	return session, true
}

func (s *SessionStore) Delete(attemptID string) {
	s.mu.Lock()
	delete(s.sessions, attemptID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

// Sweep closes and evicts local sessions whose liveness hash has expired,
// returning how many were removed.
func (s *SessionStore) Sweep(ctx context.Context) int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	if len(ids) == 0 {
		return 0
	}

	checks := make([]*redis.IntCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			checks[i] = pipe.Exists(ctx, s.key(id))
		}
		return nil
	})
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("redis liveness sweep failed")
		return 0
	}

	removed := 0
	for i, id := range ids {
		if checks[i].Val() == 0 && s.evict(id) {
			removed++
		}
	}
	return removed
}

func (s *SessionStore) evict(attemptID string) bool {
	s.mu.Lock()
	session, ok := s.sessions[attemptID]
	delete(s.sessions, attemptID)
	s.mu.Unlock()
	if ok {
		session.Close()
	}
	return ok
}

// Len reports how many attempts are held locally.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) key(attemptID string) string {
	return "quiz:attempt:" + attemptID
}
