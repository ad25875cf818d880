package memory

import (
	"context"
	"sync"

	"codequest-quiz-service/internal/domain"
)

// ScoreStore keeps leaderboard records in process memory.
type ScoreStore struct {
	mu      sync.RWMutex
	records map[string][]domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{records: make(map[string][]domain.ScoreRecord)}
}

func (s *ScoreStore) Append(_ context.Context, record domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Subject] = append(s.records[record.Subject], record)
	return nil
}

func (s *ScoreStore) List(_ context.Context, subject string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, len(s.records[subject]))
	copy(out, s.records[subject])
	return out, nil
}

func (s *ScoreStore) Subjects(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subjects := make([]string, 0, len(s.records))
	for subject, records := range s.records {
		if len(records) > 0 {
			subjects = append(subjects, subject)
		}
	}
	return subjects, nil
}

func (s *ScoreStore) Clear(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, subject)
	return nil
}
