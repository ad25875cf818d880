package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codequest-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const subjectsKey = "leaderboard:subjects"

// ScoreStore keeps leaderboard records in Redis.
// Records are appended as JSON:  RPUSH leaderboard:{subject}:scores {record}
// Subjects with scores are kept: SADD  leaderboard:subjects {subject}
type ScoreStore struct {
	client *redis.Client
}

func NewScoreStore(client *redis.Client) *ScoreStore {
	return &ScoreStore{client: client}
}

type scoreDoc struct {
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
}

func (s *ScoreStore) Append(ctx context.Context, record domain.ScoreRecord) error {
	raw, err := json.Marshal(scoreDoc{
		Username:  record.Username,
		Score:     record.Score,
		Date:      record.Date(),
		Time:      record.Clock(),
		Timestamp: record.Timestamp.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode score: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key(record.Subject), raw)
		pipe.SAdd(ctx, subjectsKey, record.Subject)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append score: %w", err)
	}
	return nil
}

func (s *ScoreStore) List(ctx context.Context, subject string) ([]domain.ScoreRecord, error) {
	raws, err := s.client.LRange(ctx, s.key(subject), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	records := make([]domain.ScoreRecord, 0, len(raws))
	for _, raw := range raws {
		var doc scoreDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decode score: %w", err)
		}
		records = append(records, domain.ScoreRecord{
			Subject:   subject,
			Username:  doc.Username,
			Score:     doc.Score,
			Timestamp: time.UnixMilli(doc.Timestamp).UTC(),
		})
	}
	return records, nil
}

func (s *ScoreStore) Subjects(ctx context.Context) ([]string, error) {
	subjects, err := s.client.SMembers(ctx, subjectsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

func (s *ScoreStore) Clear(ctx context.Context, subject string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(subject))
		pipe.SRem(ctx, subjectsKey, subject)
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear scores: %w", err)
	}
	return nil
}

func (s *ScoreStore) key(subject string) string {
	return "leaderboard:" + subject + ":scores"
}
