package postgres

import (
	"context"
	"fmt"
	"time"

	"codequest-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type scoreRow struct {
	bun.BaseModel `bun:"table:scores"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Subject   string    `bun:"subject,notnull"`
	Username  string    `bun:"username,notnull"`
	Score     int       `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// ScoreStore persists leaderboard records in the scores table.
type ScoreStore struct {
	db *bun.DB
}

func NewScoreStore(db *bun.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) Append(ctx context.Context, record domain.ScoreRecord) error {
	row := &scoreRow{
		Subject:   record.Subject,
		Username:  record.Username,
		Score:     record.Score,
		CreatedAt: record.Timestamp,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) List(ctx context.Context, subject string) ([]domain.ScoreRecord, error) {
	var rows []scoreRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("subject = ?", subject).
		OrderExpr("score DESC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	records := make([]domain.ScoreRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, domain.ScoreRecord{
			Subject:   r.Subject,
			Username:  r.Username,
			Score:     r.Score,
			Timestamp: r.CreatedAt,
		})
	}
	return records, nil
}

func (s *ScoreStore) Subjects(ctx context.Context) ([]string, error) {
	var subjects []string
	err := s.db.NewSelect().
		Model((*scoreRow)(nil)).
		ColumnExpr("DISTINCT subject").
		Scan(ctx, &subjects)
	if err != nil {
		return nil, fmt.Errorf("select subjects: %w", err)
	}
	return subjects, nil
}

func (s *ScoreStore) Clear(ctx context.Context, subject string) error {
	_, err := s.db.NewDelete().
		Model((*scoreRow)(nil)).
		Where("subject = ?", subject).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	return nil
}
