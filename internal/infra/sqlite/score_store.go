package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"codequest-quiz-service/internal/domain"
	"github.com/Masterminds/squirrel"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// ScoreStore keeps the leaderboard in a local SQLite file.
type ScoreStore struct {
	db *sql.DB
}

func NewScoreStore(db *sql.DB) *ScoreStore {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) Append(ctx context.Context, record domain.ScoreRecord) error {
	_, err := sqlBuilder.Insert("scores").
		Columns("subject", "username", "score", "submitted_at").
		Values(record.Subject, record.Username, record.Score, record.Timestamp.UnixMilli()).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *ScoreStore) List(ctx context.Context, subject string) ([]domain.ScoreRecord, error) {
	rows, err := sqlBuilder.Select("username", "score", "submitted_at").
		From("scores").
		Where(squirrel.Eq{"subject": subject}).
		OrderBy("score DESC", "submitted_at ASC", "username ASC").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var (
			r  domain.ScoreRecord
			ms int64
		)
		if err := rows.Scan(&r.Username, &r.Score, &ms); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		r.Subject = subject
		r.Timestamp = time.UnixMilli(ms).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *ScoreStore) Subjects(ctx context.Context) ([]string, error) {
	rows, err := sqlBuilder.Select("DISTINCT subject").
		From("scores").
		OrderBy("subject").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	return subjects, rows.Err()
}

func (s *ScoreStore) Clear(ctx context.Context, subject string) error {
	_, err := sqlBuilder.Delete("scores").
		Where(squirrel.Eq{"subject": subject}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	return nil
}
