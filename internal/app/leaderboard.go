package app

import (
	"context"
	"sort"
	"time"

	"codequest-quiz-service/internal/domain"
	"codequest-quiz-service/internal/logging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ScoreStore persists score records per subject. Append never merges or
// deduplicates: every call stores a new record.
type ScoreStore interface {
	Append(ctx context.Context, record domain.ScoreRecord) error
	List(ctx context.Context, subject string) ([]domain.ScoreRecord, error)
	Subjects(ctx context.Context) ([]string, error)
	Clear(ctx context.Context, subject string) error
}

// readTimeout bounds a shared leaderboard read, which no single caller owns.
const readTimeout = 10 * time.Second

// Leaderboard submits scores and reads them back ranked.
type Leaderboard struct {
	store ScoreStore
	sf    singleflight.Group
}

func NewLeaderboard(store ScoreStore) *Leaderboard {
	return &Leaderboard{store: store}
}

// Submit appends one record for subject.
func (l *Leaderboard) Submit(ctx context.Context, subject, username string, score int, at time.Time) error {
	if subject == "" {
		return domain.ErrSubjectRequired
	}
	if username == "" {
		return domain.ErrUsernameRequired
	}
	record := domain.ScoreRecord{Subject: subject, Username: username, Score: score, Timestamp: at}
	if err := l.store.Append(ctx, record); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("subject", subject).Error("score submission failed")
		return &domain.SubmitError{Subject: subject, Err: err}
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"subject":  subject,
		"username": username,
		"score":    score,
	}).Info("score saved")
	return nil
}

// FetchRanked returns the subject's records, best score first. Concurrent
// reads of the same subject share one store query; a caller that gives up
// does not cancel the query for the others.
func (l *Leaderboard) FetchRanked(ctx context.Context, subject string) ([]domain.LeaderboardEntry, error) {
	if subject == "" {
		return nil, domain.ErrSubjectRequired
	}
	shared := context.WithoutCancel(ctx)
	ch := l.sf.DoChan(subject, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(shared, readTimeout)
		defer cancel()
		return l.store.List(readCtx, subject)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			logging.FromContext(ctx).WithError(res.Err).WithField("subject", subject).Error("leaderboard read failed")
			return nil, &domain.FetchError{Subject: subject, Reason: "leaderboard unavailable", Err: res.Err}
		}
		return RankRecords(res.Val.([]domain.ScoreRecord)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Overview fetches the ranked board of every subject that has scores.
func (l *Leaderboard) Overview(ctx context.Context) ([]domain.Leaderboard, error) {
	subjects, err := l.store.Subjects(ctx)
	if err != nil {
		return nil, &domain.FetchError{Reason: "subjects unavailable", Err: err}
	}
	sort.Strings(subjects)

	boards := make([]domain.Leaderboard, len(subjects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, subject := range subjects {
		i, subject := i, subject
		g.Go(func() error {
			entries, err := l.FetchRanked(gctx, subject)
			if err != nil {
				return err
			}
			boards[i] = domain.Leaderboard{Subject: subject, Entries: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return boards, nil
}

// Subjects lists the subjects that have at least one score.
func (l *Leaderboard) Subjects(ctx context.Context) ([]string, error) {
	subjects, err := l.store.Subjects(ctx)
	if err != nil {
		return nil, &domain.FetchError{Reason: "subjects unavailable", Err: err}
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Clear removes every record of subject.
func (l *Leaderboard) Clear(ctx context.Context, subject string) error {
	if subject == "" {
		return domain.ErrSubjectRequired
	}
	return l.store.Clear(ctx, subject)
}

// RankRecords orders records by score descending. Equal scores keep the
// earliest submission first, then sort by username.
func RankRecords(records []domain.ScoreRecord) []domain.LeaderboardEntry {
	sorted := make([]domain.ScoreRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].Username < sorted[j].Username
	})

	entries := make([]domain.LeaderboardEntry, 0, len(sorted))
	for i, r := range sorted {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:      i + 1,
			Username:  r.Username,
			Score:     r.Score,
			Date:      r.Date(),
			Time:      r.Clock(),
			Timestamp: r.Timestamp,
		})
	}
	return entries
}
