package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"codequest-quiz-service/internal/domain"
	"codequest-quiz-service/internal/infra/sqlite"
	"github.com/stretchr/testify/suite"
)

type ScoreStoreSuite struct {
	suite.Suite
	db    *sql.DB
	store *sqlite.ScoreStore
}

func (s *ScoreStoreSuite) SetupTest() {
	db, err := sqlite.Open(context.Background(), ":memory:")
	s.Require().NoError(err)
	s.db = db
	s.store = sqlite.NewScoreStore(db)
}

func (s *ScoreStoreSuite) TearDownTest() {
	s.Require().NoError(s.db.Close())
}

func (s *ScoreStoreSuite) TestAppendAndListRanked() {
	ctx := context.Background()
	at := time.Date(2024, 2, 10, 18, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, domain.ScoreRecord{Subject: "Math", Username: "carol", Score: 1, Timestamp: at}))
	s.Require().NoError(s.store.Append(ctx, domain.ScoreRecord{Subject: "Math", Username: "bob", Score: 3, Timestamp: at.Add(time.Second)}))
	s.Require().NoError(s.store.Append(ctx, domain.ScoreRecord{Subject: "Math", Username: "alice", Score: 3, Timestamp: at}))
	s.Require().NoError(s.store.Append(ctx, domain.ScoreRecord{Subject: "Art", Username: "dan", Score: 2, Timestamp: at}))

	records, err := s.store.List(ctx, "Math")
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Assert().Equal("alice", records[0].Username)
	s.Assert().Equal("bob", records[1].Username)
	s.Assert().Equal("carol", records[2].Username)
	s.Assert().True(records[0].Timestamp.Equal(at))
	s.Assert().Equal("Math", records[0].Subject)
}

func (s *ScoreStoreSuite) TestDuplicatesAreKept() {
	ctx := context.Background()
	record := domain.ScoreRecord{Subject: "Math", Username: "alice", Score: 2, Timestamp: time.Now()}

	s.Require().NoError(s.store.Append(ctx, record))
	s.Require().NoError(s.store.Append(ctx, record))

	records, err := s.store.List(ctx, "Math")
	s.Require().NoError(err)
	s.Assert().Len(records, 2)
}

func (s *ScoreStoreSuite) TestSubjectsAndClear() {
	ctx := context.Background()
	now := time.Now()
	s.Require().NoError(s.store.Append(ctx, domain.ScoreRecord{Subject: "Math", Username: "alice", Score: 2, Timestamp: now}))
	s.Require().NoError(s.store.Append(ctx, domain.ScoreRecord{Subject: "Art", Username: "bob", Score: 1, Timestamp: now}))

	subjects, err := s.store.Subjects(ctx)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"Art", "Math"}, subjects)

	s.Require().NoError(s.store.Clear(ctx, "Math"))
	records, err := s.store.List(ctx, "Math")
	s.Require().NoError(err)
	s.Assert().Empty(records)

	subjects, err = s.store.Subjects(ctx)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"Art"}, subjects)
}

func (s *ScoreStoreSuite) TestEmptySubject() {
	records, err := s.store.List(context.Background(), "Nothing")
	s.Require().NoError(err)
	s.Assert().Empty(records)
}

func TestScoreStoreSuite(t *testing.T) {
	suite.Run(t, new(ScoreStoreSuite))
}
