package app

import (
	"context"
	"strings"
	"time"

	"codequest-quiz-service/internal/domain"
	"codequest-quiz-service/internal/logging"
	"github.com/google/uuid"
)

// SessionRepository abstracts how live attempts are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(attemptID string) (*Session, bool)
	Delete(attemptID string)
}

// Sweeper is implemented by session repositories that evict idle attempts.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// QuestionSource fetches the questions of one attempt (trivia API, document store).
type QuestionSource interface {
	FetchQuestions(ctx context.Context, subject string) ([]domain.Question, error)
}

// ServiceConfig holds the tunables of a QuizService.
type ServiceConfig struct {
	Session SessionConfig
	// LoadTimeout bounds each question fetch. Zero means 15s.
	LoadTimeout time.Duration
	// NewID generates attempt ids. Nil means random UUIDs.
	NewID func() string
}

// QuizService contains the quiz attempt use cases.
type QuizService struct {
	sessions    SessionRepository
	source      QuestionSource
	board       *Leaderboard
	sessionCfg  SessionConfig
	loadTimeout time.Duration
	newID       func() string
}

func NewQuizService(store SessionRepository, source QuestionSource, board *Leaderboard, cfg ServiceConfig) *QuizService {
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 15 * time.Second
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	return &QuizService{
		sessions:    store,
		source:      source,
		board:       board,
		sessionCfg:  cfg.Session,
		loadTimeout: cfg.LoadTimeout,
		newID:       cfg.NewID,
	}
}

// CreateAttempt registers a new attempt and starts fetching its questions in
// the background. The returned snapshot is in the loading phase.
func (s *QuizService) CreateAttempt(ctx context.Context, subject, username string) (Snapshot, error) {
	subject = strings.TrimSpace(subject)
	username = strings.TrimSpace(username)
	if subject == "" {
		return Snapshot{}, domain.ErrSubjectRequired
	}
	if username == "" {
		return Snapshot{}, domain.ErrUsernameRequired
	}

	session := NewSession(s.newID(), subject, username, s.sessionCfg)
	s.sessions.Put(session)

	log := logging.FromContext(ctx).WithField("attempt", session.ID()).WithField("subject", subject)
	log.Info("attempt created")

	// The fetch outlives the request that created the attempt.
	loadCtx := logging.NewContext(context.Background(), log)
	go s.load(loadCtx, session)

	return session.Snapshot(), nil
}

func (s *QuizService) load(ctx context.Context, session *Session) {
	log := logging.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.loadTimeout)
	defer cancel()

	questions, err := s.source.FetchQuestions(ctx, session.Subject())
	if err != nil {
		log.WithError(err).Warn("question fetch failed")
	} else {
		log.WithField("count", len(questions)).Debug("questions loaded")
	}
	if loadErr := session.Load(questions, err); loadErr != nil {
		// The attempt was discarded while the fetch was in flight.
		log.WithError(loadErr).Debug("dropping late question load")
	}
}

// AwaitReady blocks until the attempt has left the loading phase.
func (s *QuizService) AwaitReady(ctx context.Context, attemptID string) (Snapshot, error) {
	updates, cancel, err := s.Subscribe(ctx, attemptID)
	if err != nil {
		return Snapshot{}, err
	}
	defer cancel()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				return Snapshot{}, domain.ErrSessionClosed
			}
			if snap.Phase != PhaseLoading {
				return snap, nil
			}
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
}

// Get returns the current snapshot of an attempt.
func (s *QuizService) Get(_ context.Context, attemptID string) (Snapshot, error) {
	session, err := s.session(attemptID)
	if err != nil {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Start begins the timed question loop.
func (s *QuizService) Start(ctx context.Context, attemptID string) (Snapshot, error) {
	return s.apply(ctx, attemptID, "start", (*Session).Start)
}

// SelectAnswer records an option for the current question.
func (s *QuizService) SelectAnswer(ctx context.Context, attemptID, option string) (Snapshot, error) {
	return s.apply(ctx, attemptID, "answer", func(session *Session) error {
		return session.SelectAnswer(option)
	})
}

// Advance moves past the current (answered) question.
func (s *QuizService) Advance(ctx context.Context, attemptID string) (Snapshot, error) {
	return s.apply(ctx, attemptID, "advance", (*Session).Advance)
}

func (s *QuizService) Pause(ctx context.Context, attemptID string) (Snapshot, error) {
	return s.apply(ctx, attemptID, "pause", (*Session).Pause)
}

func (s *QuizService) Resume(ctx context.Context, attemptID string) (Snapshot, error) {
	return s.apply(ctx, attemptID, "resume", (*Session).Resume)
}

// Restart clears the attempt back to the instructions.
func (s *QuizService) Restart(ctx context.Context, attemptID string) (Snapshot, error) {
	return s.apply(ctx, attemptID, "restart", (*Session).Restart)
}

// Save submits the finished attempt's score to the subject leaderboard.
// Repeated saves create repeated records.
func (s *QuizService) Save(ctx context.Context, attemptID string) (Snapshot, error) {
	session, err := s.session(attemptID)
	if err != nil {
		return Snapshot{}, err
	}
	record, err := session.ScoreRecord()
	if err != nil {
		return session.Snapshot(), err
	}
	if err := s.board.Submit(ctx, record.Subject, record.Username, record.Score, record.Timestamp); err != nil {
		return session.Snapshot(), err
	}
	session.MarkSaved()
	return session.Snapshot(), nil
}

// Discard closes an attempt and forgets it.
func (s *QuizService) Discard(ctx context.Context, attemptID string) error {
	session, err := s.session(attemptID)
	if err != nil {
		return err
	}
	session.Close()
	s.sessions.Delete(attemptID)
	logging.FromContext(ctx).WithField("attempt", attemptID).Info("attempt discarded")
	return nil
}

// Subscribe returns a channel of snapshots for an attempt, starting with the
// current one. The caller must invoke the returned cancel function.
func (s *QuizService) Subscribe(_ context.Context, attemptID string) (<-chan Snapshot, func(), error) {
	session, err := s.session(attemptID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leaderboard returns the ranked scores of one subject.
func (s *QuizService) Leaderboard(ctx context.Context, subject string) (domain.Leaderboard, error) {
	entries, err := s.board.FetchRanked(ctx, subject)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Subject: subject, Entries: entries}, nil
}

// Leaderboards returns the ranked scores of every subject.
func (s *QuizService) Leaderboards(ctx context.Context) ([]domain.Leaderboard, error) {
	return s.board.Overview(ctx)
}

// RunJanitor evicts idle attempts every interval until ctx is done. It returns
// at once if the session repository does not expire attempts.
func (s *QuizService) RunJanitor(ctx context.Context, interval time.Duration) {
	sweeper, ok := s.sessions.(Sweeper)
	if !ok || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sweeper.Sweep(ctx); n > 0 {
				logging.FromContext(ctx).WithField("evicted", n).Info("idle attempts evicted")
			}
		}
	}
}

func (s *QuizService) apply(ctx context.Context, attemptID, command string, fn func(*Session) error) (Snapshot, error) {
	session, err := s.session(attemptID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := fn(session); err != nil {
		logging.FromContext(ctx).WithField("attempt", attemptID).WithField("command", command).Debugf("rejected: %v", err)
		return session.Snapshot(), err
	}
	return session.Snapshot(), nil
}

func (s *QuizService) session(attemptID string) (*Session, error) {
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
