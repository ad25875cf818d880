package app

import (
	"errors"
	"sync"
	"time"

	"codequest-quiz-service/internal/domain"
)

// Phase is the position of an attempt in the quiz flow.
type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseInstructions Phase = "instructions"
	PhaseActive       Phase = "active"
	PhaseResults      Phase = "results"
)

// SessionConfig tunes the timer of new sessions.
type SessionConfig struct {
	TimeBudget   int
	TickInterval time.Duration
	// NewTicker drives the countdown. Nil disables the timer goroutine and
	// leaves ticking to the caller (see Session.Tick).
	NewTicker TickerFunc
	Now       func() time.Time
}

// QuestionView is what a client sees of the current question.
type QuestionView struct {
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Category string   `json:"category"`
}

// Snapshot is an immutable view of a session, safe to serialize.
type Snapshot struct {
	AttemptID        string         `json:"attemptId"`
	Subject          string         `json:"subject"`
	Username         string         `json:"username"`
	Phase            Phase          `json:"phase"`
	Version          int            `json:"version"`
	CurrentIndex     int            `json:"currentIndex"`
	Total            int            `json:"totalQuestions"`
	Question         *QuestionView  `json:"question,omitempty"`
	Selected         string         `json:"selected,omitempty"`
	Answered         int            `json:"answered"`
	RemainingSeconds int            `json:"remainingSeconds"`
	Paused           bool           `json:"paused"`
	Result           *domain.Result `json:"result,omitempty"`
	Saved            bool           `json:"saved"`
	Notice           string         `json:"notice,omitempty"`
	Closed           bool           `json:"closed,omitempty"`
}

// Session is one quiz attempt: the question list, the answers, the countdown
// and the phase. All methods are safe for concurrent use.
type Session struct {
	id        string
	subject   string
	username  string
	createdAt time.Time
	now       func() time.Time
	interval  time.Duration
	newTicker TickerFunc

	mu         sync.Mutex
	phase      Phase
	questions  []domain.Question
	current    int
	answers    map[int]string
	version    int
	countdown  Countdown
	generation int
	stopTimer  chan struct{}
	result     *domain.Result
	notice     string
	saved      bool
	closed     bool

	subscribers map[chan Snapshot]struct{}
}

// NewSession creates an attempt waiting for its questions.
func NewSession(id, subject, username string, cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Session{
		id:          id,
		subject:     subject,
		username:    username,
		createdAt:   now(),
		now:         now,
		interval:    interval,
		newTicker:   cfg.NewTicker,
		phase:       PhaseLoading,
		answers:     map[int]string{},
		countdown:   NewCountdown(cfg.TimeBudget),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Subject() string  { return s.subject }
func (s *Session) Username() string { return s.username }

// Load installs the fetched questions. A fetch error or an empty list routes
// the attempt straight to an empty Results state. Loads that arrive after the
// session was closed are dropped.
func (s *Session) Load(questions []domain.Question, fetchErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.phase != PhaseLoading {
		return domain.ErrInvalidTransition
	}

	if fetchErr != nil {
		questions = nil
		s.notice = noticeFor(fetchErr)
	}
	s.questions = questions
	if len(questions) == 0 {
		if s.notice == "" {
			s.notice = "No questions available for this subject"
		}
		s.finishLocked()
	} else {
		s.phase = PhaseInstructions
	}
	s.version++
	s.broadcastLocked()
	return nil
}

// Start moves from Instructions to the first question and starts the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(PhaseInstructions); err != nil {
		return err
	}
	if len(s.questions) == 0 {
		s.finishLocked()
	} else {
		s.phase = PhaseActive
		s.current = 0
		s.countdown.Reset()
		s.startTimerLocked()
	}
	s.version++
	s.broadcastLocked()
	return nil
}

// SelectAnswer records the option for the current question. It may be called
// again to change the answer until the user advances.
func (s *Session) SelectAnswer(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(PhaseActive); err != nil {
		return err
	}
	if !s.questions[s.current].HasOption(option) {
		return domain.ErrOptionNotFound
	}

	next := make(map[int]string, len(s.answers)+1)
	for k, v := range s.answers {
		next[k] = v
	}
	next[s.current] = option
	s.answers = next
	s.version++
	s.broadcastLocked()
	return nil
}

// Advance moves to the next question, or to Results after the last one.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(PhaseActive); err != nil {
		return err
	}
	if _, ok := s.answers[s.current]; !ok {
		return domain.ErrAnswerRequired
	}
	if s.current+1 < len(s.questions) {
		s.current++
	} else {
		s.finishLocked()
	}
	s.version++
	s.broadcastLocked()
	return nil
}

// Pause freezes the countdown.
func (s *Session) Pause() error {
	return s.setPaused(true)
}

// Resume continues the countdown from where it was paused.
func (s *Session) Resume() error {
	return s.setPaused(false)
}

func (s *Session) setPaused(paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(PhaseActive); err != nil {
		return err
	}
	if paused {
		s.countdown.Pause()
	} else {
		s.countdown.Resume()
	}
	s.version++
	s.broadcastLocked()
	return nil
}

// Restart discards progress and returns to Instructions with a full timer.
// Accepted from Instructions, Active (abandoning the attempt) and Results.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.phase == PhaseLoading {
		return domain.ErrInvalidTransition
	}

	s.stopTimerLocked()
	s.phase = PhaseInstructions
	s.current = 0
	s.answers = map[int]string{}
	s.countdown.Reset()
	s.result = nil
	s.saved = false
	s.version++
	s.broadcastLocked()
	return nil
}

// Tick advances the countdown of the running Active phase by one step. It
// reports whether the session is still Active afterwards.
func (s *Session) Tick() bool {
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	return s.tick(gen)
}

func (s *Session) tick(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.phase != PhaseActive || gen != s.generation {
		return false
	}
	if s.countdown.Paused() {
		return true
	}
	expired := s.countdown.Tick()
	if expired {
		s.finishLocked()
	}
	s.version++
	s.broadcastLocked()
	return !expired
}

// ScoreRecord builds the record to submit for a finished attempt.
func (s *Session) ScoreRecord() (domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expectLocked(PhaseResults); err != nil {
		return domain.ScoreRecord{}, err
	}
	if s.result == nil || s.result.Total == 0 {
		return domain.ScoreRecord{}, domain.ErrNothingToSave
	}
	return domain.ScoreRecord{
		Subject:   s.subject,
		Username:  s.username,
		Score:     s.result.Score,
		Timestamp: s.now(),
	}, nil
}

// MarkSaved flags a successful save so clients can disable the save control.
// It does not prevent further saves.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase != PhaseResults {
		return
	}
	s.saved = true
	s.version++
	s.broadcastLocked()
}

// Close tears the session down: the timer stops, subscribers are released and
// later commands fail with ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.version++
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CreatedAt reports when the attempt was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) expectLocked(phase Phase) error {
	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.phase != phase {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (s *Session) finishLocked() {
	s.stopTimerLocked()
	res := Classify(ComputeScore(s.questions, s.answers), len(s.questions))
	s.result = &res
	s.phase = PhaseResults
}

func (s *Session) startTimerLocked() {
	s.stopTimerLocked()
	s.generation++
	if s.newTicker == nil {
		return
	}

	gen := s.generation
	stop := make(chan struct{})
	s.stopTimer = stop
	ticker := s.newTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				if !s.tick(gen) {
					return
				}
			}
		}
	}()
}

func (s *Session) stopTimerLocked() {
	// Bumping the generation invalidates ticks already in flight.
	s.generation++
	if s.stopTimer != nil {
		close(s.stopTimer)
		s.stopTimer = nil
	}
}

func (s *Session) subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest snapshot so a slow reader never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		AttemptID:        s.id,
		Subject:          s.subject,
		Username:         s.username,
		Phase:            s.phase,
		Version:          s.version,
		CurrentIndex:     s.current,
		Total:            len(s.questions),
		Answered:         len(s.answers),
		RemainingSeconds: s.countdown.Remaining(),
		Paused:           s.countdown.Paused(),
		Saved:            s.saved,
		Notice:           s.notice,
		Closed:           s.closed,
	}
	if s.phase == PhaseActive {
		q := s.questions[s.current]
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		snap.Question = &QuestionView{Prompt: q.Prompt, Options: options, Category: q.Category}
		snap.Selected = s.answers[s.current]
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
	}
	return snap
}

func noticeFor(err error) string {
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		return "Error fetching questions: " + fetchErr.Reason
	}
	return "Error fetching questions: " + err.Error()
}
