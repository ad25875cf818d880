package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when an attempt id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionClosed is returned for commands sent to a discarded attempt.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrInvalidTransition is returned when a command does not apply to the current phase.
	ErrInvalidTransition = errors.New("command not allowed in current phase")
	// ErrAnswerRequired is returned when advancing past an unanswered question.
	ErrAnswerRequired = errors.New("an answer is required before advancing")
	// ErrOptionNotFound indicates a submitted option is not one of the question's choices.
	ErrOptionNotFound = errors.New("option not found")
	// ErrNothingToSave is returned when saving an attempt that had no questions.
	ErrNothingToSave = errors.New("no score to save")
	// ErrSubjectRequired is returned when a subject is missing or blank.
	ErrSubjectRequired = errors.New("subject is required")
	// ErrUsernameRequired is returned when a username is missing or blank.
	ErrUsernameRequired = errors.New("username is required")
)

// FetchError reports a failed question or leaderboard read.
type FetchError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %q: %s: %v", e.Subject, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetch %q: %s", e.Subject, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmitError reports a failed score write.
type SubmitError struct {
	Subject string
	Err     error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit score for %q: %v", e.Subject, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// ParseError describes a question record that was dropped while decoding.
type ParseError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("question %d: %s %s", e.Index, e.Field, e.Reason)
}
