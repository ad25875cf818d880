package memory

import (
	"context"

	"codequest-quiz-service/internal/domain"
)

// StaticQuestionSource serves questions from an in-memory map (useful for tests/demos).
type StaticQuestionSource struct {
	quizzes map[string][]domain.Question
}

func NewStaticQuestionSource(quizzes map[string][]domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{quizzes: quizzes}
}

// FetchQuestions returns a copy of the subject's questions.
func (s *StaticQuestionSource) FetchQuestions(_ context.Context, subject string) ([]domain.Question, error) {
	questions, ok := s.quizzes[subject]
	if !ok {
		return nil, &domain.FetchError{Subject: subject, Reason: "no quiz found for the subject"}
	}
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		if q.Category == "" {
			q.Category = domain.DefaultCategory
		}
		out[i] = q
	}
	return out, nil
}

// DemoQuestions is the built-in question set used by the static source.
func DemoQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"Go": {
			{
				Prompt:        "Which keyword starts a goroutine?",
				Options:       []string{"go", "async", "spawn", "thread"},
				CorrectOption: "go",
				Category:      "Concurrency",
			},
			{
				Prompt:        "What does a nil map panic on?",
				Options:       []string{"read", "write", "len", "range"},
				CorrectOption: "write",
				Category:      "Maps",
			},
			{
				Prompt:        "Which package provides the Context type?",
				Options:       []string{"sync", "context", "runtime", "os"},
				CorrectOption: "context",
			},
		},
		"Science": {
			{
				Prompt:        "What is the chemical symbol for gold?",
				Options:       []string{"Ag", "Au", "Gd", "Go"},
				CorrectOption: "Au",
				Category:      "Chemistry",
			},
			{
				Prompt:        "How many planets are in the solar system?",
				Options:       []string{"7", "8", "9", "10"},
				CorrectOption: "8",
				Category:      "Astronomy",
			},
		},
	}
}
