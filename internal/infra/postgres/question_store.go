package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"codequest-quiz-service/internal/domain"
	"codequest-quiz-service/internal/logging"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore reads quiz documents from the quizzes table. Each row holds
// the JSONB document {"questions": [...]} of one subject.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

func (s *QuestionStore) FetchQuestions(ctx context.Context, subject string) ([]domain.Question, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE subject=$1`, subject).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.FetchError{Subject: subject, Reason: "no quiz found for the subject"}
	}
	if err != nil {
		return nil, &domain.FetchError{Subject: subject, Reason: "quiz lookup failed", Err: err}
	}

	questions, parseErrs, err := DecodeDocument(raw)
	if err != nil {
		return nil, &domain.FetchError{Subject: subject, Reason: "malformed quiz document", Err: err}
	}
	log := logging.FromContext(ctx).WithField("subject", subject)
	for _, perr := range parseErrs {
		log.WithError(perr).Warn("dropping malformed question")
	}
	return questions, nil
}

type quizDocument struct {
	Questions []json.RawMessage `json:"questions"`
}

type questionDocument struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	Category      string   `json:"category"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// DecodeDocument maps a quiz document to questions. Entries that cannot be
// used are reported as ParseErrors and left out; only an undecodable
// document as a whole is an error.
func DecodeDocument(raw []byte) ([]domain.Question, []error, error) {
	var doc quizDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, err
	}

	questions := make([]domain.Question, 0, len(doc.Questions))
	var parseErrs []error
	for i, entry := range doc.Questions {
		q, perr := decodeQuestion(i, entry)
		if perr != nil {
			parseErrs = append(parseErrs, perr)
			continue
		}
		questions = append(questions, q)
	}
	return questions, parseErrs, nil
}

func decodeQuestion(index int, raw json.RawMessage) (domain.Question, error) {
	var doc questionDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "entry", Reason: err.Error()}
	}
	if strings.TrimSpace(doc.Question) == "" {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "question", Reason: "is missing"}
	}
	if len(doc.Options) < 2 {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "options", Reason: "needs at least two choices"}
	}
	if doc.CorrectAnswer == "" {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "correctAnswer", Reason: "is missing"}
	}

	q := domain.Question{
		Prompt:        doc.Question,
		Options:       doc.Options,
		CorrectOption: doc.CorrectAnswer,
		Category:      doc.Category,
	}
	if !q.HasOption(q.CorrectOption) {
		return domain.Question{}, &domain.ParseError{Index: index, Field: "correctAnswer", Reason: "is not one of the options"}
	}
	if q.Category == "" {
		q.Category = domain.DefaultCategory
	}
	return q, nil
}
