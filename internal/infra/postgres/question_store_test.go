package postgres

import (
	"errors"
	"testing"

	"codequest-quiz-service/internal/domain"
)

func TestDecodeDocumentDropsMalformedEntries(t *testing.T) {
	raw := []byte(`{"questions": [
		{"question": "2 + 2?", "options": ["3", "4"], "correctAnswer": "4", "category": "Math"},
		{"question": "", "options": ["a", "b"], "correctAnswer": "a"},
		{"question": "Only one option", "options": ["a"], "correctAnswer": "a"},
		{"question": "No answer", "options": ["a", "b"]},
		{"question": "Answer not listed", "options": ["a", "b"], "correctAnswer": "c"},
		{"question": "No category", "options": ["x", "y"], "correctAnswer": "y"},
		"not an object"
	]}`)

	questions, parseErrs, err := DecodeDocument(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 usable questions, got %d", len(questions))
	}
	if questions[0].Category != "Math" || questions[1].Category != domain.DefaultCategory {
		t.Fatalf("unexpected categories %q %q", questions[0].Category, questions[1].Category)
	}
	if len(parseErrs) != 5 {
		t.Fatalf("expected 5 parse errors, got %d", len(parseErrs))
	}
	var perr *domain.ParseError
	if !errors.As(parseErrs[0], &perr) || perr.Index != 1 || perr.Field != "question" {
		t.Fatalf("unexpected first parse error %v", parseErrs[0])
	}
}

func TestDecodeDocumentRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeDocument([]byte(`[1,2,3]`)); err == nil {
		t.Fatalf("expected error for non-object document")
	}

	questions, parseErrs, err := DecodeDocument([]byte(`{}`))
	if err != nil || len(questions) != 0 || len(parseErrs) != 0 {
		t.Fatalf("expected empty result, got %v %v %v", questions, parseErrs, err)
	}
}
