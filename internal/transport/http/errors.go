package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"codequest-quiz-service/internal/domain"
	"codequest-quiz-service/internal/logging"
)

// Error codes returned in the "error.code" field.
const (
	CodeBadRequest        = "BAD_REQUEST"
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeAnswerRequired    = "ANSWER_REQUIRED"
	CodeNothingToSave     = "NOTHING_TO_SAVE"
	CodeSessionClosed     = "SESSION_CLOSED"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// apiError is an error carrying its HTTP status and response code.
type apiError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Code + ": " + e.Message
}

func (e *apiError) Unwrap() error { return e.Err }

func badRequest(message string, err error) *apiError {
	return &apiError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest, Err: err}
}

// classify maps an error from the quiz use cases to its HTTP representation.
func classify(err error) *apiError {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var fetchErr *domain.FetchError
	var submitErr *domain.SubmitError

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return &apiError{Code: CodeNotFound, Message: err.Error(), Status: http.StatusNotFound}
	case errors.Is(err, domain.ErrSubjectRequired), errors.Is(err, domain.ErrUsernameRequired), errors.Is(err, domain.ErrOptionNotFound):
		return &apiError{Code: CodeValidation, Message: err.Error(), Status: http.StatusBadRequest}
	case errors.Is(err, domain.ErrInvalidTransition):
		return &apiError{Code: CodeInvalidTransition, Message: err.Error(), Status: http.StatusConflict}
	case errors.Is(err, domain.ErrAnswerRequired):
		return &apiError{Code: CodeAnswerRequired, Message: err.Error(), Status: http.StatusConflict}
	case errors.Is(err, domain.ErrNothingToSave):
		return &apiError{Code: CodeNothingToSave, Message: err.Error(), Status: http.StatusConflict}
	case errors.Is(err, domain.ErrSessionClosed):
		return &apiError{Code: CodeSessionClosed, Message: err.Error(), Status: http.StatusConflict}
	case errors.As(err, &fetchErr):
		return &apiError{Code: CodeUpstream, Message: "could not load data: " + fetchErr.Reason, Status: http.StatusBadGateway, Err: err}
	case errors.As(err, &submitErr):
		return &apiError{Code: CodeUpstream, Message: "could not save score", Status: http.StatusBadGateway, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &apiError{Code: CodeUpstream, Message: "timed out", Status: http.StatusGatewayTimeout, Err: err}
	default:
		return &apiError{Code: CodeInternal, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
	}
}

// handleError centralizes error responses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context())
	apiErr := classify(err)

	if apiErr.Status >= 500 {
		log.WithError(err).Error("server error")
	} else {
		log.WithError(err).Debug("client error")
	}

	writeJSON(w, apiErr.Status, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
