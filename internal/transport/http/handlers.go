package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"codequest-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
)

// maxWait bounds how long POST /attempts?wait=true blocks for questions.
const maxWait = 20 * time.Second

type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

type createAttemptRequest struct {
	Subject  string `json:"subject"`
	Username string `json:"username"`
}

type answerRequest struct {
	Option string `json:"option"`
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateAttempt starts an attempt. With ?wait=true the response is sent once
// the questions are loaded.
func (h *Handler) CreateAttempt(w http.ResponseWriter, r *http.Request) {
	var req createAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, badRequest("invalid request body", err))
		return
	}

	snap, err := h.service.CreateAttempt(r.Context(), req.Subject, req.Username)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), maxWait)
		defer cancel()
		ready, err := h.service.AwaitReady(ctx, snap.AttemptID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		snap = ready
	}

	w.Header().Set("Location", "/attempts/"+snap.AttemptID)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) DeleteAttempt(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, badRequest("invalid request body", err))
		return
	}
	snap, err := h.service.SelectAnswer(r.Context(), chi.URLParam(r, "id"), req.Option)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// command adapts a body-less attempt command to a handler.
func (h *Handler) command(fn func(context.Context, string) (app.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func (h *Handler) ListLeaderboards(w http.ResponseWriter, r *http.Request) {
	boards, err := h.service.Leaderboards(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboards": boards})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		handleError(w, r, badRequest("invalid subject", err))
		return
	}
	board, err := h.service.Leaderboard(r.Context(), subject)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// subjectParam returns the decoded subject. chi matches on RawPath when the
// request carries one (e.g. an escaped slash), leaving the param escaped.
func subjectParam(r *http.Request) (string, error) {
	subject := chi.URLParam(r, "subject")
	if r.URL.RawPath == "" {
		return subject, nil
	}
	return url.PathUnescape(subject)
}
