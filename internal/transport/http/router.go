package http

import (
	"net/http"

	"codequest-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the REST and WebSocket endpoints of the quiz service.
func NewRouter(service *app.QuizService) http.Handler {
	h := NewHandler(service)
	ws := NewWSHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)

	r.Route("/attempts", func(r chi.Router) {
		r.Post("/", h.CreateAttempt)
		r.Get("/{id}", h.GetAttempt)
		r.Delete("/{id}", h.DeleteAttempt)
		r.Post("/{id}/start", h.command(service.Start))
		r.Post("/{id}/advance", h.command(service.Advance))
		r.Post("/{id}/pause", h.command(service.Pause))
		r.Post("/{id}/resume", h.command(service.Resume))
		r.Post("/{id}/restart", h.command(service.Restart))
		r.Post("/{id}/save", h.command(service.Save))
		r.Post("/{id}/answer", h.Answer)
	})

	r.Route("/leaderboards", func(r chi.Router) {
		r.Get("/", h.ListLeaderboards)
		r.Get("/{subject}", h.GetLeaderboard)
	})

	r.Get("/ws/attempts/{id}", ws.ServeWS)
	return r
}
