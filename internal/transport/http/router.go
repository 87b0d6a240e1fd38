package http

import (
	"log/slog"
	"net/http"
	"time"

	"coach-quiz-service/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the player, coach and websocket endpoints.
func NewRouter(quizzes *app.QuizService, review *app.ResultsService, identities app.IdentityResolver) http.Handler {
	sessions := NewSessionsHandler(quizzes)
	resultsHandler := NewResultsHandler(review)
	ws := NewWSHandler(quizzes)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity(identities))

		r.Get("/ws", ws.ServeWS)
		r.Get("/quizzes", sessions.ListQuizzes)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessions.Start)
			r.Get("/{id}", sessions.Get)
			r.Post("/{id}/selections", sessions.Select)
			r.Post("/{id}/submit", sessions.Submit)
			r.Post("/{id}/save", sessions.Save)
		})

		r.Route("/results", func(r chi.Router) {
			r.Get("/", resultsHandler.List)
			r.Get("/titles", resultsHandler.Titles)
			r.Get("/export.csv", resultsHandler.ExportCSV)
			r.Get("/export.xlsx", resultsHandler.ExportXLSX)
			r.Get("/{id}", resultsHandler.Get)
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
