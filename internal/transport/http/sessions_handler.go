package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

// SessionsHandler exposes the player-side quiz flow over REST.
type SessionsHandler struct {
	service *app.QuizService
}

func NewSessionsHandler(service *app.QuizService) *SessionsHandler {
	return &SessionsHandler{service: service}
}

// ListQuizzes handles GET /quizzes?position=QB.
func (h *SessionsHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListQuizzes(r.Context(), identityFrom(r.Context()), r.URL.Query().Get("position"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Start handles POST /sessions.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		writeError(w, fmt.Errorf("%w: body must carry quizId", domain.ErrValidation))
		return
	}
	session, err := h.service.Start(r.Context(), req.QuizID, identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(session))
}

// Get handles GET /sessions/{id}.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Session(r.Context(), chi.URLParam(r, "id"), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session))
}

// Select handles POST /sessions/{id}/selections.
func (h *SessionsHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid selection payload", domain.ErrValidation))
		return
	}
	index, err := req.index()
	if err != nil {
		writeError(w, err)
		return
	}
	session, err := h.service.Select(r.Context(), chi.URLParam(r, "id"), identityFrom(r.Context()), index, req.Option)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(session))
}

// Submit handles POST /sessions/{id}/submit.
func (h *SessionsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// Save handles POST /sessions/{id}/save, the manual retry after a failed write.
func (h *SessionsHandler) Save(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.SaveResult(r.Context(), chi.URLParam(r, "id"), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
