package http

import (
	"bytes"
	"fmt"
	"net/http"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/results"
	"github.com/go-chi/chi/v5"
)

// ResultsHandler exposes the coach review endpoints. The title query parameter
// filters by quiz title; absent or empty means all quizzes.
type ResultsHandler struct {
	service *app.ResultsService
}

func NewResultsHandler(service *app.ResultsService) *ResultsHandler {
	return &ResultsHandler{service: service}
}

func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	list, err := h.service.List(r.Context(), identityFrom(r.Context()), title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsView{Title: title, Results: list})
}

func (h *ResultsHandler) Titles(w http.ResponseWriter, r *http.Request) {
	titles, err := h.service.Titles(r.Context(), identityFrom(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, titlesView{Titles: titles})
}

func (h *ResultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ResultsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	text, err := h.service.ExportCSV(r.Context(), identityFrom(r.Context()), r.URL.Query().Get("title"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", results.ExportFilename))
	_, _ = w.Write([]byte(text))
}

func (h *ResultsHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportXLSX(r.Context(), identityFrom(r.Context()), r.URL.Query().Get("title"), &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", results.XLSXFilename))
	_, _ = w.Write(buf.Bytes())
}
