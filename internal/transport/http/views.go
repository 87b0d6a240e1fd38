package http

import (
	"fmt"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/domain"
)

type questionView struct {
	Prompt        string   `json:"question"`
	Options       []string `json:"options"`
	MediaURL      string   `json:"mediaUrl,omitempty"`
	CorrectOption string   `json:"correctAnswer,omitempty"`
}

type quizView struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Position  string         `json:"position,omitempty"`
	Team      string         `json:"team"`
	Questions []questionView `json:"questions"`
}

type sessionView struct {
	ID         string           `json:"id"`
	State      app.SessionState `json:"state"`
	Quiz       quizView         `json:"quiz"`
	Selections []*string        `json:"selections"`
	Outcome    *app.Outcome     `json:"outcome,omitempty"`
	ResultID   string           `json:"resultId,omitempty"`
}

// newSessionView renders a session for its player. Correct answers stay hidden until
// the session is submitted.
func newSessionView(session *app.Session) sessionView {
	quiz := session.Quiz()
	state := session.State()
	view := sessionView{
		ID:         session.ID(),
		State:      state,
		Selections: session.Selections(),
		ResultID:   session.ResultID(),
		Quiz: quizView{
			ID:        quiz.ID,
			Title:     quiz.Title,
			Position:  quiz.Position,
			Team:      quiz.Team,
			Questions: make([]questionView, len(quiz.Questions)),
		},
	}
	for i, q := range quiz.Questions {
		qv := questionView{Prompt: q.Prompt, Options: q.Options, MediaURL: q.MediaURL}
		if state == app.StateSubmitted {
			qv.CorrectOption = q.CorrectOption
		}
		view.Quiz.Questions[i] = qv
	}
	if outcome, ok := session.Outcome(); ok {
		view.Outcome = &outcome
	}
	return view
}

type selectRequest struct {
	QuestionIndex *int   `json:"questionIndex"`
	Option        string `json:"option"`
}

// index returns the question index, which must be present in the payload.
func (r selectRequest) index() (int, error) {
	if r.QuestionIndex == nil {
		return 0, fmt.Errorf("%w: questionIndex is required", domain.ErrValidation)
	}
	return *r.QuestionIndex, nil
}

type startRequest struct {
	QuizID string `json:"quizId"`
}

type titlesView struct {
	Titles []string `json:"titles"`
}

type resultsView struct {
	Title   string                `json:"title"`
	Results []domain.ResultRecord `json:"results"`
}
