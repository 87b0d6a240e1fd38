package app

import (
	"fmt"
	"sync"
	"time"

	"coach-quiz-service/internal/domain"
)

// SessionState is a step of the quiz-taking lifecycle.
type SessionState string

const (
	StateLoading   SessionState = "loading"
	StateActive    SessionState = "active"
	StateSubmitted SessionState = "submitted"
)

// Outcome is the graded result of a submitted session.
type Outcome struct {
	Score   int                    `json:"score"`
	Total   int                    `json:"total"`
	Answers []domain.AnswerOutcome `json:"answers"`
}

// Session is one player's single attempt at one quiz.
// The quiz is copied in on Load and never re-fetched.
type Session struct {
	id        string
	player    domain.Identity
	strict    bool
	createdAt time.Time

	mu         sync.RWMutex
	state      SessionState
	quiz       domain.Quiz
	selections []*string
	outcome    Outcome
	resultID   string
	version    int64
}

// NewSession creates a session in the loading state.
func NewSession(id string, player domain.Identity) *Session {
	return newSessionWithClock(id, player, false, time.Now)
}

// NewStrictSession creates a session that rejects options the question does not offer.
func NewStrictSession(id string, player domain.Identity) *Session {
	return newSessionWithClock(id, player, true, time.Now)
}

func newSessionWithClock(id string, player domain.Identity, strict bool, now func() time.Time) *Session {
	return &Session{
		id:        id,
		player:    player,
		strict:    strict,
		createdAt: now(),
		state:     StateLoading,
	}
}

// Load moves a loading session to active with every slot unselected.
func (s *Session) Load(quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return fmt.Errorf("load quiz into %s session: %w", s.state, domain.ErrSessionNotActive)
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", domain.ErrValidation, quiz.ID)
	}
	s.quiz = copyQuiz(quiz)
	s.selections = make([]*string, len(quiz.Questions))
	s.state = StateActive
	return nil
}

// Select records option as the answer to question index. Other slots are untouched.
func (s *Session) Select(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitted:
		return domain.ErrSessionSubmitted
	case StateLoading:
		return domain.ErrSessionNotActive
	}
	if index < 0 || index >= len(s.selections) {
		return fmt.Errorf("%w: %d not in [0, %d)", domain.ErrQuestionOutOfRange, index, len(s.selections))
	}
	if s.strict && !s.quiz.Questions[index].HasOption(option) {
		return fmt.Errorf("%w: %w: %q", domain.ErrValidation, domain.ErrOptionNotFound, option)
	}
	value := option
	s.selections[index] = &value
	return nil
}

// Submit grades the session and locks it. A second call is rejected.
func (s *Session) Submit() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateSubmitted:
		return Outcome{}, domain.ErrSessionSubmitted
	case StateLoading:
		return Outcome{}, domain.ErrSessionNotActive
	}
	s.outcome = grade(s.quiz.Questions, s.selections)
	s.state = StateSubmitted
	return copyOutcome(s.outcome), nil
}

// grade is a pure function of the questions and the selections.
func grade(questions []domain.Question, selections []*string) Outcome {
	answers := make([]domain.AnswerOutcome, len(questions))
	score := 0
	for i, q := range questions {
		var selected *string
		if i < len(selections) && selections[i] != nil {
			v := *selections[i]
			selected = &v
		}
		correct := selected != nil && *selected == q.CorrectOption
		if correct {
			score++
		}
		answers[i] = domain.AnswerOutcome{
			Question:  q.Prompt,
			Selected:  selected,
			Correct:   q.CorrectOption,
			IsCorrect: correct,
		}
	}
	return Outcome{Score: score, Total: len(questions), Answers: answers}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Player returns the identity the session was started for.
func (s *Session) Player() domain.Identity {
	return s.player
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Quiz returns the quiz the session was loaded with.
func (s *Session) Quiz() domain.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyQuiz(s.quiz)
}

// Selection returns the option chosen for question index, or false when unselected.
func (s *Session) Selection(index int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.selections) || s.selections[index] == nil {
		return "", false
	}
	return *s.selections[index], true
}

// Selections returns a copy of every slot; nil entries are unselected.
func (s *Session) Selections() []*string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySelections(s.selections)
}

// Outcome returns the graded outcome once the session is submitted.
func (s *Session) Outcome() (Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateSubmitted {
		return Outcome{}, false
	}
	return copyOutcome(s.outcome), true
}

// ResultID is the stored record id, empty until the result has been saved.
func (s *Session) ResultID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resultID
}

// Version is the revision of the stored copy this session was read from; zero
// before the first save.
func (s *Session) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// MarkStored records the revision a store has just written.
func (s *Session) MarkStored(version int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
}

func (s *Session) markSaved(resultID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultID = resultID
}

// SessionSnapshot is the serializable form of a session.
type SessionSnapshot struct {
	ID         string          `json:"id"`
	Player     domain.Identity `json:"player"`
	Strict     bool            `json:"strict"`
	CreatedAt  time.Time       `json:"createdAt"`
	State      SessionState    `json:"state"`
	Quiz       domain.Quiz     `json:"quiz"`
	Selections []*string       `json:"selections"`
	Outcome    Outcome         `json:"outcome"`
	ResultID   string          `json:"resultId,omitempty"`
	Version    int64           `json:"version"`
}

// Snapshot captures the session for storage outside the process.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionSnapshot{
		ID:         s.id,
		Player:     s.player,
		Strict:     s.strict,
		CreatedAt:  s.createdAt,
		State:      s.state,
		Quiz:       copyQuiz(s.quiz),
		Selections: copySelections(s.selections),
		Outcome:    copyOutcome(s.outcome),
		ResultID:   s.resultID,
		Version:    s.version,
	}
}

// RestoreSession rebuilds a session from a snapshot.
func RestoreSession(snap SessionSnapshot) (*Session, error) {
	switch snap.State {
	case StateLoading, StateActive, StateSubmitted:
	default:
		return nil, fmt.Errorf("restore session %s: unknown state %q", snap.ID, snap.State)
	}
	if snap.State != StateLoading && len(snap.Selections) != len(snap.Quiz.Questions) {
		return nil, fmt.Errorf("restore session %s: %d selections for %d questions", snap.ID, len(snap.Selections), len(snap.Quiz.Questions))
	}
	return &Session{
		id:         snap.ID,
		player:     snap.Player,
		strict:     snap.Strict,
		createdAt:  snap.CreatedAt,
		state:      snap.State,
		quiz:       copyQuiz(snap.Quiz),
		selections: copySelections(snap.Selections),
		outcome:    copyOutcome(snap.Outcome),
		resultID:   snap.ResultID,
		version:    snap.Version,
	}, nil
}

func copyQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		questions[i] = question
	}
	q.Questions = questions
	return q
}

func copySelections(in []*string) []*string {
	if in == nil {
		return nil
	}
	out := make([]*string, len(in))
	for i, v := range in {
		if v != nil {
			c := *v
			out[i] = &c
		}
	}
	return out
}

func copyOutcome(o Outcome) Outcome {
	if o.Answers == nil {
		return o
	}
	answers := make([]domain.AnswerOutcome, len(o.Answers))
	for i, a := range o.Answers {
		if a.Selected != nil {
			v := *a.Selected
			a.Selected = &v
		}
		answers[i] = a
	}
	o.Answers = answers
	return o
}
