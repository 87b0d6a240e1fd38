package domain

import "time"

// Roles resolved by the identity service.
const (
	RoleCoach  = "coach"
	RolePlayer = "player"
)

// Identity is a user resolved by the identity/team service.
type Identity struct {
	PlayerID string `json:"playerId" yaml:"id"`
	Username string `json:"username" yaml:"username"`
	Role     string `json:"role" yaml:"role"`
	Team     string `json:"team" yaml:"team"`
}

// IsCoach reports whether the identity may review team results.
func (i Identity) IsCoach() bool {
	return i.Role == RoleCoach
}

// Question models an MCQ question whose correct answer is one of its option strings.
type Question struct {
	Prompt        string   `json:"question" yaml:"question"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption string   `json:"correctAnswer" yaml:"correctAnswer"`
	MediaURL      string   `json:"mediaUrl,omitempty" yaml:"mediaUrl,omitempty"`
}

// Quiz is a team and position tagged set of questions.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Position  string     `json:"position,omitempty" yaml:"position,omitempty"`
	Team      string     `json:"team" yaml:"team"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// Summary returns the catalog view of the quiz.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{
		ID:            q.ID,
		Title:         q.Title,
		Position:      q.Position,
		Team:          q.Team,
		QuestionCount: len(q.Questions),
	}
}

// QuizSummary is what players see when browsing the catalog.
type QuizSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Position      string `json:"position,omitempty"`
	Team          string `json:"team"`
	QuestionCount int    `json:"questionCount"`
}

// AnswerOutcome is the graded answer for a single question.
// Selected is nil when the player left the question unanswered.
type AnswerOutcome struct {
	Question  string  `json:"question"`
	Selected  *string `json:"selected"`
	Correct   string  `json:"correct"`
	IsCorrect bool    `json:"isCorrect"`
}

// ResultRecord is the persisted outcome of one completed session.
// SessionID is unique among stored records.
type ResultRecord struct {
	ID          string          `json:"id,omitempty"`
	SessionID   string          `json:"sessionId,omitempty"`
	QuizID      string          `json:"quizId"`
	QuizTitle   string          `json:"quizTitle"`
	PlayerID    string          `json:"playerId"`
	Username    string          `json:"username"`
	Team        string          `json:"team"`
	Score       int             `json:"score"`
	Total       int             `json:"total"`
	Answers     []AnswerOutcome `json:"answers"`
	SubmittedAt time.Time       `json:"submittedAt"`
}

// Clone returns a copy that shares no memory with r.
func (r ResultRecord) Clone() ResultRecord {
	if r.Answers == nil {
		return r
	}
	answers := make([]AnswerOutcome, len(r.Answers))
	for i, a := range r.Answers {
		if a.Selected != nil {
			v := *a.Selected
			a.Selected = &v
		}
		answers[i] = a
	}
	r.Answers = answers
	return r
}
