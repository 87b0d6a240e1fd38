package app

import (
	"fmt"
	"strings"
	"time"

	"coach-quiz-service/internal/domain"
)

// BuildRecord derives the result record of a submitted session.
// The record never carries a blank player, username or team since coaches group by team.
func BuildRecord(session *Session, identity domain.Identity, submittedAt time.Time) (domain.ResultRecord, error) {
	outcome, ok := session.Outcome()
	if !ok {
		return domain.ResultRecord{}, domain.ErrSessionNotSubmitted
	}
	if err := requireResolved(identity); err != nil {
		return domain.ResultRecord{}, err
	}

	quiz := session.Quiz()
	return domain.ResultRecord{
		SessionID:   session.ID(),
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		PlayerID:    identity.PlayerID,
		Username:    identity.Username,
		Team:        identity.Team,
		Score:       outcome.Score,
		Total:       outcome.Total,
		Answers:     outcome.Answers,
		SubmittedAt: submittedAt,
	}, nil
}

func requireResolved(identity domain.Identity) error {
	var missing []string
	if strings.TrimSpace(identity.PlayerID) == "" {
		missing = append(missing, "player id")
	}
	if strings.TrimSpace(identity.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(identity.Team) == "" {
		missing = append(missing, "team")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrIdentityUnresolved, strings.Join(missing, ", "))
	}
	return nil
}
