package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"coach-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader loads quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.ID = quizID
	return quiz, nil
}

// ListQuizzes returns the team's quizzes; an empty position matches every quiz.
func (l *QuizLoader) ListQuizzes(ctx context.Context, team, position string) ([]domain.QuizSummary, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, title, team, position, jsonb_array_length(data->'questions')
		FROM quizzes
		WHERE team = $1 AND ($2 = '' OR position = $2)
		ORDER BY title, id`, team, position)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuizSummary, 0)
	for rows.Next() {
		var s domain.QuizSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Team, &s.Position, &s.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpsertQuiz validates and writes a quiz definition. Invalid quizzes are rejected
// before any write.
func (l *QuizLoader) UpsertQuiz(ctx context.Context, quiz domain.Quiz) error {
	quiz = quiz.Normalize()
	if quiz.ID == "" {
		return fmt.Errorf("%w: quiz id is empty", domain.ErrValidation)
	}
	if err := quiz.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO quizzes (id, title, team, position, data, updated_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, now())
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, team = EXCLUDED.team, position = EXCLUDED.position,
		    data = EXCLUDED.data, updated_at = now()`,
		quiz.ID, quiz.Title, quiz.Team, quiz.Position, string(data))
	if err != nil {
		return fmt.Errorf("%w: upsert quiz %s: %w", domain.ErrPersistence, quiz.ID, err)
	}
	return nil
}

// DeleteQuiz removes a quiz definition. Stored results keep their copied title.
func (l *QuizLoader) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := l.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("%w: delete quiz %s: %w", domain.ErrPersistence, quizID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
