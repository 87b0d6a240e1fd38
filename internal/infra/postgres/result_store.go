package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coach-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore appends result records to the quiz_results table.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

const resultColumns = `id, COALESCE(session_id, ''), quiz_id, quiz_title, player_id, username, team, score, total, answers, submitted_at`

// Append inserts the record. A zero SubmittedAt is filled by the database clock.
// A record whose session is already stored is not inserted again; the stored id
// is returned instead.
func (s *ResultStore) Append(ctx context.Context, record domain.ResultRecord) (string, error) {
	answers, err := json.Marshal(record.Answers)
	if err != nil {
		return "", fmt.Errorf("marshal answers: %w", err)
	}
	var submittedAt *time.Time
	if !record.SubmittedAt.IsZero() {
		submittedAt = &record.SubmittedAt
	}

	var id string
	err = s.pool.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO quiz_results (id, session_id, quiz_id, quiz_title, player_id, username, team, score, total, answers, submitted_at)
			VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10::jsonb, COALESCE($11::timestamptz, now()))
			ON CONFLICT (session_id) DO NOTHING
			RETURNING id::text
		)
		SELECT id FROM inserted
		UNION ALL
		SELECT id::text FROM quiz_results WHERE session_id = NULLIF($2, '')
		LIMIT 1`,
		uuid.NewString(), record.SessionID, record.QuizID, record.QuizTitle, record.PlayerID, record.Username,
		record.Team, record.Score, record.Total, string(answers), submittedAt).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// The conflicting row was committed after this statement's snapshot.
		err = s.pool.QueryRow(ctx, `SELECT id::text FROM quiz_results WHERE session_id = $1`, record.SessionID).Scan(&id)
	}
	if err != nil {
		return "", fmt.Errorf("insert result: %w", err)
	}
	return id, nil
}

// ListByTeam returns the team's records, newest first.
func (s *ResultStore) ListByTeam(ctx context.Context, team string) ([]domain.ResultRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+resultColumns+`
		FROM quiz_results
		WHERE team = $1
		ORDER BY submitted_at DESC, id`, team)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ResultRecord, 0)
	for rows.Next() {
		record, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *ResultStore) Get(ctx context.Context, resultID string) (domain.ResultRecord, error) {
	if _, err := uuid.Parse(resultID); err != nil {
		return domain.ResultRecord{}, domain.ErrResultNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM quiz_results WHERE id = $1`, resultID)
	record, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ResultRecord{}, domain.ErrResultNotFound
	}
	return record, err
}

func scanResult(row pgx.Row) (domain.ResultRecord, error) {
	var (
		r           domain.ResultRecord
		answers     []byte
		submittedAt *time.Time
	)
	err := row.Scan(&r.ID, &r.SessionID, &r.QuizID, &r.QuizTitle, &r.PlayerID, &r.Username, &r.Team,
		&r.Score, &r.Total, &answers, &submittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("scan result: %w", err)
	}
	if err := json.Unmarshal(answers, &r.Answers); err != nil {
		return r, fmt.Errorf("unmarshal answers: %w", err)
	}
	if submittedAt != nil {
		r.SubmittedAt = *submittedAt
	}
	return r, nil
}
