package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coach-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, team, position string) ([]domain.QuizSummary, error)
}

// ResultStore is the append-only store of result records.
// ListByTeam returns records newest first.
type ResultStore interface {
	Append(ctx context.Context, record domain.ResultRecord) (string, error)
	ListByTeam(ctx context.Context, team string) ([]domain.ResultRecord, error)
	Get(ctx context.Context, resultID string) (domain.ResultRecord, error)
}

// IdentityResolver maps an authenticated user handle to a resolved identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (domain.Identity, error)
}

// QuizService contains the player-side quiz use cases.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	results  ResultStore
	strict   bool
	now      func() time.Time
	newID    func() string
	log      *slog.Logger
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithStrictOptions makes sessions reject options a question does not offer.
func WithStrictOptions(strict bool) Option {
	return func(s *QuizService) { s.strict = strict }
}

// WithClock overrides the clock used for submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *QuizService) { s.log = log }
}

func NewQuizService(sessions SessionRepository, quizzes QuizRepository, results ResultStore, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: sessions,
		quizzes:  quizzes,
		results:  results,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListQuizzes returns the quizzes of the player's team, optionally narrowed to a position.
func (s *QuizService) ListQuizzes(ctx context.Context, player domain.Identity, position string) ([]domain.QuizSummary, error) {
	if player.Team == "" {
		return nil, fmt.Errorf("%w: missing team", domain.ErrIdentityUnresolved)
	}
	return s.quizzes.ListQuizzes(ctx, player.Team, position)
}

// Start fetches the quiz once and opens an active session for the player.
func (s *QuizService) Start(ctx context.Context, quizID string, player domain.Identity) (*Session, error) {
	if player.PlayerID == "" {
		return nil, fmt.Errorf("%w: missing player id", domain.ErrIdentityUnresolved)
	}

	var session *Session
	if s.strict {
		session = NewStrictSession(s.newID(), player)
	} else {
		session = NewSession(s.newID(), player)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := session.Load(quiz); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.log.Info("quiz session started", "session", session.ID(), "quiz", quiz.ID, "player", player.PlayerID)
	return session, nil
}

// Session returns a session owned by the player.
func (s *QuizService) Session(ctx context.Context, sessionID string, player domain.Identity) (*Session, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Player().PlayerID != player.PlayerID {
		return nil, domain.ErrForbidden
	}
	return session, nil
}

// Select records an answer and stores the updated session.
func (s *QuizService) Select(ctx context.Context, sessionID string, player domain.Identity, index int, option string) (*Session, error) {
	return s.update(ctx, sessionID, player, func(session *Session) error {
		return session.Select(index, option)
	})
}

// Submit grades the session, then builds and stores its result record.
// Only the caller whose submission is stored first goes on to persist; a concurrent
// or repeated submit gets domain.ErrSessionSubmitted.
// If the store rejects the write the session stays submitted with its score and the
// caller may retry through SaveResult.
func (s *QuizService) Submit(ctx context.Context, sessionID string, player domain.Identity) (domain.ResultRecord, error) {
	var outcome Outcome
	session, err := s.update(ctx, sessionID, player, func(session *Session) error {
		if err := requireResolved(player); err != nil {
			return err
		}
		var err error
		outcome, err = session.Submit()
		return err
	})
	if err != nil {
		return domain.ResultRecord{}, err
	}
	s.log.Info("quiz session submitted", "session", session.ID(), "score", outcome.Score, "total", outcome.Total)
	return s.persist(ctx, session, player)
}

// maxUpdateAttempts bounds the read-modify-write retries of a contended session.
const maxUpdateAttempts = 8

// update applies mutate to the latest stored copy of the session and saves it,
// starting over from a fresh read when another request saved first.
func (s *QuizService) update(ctx context.Context, sessionID string, player domain.Identity, mutate func(*Session) error) (*Session, error) {
	for attempt := 1; ; attempt++ {
		session, err := s.Session(ctx, sessionID, player)
		if err != nil {
			return nil, err
		}
		if err := mutate(session); err != nil {
			return nil, err
		}
		err = s.sessions.Save(ctx, session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, domain.ErrSessionConflict) || attempt == maxUpdateAttempts {
			return nil, fmt.Errorf("save session: %w", err)
		}
		s.log.Debug("session changed concurrently, retrying", "session", sessionID, "attempt", attempt)
	}
}

// SaveResult stores the result of a submitted session that has not been saved yet.
// For an already saved session it returns the stored record.
func (s *QuizService) SaveResult(ctx context.Context, sessionID string, player domain.Identity) (domain.ResultRecord, error) {
	session, err := s.Session(ctx, sessionID, player)
	if err != nil {
		return domain.ResultRecord{}, err
	}
	if id := session.ResultID(); id != "" {
		return s.results.Get(ctx, id)
	}
	return s.persist(ctx, session, player)
}

func (s *QuizService) persist(ctx context.Context, session *Session, player domain.Identity) (domain.ResultRecord, error) {
	record, err := BuildRecord(session, player, s.now())
	if err != nil {
		return domain.ResultRecord{}, err
	}
	id, err := s.results.Append(ctx, record)
	if err != nil {
		s.log.Error("failed to save result", "session", session.ID(), "error", err)
		return domain.ResultRecord{}, fmt.Errorf("%w: save result: %w", domain.ErrPersistence, err)
	}
	record.ID = id
	session.markSaved(id)
	if err := s.sessions.Save(ctx, session); err != nil {
		// The record is stored and keyed by session, so a later SaveResult finds it.
		s.log.Warn("failed to mark session saved", "session", session.ID(), "error", err)
	}
	return record, nil
}

// Abandon drops a session that has not been submitted.
func (s *QuizService) Abandon(ctx context.Context, sessionID string, player domain.Identity) error {
	session, err := s.Session(ctx, sessionID, player)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if session.State() == StateSubmitted && session.ResultID() == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}
