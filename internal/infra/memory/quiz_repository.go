package memory

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"coach-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// QuizLoader fetches quiz content from a backing store (e.g., document DB).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, team, position string) ([]domain.QuizSummary, error)
}

// QuizRepository caches quizzes with TTL to avoid repeated DB hits.
// Listings always go to the loader so newly authored quizzes show up.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedQuiz
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuiz),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.quiz, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[quizID]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.quiz, nil
		}
		r.mu.RUnlock()

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		r.mu.Lock()
		r.cache[quizID] = cachedQuiz{
			quiz:      quiz,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) ListQuizzes(ctx context.Context, team, position string) ([]domain.QuizSummary, error) {
	return r.loader.ListQuizzes(ctx, team, position)
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *StaticQuizLoader) ListQuizzes(_ context.Context, team, position string) ([]domain.QuizSummary, error) {
	out := make([]domain.QuizSummary, 0)
	for _, quiz := range l.quizzes {
		if quiz.Team != team {
			continue
		}
		if position != "" && quiz.Position != position {
			continue
		}
		out = append(out, quiz.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Catalog is the YAML layout of an authored quiz file.
type Catalog struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// LoadCatalog reads, normalizes and validates every quiz in a YAML catalog file.
func LoadCatalog(path string) (map[string]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	quizzes := make(map[string]domain.Quiz, len(catalog.Quizzes))
	for i, raw := range catalog.Quizzes {
		quiz := raw.Normalize()
		if quiz.ID == "" {
			return nil, fmt.Errorf("catalog entry %d: %w: missing id", i+1, domain.ErrValidation)
		}
		if err := quiz.Validate(); err != nil {
			return nil, fmt.Errorf("catalog quiz %s: %w", quiz.ID, err)
		}
		if _, dup := quizzes[quiz.ID]; dup {
			return nil, fmt.Errorf("catalog quiz %s: %w: duplicate id", quiz.ID, domain.ErrValidation)
		}
		quizzes[quiz.ID] = quiz
	}
	return quizzes, nil
}
