package cli

import (
	"context"
	"time"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/config"
	"coach-quiz-service/internal/domain"
	"coach-quiz-service/internal/infra/memory"
	pgstore "coach-quiz-service/internal/infra/postgres"
	redisstore "coach-quiz-service/internal/infra/redis"
	"coach-quiz-service/internal/results"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// deps is the wired service graph shared by the start and export commands.
type deps struct {
	quizzes    *app.QuizService
	review     *app.ResultsService
	identities app.IdentityResolver
	closers    []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// wire picks Postgres for durable stores and Redis for caches when configured,
// falling back to in-memory implementations.
func wire(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}
	log := cfg.Logger()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
	}

	var loader memory.QuizLoader
	switch {
	case pool != nil:
		loader = pgstore.NewQuizLoader(pool)
	case cfg.Quiz.CatalogFile != "":
		quizzes, err := memory.LoadCatalog(cfg.Quiz.CatalogFile)
		if err != nil {
			d.Close()
			return nil, err
		}
		loader = memory.NewStaticQuizLoader(quizzes)
	default:
		loader = memory.NewStaticQuizLoader(map[string]domain.Quiz{})
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Quiz.SessionTTL, config.TTLDuration(cfg.Redis.TTL, 2*time.Hour))
	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var store app.ResultStore
	if pool != nil {
		store = pgstore.NewResultStore(pool)
		d.identities = pgstore.NewIdentityResolver(pool)
	} else {
		store = memory.NewResultStore()
		d.identities = memory.NewStaticIdentityResolver(cfg.Users)
	}

	loc, err := cfg.Location()
	if err != nil {
		d.Close()
		return nil, err
	}

	d.quizzes = app.NewQuizService(sessions, quizRepo, store,
		app.WithStrictOptions(cfg.Quiz.StrictOptions),
		app.WithLogger(log),
	)
	d.review = app.NewResultsService(store, results.NewExporter(loc, cfg.Export.Layout))
	return d, nil
}
