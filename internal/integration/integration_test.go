package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/domain"
	pgstore "coach-quiz-service/internal/infra/postgres"
	pgmigrations "coach-quiz-service/internal/infra/postgres/migrations"
	infraredis "coach-quiz-service/internal/infra/redis"
	"coach-quiz-service/internal/results"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizRoundTripEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewQuizLoader(pool)
	if err := loader.UpsertQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("upsert quiz: %v", err)
	}
	seedUsers(t, ctx, pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	store := pgstore.NewResultStore(pool)
	identities := pgstore.NewIdentityResolver(pool)
	service := app.NewQuizService(sessionStore, quizRepo, store)

	player, err := identities.Resolve(ctx, "u1")
	if err != nil {
		t.Fatalf("resolve player: %v", err)
	}
	coach, err := identities.Resolve(ctx, "c1")
	if err != nil {
		t.Fatalf("resolve coach: %v", err)
	}
	if _, err := identities.Resolve(ctx, "nobody"); !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected unknown user, got %v", err)
	}

	summaries, err := service.ListQuizzes(ctx, player, "QB")
	if err != nil || len(summaries) != 1 || summaries[0].QuestionCount != 2 {
		t.Fatalf("list quizzes: %+v %v", summaries, err)
	}

	session, err := service.Start(ctx, "quiz-1", player)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Select(ctx, session.ID(), player, 0, "4"); err != nil {
		t.Fatalf("select: %v", err)
	}
	record, err := service.Submit(ctx, session.ID(), player)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Score != 1 || record.Total != 2 || record.ID == "" {
		t.Fatalf("unexpected record %+v", record)
	}

	review := app.NewResultsService(store, results.NewExporter(time.UTC, ""))
	stored, err := review.Get(ctx, coach, record.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if stored.Username != "jdoe" || len(stored.Answers) != 2 || stored.Answers[1].Selected != nil {
		t.Fatalf("unexpected stored record %+v", stored)
	}

	if stored.SessionID != session.ID() {
		t.Fatalf("expected record keyed by session %s, got %q", session.ID(), stored.SessionID)
	}
	if again, err := store.Append(ctx, stored); err != nil || again != record.ID {
		t.Fatalf("re-append must return stored id %s, got %s %v", record.ID, again, err)
	}

	csv, err := review.ExportCSV(ctx, coach, "Week 1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(csv, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], `"Week 1","jdoe","1","2","`) {
		t.Fatalf("unexpected export:\n%s", csv)
	}

	if err := loader.DeleteQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if err := loader.DeleteQuiz(ctx, "quiz-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found on second delete, got %v", err)
	}
	if list, _ := loader.ListQuizzes(ctx, "Mountaineers", ""); len(list) != 0 {
		t.Fatalf("expected no quizzes after delete, got %+v", list)
	}
	if titles, _ := review.Titles(ctx, coach); len(titles) != 1 || titles[0] != "Week 1" {
		t.Fatalf("results must outlive their quiz, got %v", titles)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func seedUsers(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(ctx, `
		INSERT INTO users (id, username, role, team_name) VALUES
		('u1', 'jdoe', 'player', 'Mountaineers'),
		('c1', 'coach', 'coach', 'Mountaineers')`)
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:       "quiz-1",
		Title:    "Week 1",
		Position: "QB",
		Team:     "Mountaineers",
		Questions: []domain.Question{
			{Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectOption: "4"},
			{Prompt: "Snap count on two?", Options: []string{"Hut", "Hut hut"}, CorrectOption: "Hut hut"},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
