package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coach-quiz-service/internal/app"
	"coach-quiz-service/internal/domain"
	"coach-quiz-service/internal/infra/memory"
	"coach-quiz-service/internal/results"
)

var (
	alice = domain.Identity{PlayerID: "u1", Username: "alice", Role: domain.RolePlayer, Team: "Mountaineers"}
	bob   = domain.Identity{PlayerID: "u2", Username: "bob", Role: domain.RolePlayer, Team: "Mountaineers"}
	coach = domain.Identity{PlayerID: "c1", Username: "coach", Role: domain.RoleCoach, Team: "Mountaineers"}
)

var fixedNow = time.Date(2025, 9, 6, 15, 4, 5, 0, time.UTC)

func TestStartSelectSubmitPersists(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	session, err := service.Start(ctx, "quiz-1", alice)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.State() != app.StateActive || len(session.Selections()) != 2 {
		t.Fatalf("expected active session with 2 slots, got %s/%d", session.State(), len(session.Selections()))
	}

	if _, err := service.Select(ctx, session.ID(), alice, 0, "A"); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if _, err := service.Select(ctx, session.ID(), alice, 1, "C"); err != nil {
		t.Fatalf("select failed: %v", err)
	}

	record, err := service.Submit(ctx, session.ID(), alice)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if record.ID == "" || record.Score != 1 || record.Total != 2 || !record.SubmittedAt.Equal(fixedNow) {
		t.Fatalf("unexpected record %+v", record)
	}

	stored, err := store.ListByTeam(ctx, "Mountaineers")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != record.ID || stored[0].Username != "alice" {
		t.Fatalf("expected record persisted, got %+v", stored)
	}

	if _, err := service.Submit(ctx, session.ID(), alice); !errors.Is(err, domain.ErrSessionSubmitted) {
		t.Fatalf("expected second submit rejected, got %v", err)
	}
	if stored, _ := store.ListByTeam(ctx, "Mountaineers"); len(stored) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(stored))
	}
}

func TestStartUnknownQuiz(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.Start(context.Background(), "quiz-missing", alice); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestSessionBelongsToPlayer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	session, _ := service.Start(ctx, "quiz-1", alice)
	if _, err := service.Select(ctx, session.ID(), bob, 0, "A"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := service.Submit(ctx, session.ID(), bob); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := service.Select(ctx, "nope", alice, 0, "A"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestSubmitRequiresResolvedIdentity(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	partial := domain.Identity{PlayerID: "u3", Username: "carl"}
	session, err := service.Start(ctx, "quiz-1", partial)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Submit(ctx, session.ID(), partial); !errors.Is(err, domain.ErrIdentityUnresolved) {
		t.Fatalf("expected unresolved identity, got %v", err)
	}
	if session.State() != app.StateActive {
		t.Fatalf("session must stay active, got %s", session.State())
	}
	if stored, _ := store.ListByTeam(ctx, ""); len(stored) != 0 {
		t.Fatalf("no record may be written")
	}
}

func TestPersistenceFailureIsSurfacedAndRetryable(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{ResultStore: memory.NewResultStore(), failures: 1}
	service := app.NewQuizService(memory.NewSessionStore(), quizRepo(), store, app.WithClock(func() time.Time { return fixedNow }))

	session, _ := service.Start(ctx, "quiz-1", alice)
	_, _ = service.Select(ctx, session.ID(), alice, 1, "D")

	if _, err := service.Submit(ctx, session.ID(), alice); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if session.State() != app.StateSubmitted || session.ResultID() != "" {
		t.Fatalf("expected submitted unsaved session, got %s %q", session.State(), session.ResultID())
	}
	if stored, _ := store.ListByTeam(ctx, "Mountaineers"); len(stored) != 0 {
		t.Fatalf("failed write must not be visible, got %+v", stored)
	}

	record, err := service.SaveResult(ctx, session.ID(), alice)
	if err != nil {
		t.Fatalf("retry save: %v", err)
	}
	if record.Score != 1 || session.ResultID() != record.ID {
		t.Fatalf("unexpected retried record %+v", record)
	}

	again, err := service.SaveResult(ctx, session.ID(), alice)
	if err != nil || again.ID != record.ID {
		t.Fatalf("saving twice must return stored record, got %+v %v", again, err)
	}
	if stored, _ := store.ListByTeam(ctx, "Mountaineers"); len(stored) != 1 {
		t.Fatalf("expected one stored record, got %d", len(stored))
	}
}

func TestSaveResultBeforeSubmit(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	session, _ := service.Start(ctx, "quiz-1", alice)
	if _, err := service.SaveResult(ctx, session.ID(), alice); !errors.Is(err, domain.ErrSessionNotSubmitted) {
		t.Fatalf("expected not submitted, got %v", err)
	}
}

func TestStrictOptionsService(t *testing.T) {
	ctx := context.Background()
	service := app.NewQuizService(memory.NewSessionStore(), quizRepo(), memory.NewResultStore(), app.WithStrictOptions(true))
	session, _ := service.Start(ctx, "quiz-1", alice)
	if _, err := service.Select(ctx, session.ID(), alice, 0, "Z"); !errors.Is(err, domain.ErrOptionNotFound) {
		t.Fatalf("expected option rejected, got %v", err)
	}
}

func TestListQuizzesScopedToTeam(t *testing.T) {
	service, _ := newTestService(t)
	list, err := service.ListQuizzes(context.Background(), alice, "QB")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "quiz-1" {
		t.Fatalf("expected quiz-1, got %+v", list)
	}
	if _, err := service.ListQuizzes(context.Background(), domain.Identity{PlayerID: "u9"}, ""); !errors.Is(err, domain.ErrIdentityUnresolved) {
		t.Fatalf("expected unresolved, got %v", err)
	}
}

func TestAbandonKeepsUnsavedSubmission(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionStore()
	store := &flakyStore{ResultStore: memory.NewResultStore(), failures: 1}
	service := app.NewQuizService(sessions, quizRepo(), store)

	active, _ := service.Start(ctx, "quiz-1", alice)
	submitted, _ := service.Start(ctx, "quiz-1", alice)
	_, _ = service.Submit(ctx, submitted.ID(), alice)

	if err := service.Abandon(ctx, active.ID(), alice); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if err := service.Abandon(ctx, submitted.ID(), alice); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if sessions.Len() != 1 {
		t.Fatalf("expected only the unsaved submission kept, got %d sessions", sessions.Len())
	}
	if _, err := service.Session(ctx, submitted.ID(), alice); err != nil {
		t.Fatalf("unsaved submission dropped: %v", err)
	}
}

func TestResultsServiceForCoach(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	for _, player := range []domain.Identity{alice, bob} {
		session, _ := service.Start(ctx, "quiz-1", player)
		_, _ = service.Select(ctx, session.ID(), player, 0, "A")
		if _, err := service.Submit(ctx, session.ID(), player); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	review := app.NewResultsService(store, results.Exporter{})

	titles, err := review.Titles(ctx, coach)
	if err != nil || len(titles) != 1 || titles[0] != "Week 1" {
		t.Fatalf("titles: %v %v", titles, err)
	}
	list, err := review.List(ctx, coach, "")
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %d %v", len(list), err)
	}
	if none, _ := review.List(ctx, coach, "Week 9"); len(none) != 0 {
		t.Fatalf("expected empty filter result")
	}

	got, err := review.Get(ctx, coach, list[0].ID)
	if err != nil || got.ID != list[0].ID {
		t.Fatalf("get: %+v %v", got, err)
	}
	rival := domain.Identity{PlayerID: "c2", Username: "rival", Role: domain.RoleCoach, Team: "Panthers"}
	if _, err := review.Get(ctx, rival, list[0].ID); !errors.Is(err, domain.ErrResultNotFound) {
		t.Fatalf("expected other team hidden, got %v", err)
	}

	csv, err := review.ExportCSV(ctx, coach, "Week 1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := `"Quiz Title","Username","Score","Total","Date"` + "\n" +
		`"Week 1","alice","1","2","9/6/2025, 3:04:05 PM"` + "\n" +
		`"Week 1","bob","1","2","9/6/2025, 3:04:05 PM"`
	if csv != want {
		t.Fatalf("unexpected export:\n%s", csv)
	}

	if _, err := review.ExportCSV(ctx, coach, "Week 9"); !errors.Is(err, domain.ErrEmptyExport) {
		t.Fatalf("expected empty export, got %v", err)
	}
	if _, err := review.List(ctx, alice, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("players may not review results, got %v", err)
	}
}

func TestConcurrentSubmitAcceptsOne(t *testing.T) {
	ctx := context.Background()
	service, store := newTestService(t)

	const sessions = 20
	for i := 0; i < sessions; i++ {
		session, _ := service.Start(ctx, "quiz-1", alice)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for j := range errs {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				_, errs[j] = service.Submit(ctx, session.ID(), alice)
			}(j)
		}
		wg.Wait()

		if (errs[0] == nil) == (errs[1] == nil) {
			t.Fatalf("expected exactly one accepted submit, got %v / %v", errs[0], errs[1])
		}
		for _, err := range errs {
			if err != nil && !errors.Is(err, domain.ErrSessionSubmitted) {
				t.Fatalf("expected already submitted, got %v", err)
			}
		}
	}
	if stored, _ := store.ListByTeam(ctx, "Mountaineers"); len(stored) != sessions {
		t.Fatalf("expected %d records, got %d", sessions, len(stored))
	}
}

func TestConcurrentSelectsTouchOnlyTheirSlot(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)
	session, _ := service.Start(ctx, "quiz-1", alice)

	var wg sync.WaitGroup
	for round := 0; round < 50; round++ {
		for index, option := range []string{"A", "D"} {
			wg.Add(1)
			go func(index int, option string) {
				defer wg.Done()
				if _, err := service.Select(ctx, session.ID(), alice, index, option); err != nil {
					t.Errorf("select %d: %v", index, err)
				}
			}(index, option)
		}
	}
	wg.Wait()

	if v, _ := session.Selection(0); v != "A" {
		t.Fatalf("slot 0 = %q", v)
	}
	if v, _ := session.Selection(1); v != "D" {
		t.Fatalf("slot 1 = %q", v)
	}
}

func TestUpdateRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	sessions := &conflictingSessions{SessionStore: memory.NewSessionStore()}
	service := app.NewQuizService(sessions, quizRepo(), memory.NewResultStore())

	session, err := service.Start(ctx, "quiz-1", alice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	sessions.conflicts = 2
	if _, err := service.Select(ctx, session.ID(), alice, 0, "A"); err != nil {
		t.Fatalf("select should succeed after retries: %v", err)
	}

	sessions.conflicts = 100
	if _, err := service.Select(ctx, session.ID(), alice, 1, "C"); !errors.Is(err, domain.ErrSessionConflict) {
		t.Fatalf("expected conflict once retries run out, got %v", err)
	}
}

// conflictingSessions reports a concurrent write for the next conflicts saves.
type conflictingSessions struct {
	*memory.SessionStore
	conflicts int
}

func (s *conflictingSessions) Save(ctx context.Context, session *app.Session) error {
	if s.conflicts > 0 {
		s.conflicts--
		return domain.ErrSessionConflict
	}
	return s.SessionStore.Save(ctx, session)
}

type flakyStore struct {
	app.ResultStore
	failures int
}

func (s *flakyStore) Append(ctx context.Context, record domain.ResultRecord) (string, error) {
	if s.failures > 0 {
		s.failures--
		return "", errors.New("connection reset")
	}
	return s.ResultStore.Append(ctx, record)
}

func newTestService(t *testing.T) (*app.QuizService, *memory.ResultStore) {
	t.Helper()
	store := memory.NewResultStore()
	service := app.NewQuizService(memory.NewSessionStore(), quizRepo(), store,
		app.WithClock(func() time.Time { return fixedNow }))
	return service, store
}

func quizRepo() *memory.QuizRepository {
	return memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:       "quiz-1",
			Title:    "Week 1",
			Position: "QB",
			Team:     "Mountaineers",
			Questions: []domain.Question{
				{Prompt: "Q1", Options: []string{"A", "B"}, CorrectOption: "A"},
				{Prompt: "Q2", Options: []string{"C", "D"}, CorrectOption: "D"},
			},
		},
	}), 5*time.Minute)
}
