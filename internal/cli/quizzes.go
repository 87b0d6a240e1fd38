package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"coach-quiz-service/internal/config"
	"coach-quiz-service/internal/infra/memory"
	pgstore "coach-quiz-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewQuizzesCmd groups quiz catalog maintenance commands.
func NewQuizzesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "Manage the quiz catalog",
	}
	cmd.AddCommand(newQuizzesImportCmd(configPath))
	cmd.AddCommand(newQuizzesListCmd(configPath))
	cmd.AddCommand(newQuizzesDeleteCmd(configPath))
	return cmd
}

func newQuizzesListCmd(configPath *string) *cobra.Command {
	var team, position string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a team's quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuizLoader(cmd.Context(), *configPath, func(ctx context.Context, loader *pgstore.QuizLoader) error {
				list, err := loader.ListQuizzes(ctx, team, position)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, q := range list {
					fmt.Fprintf(out, "%s\t%s\t%s\t%d questions\n", q.ID, q.Title, q.Position, q.QuestionCount)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&team, "team", "", "team whose quizzes are listed")
	cmd.Flags().StringVar(&position, "position", "", "only list quizzes for this position")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func newQuizzesDeleteCmd(configPath *string) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a quiz definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuizLoader(cmd.Context(), *configPath, func(ctx context.Context, loader *pgstore.QuizLoader) error {
				if err := loader.DeleteQuiz(ctx, id); err != nil {
					return err
				}
				slog.Info("quiz deleted", "quiz", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "quiz id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func withQuizLoader(ctx context.Context, configPath string, fn func(context.Context, *pgstore.QuizLoader) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pgstore.NewQuizLoader(pool))
}

func newQuizzesImportCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate a YAML quiz catalog and upsert it into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return importQuizzes(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML catalog file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func importQuizzes(ctx context.Context, configPath, file string) error {
	// The whole catalog is validated before the first write.
	quizzes, err := memory.LoadCatalog(file)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(quizzes))
	for id := range quizzes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return withQuizLoader(ctx, configPath, func(ctx context.Context, loader *pgstore.QuizLoader) error {
		for _, id := range ids {
			if err := loader.UpsertQuiz(ctx, quizzes[id]); err != nil {
				return err
			}
			slog.Info("quiz imported", "quiz", id, "title", quizzes[id].Title)
		}
		return nil
	})
}
