package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"coach-quiz-service/internal/config"
	"coach-quiz-service/internal/domain"
	"coach-quiz-service/internal/results"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	team   string
	title  string
	outDir string
	format string
}

// NewExportCmd writes a team's results to quiz_results.csv (or .xlsx).
func NewExportCmd(configPath *string) *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a team's quiz results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), *configPath, opts)
		},
	}
	cmd.Flags().StringVar(&opts.team, "team", "", "team whose results are exported")
	cmd.Flags().StringVar(&opts.title, "title", "", "only export results of this quiz title")
	cmd.Flags().StringVar(&opts.outDir, "out", ".", "output directory")
	cmd.Flags().StringVar(&opts.format, "format", "csv", "csv or xlsx")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func runExport(ctx context.Context, configPath string, opts exportOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	d, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	coach := domain.Identity{PlayerID: "cli", Username: "cli", Role: domain.RoleCoach, Team: opts.team}
	path, err := writeExport(ctx, d, coach, opts)
	if err != nil {
		return err
	}
	slog.Info("results exported", "team", opts.team, "path", path)
	return nil
}

// writeExport produces no file when there is nothing to export.
func writeExport(ctx context.Context, d *deps, coach domain.Identity, opts exportOptions) (string, error) {
	switch opts.format {
	case "csv":
		text, err := d.review.ExportCSV(ctx, coach, opts.title)
		if err != nil {
			return "", err
		}
		path := filepath.Join(opts.outDir, results.ExportFilename)
		return path, os.WriteFile(path, []byte(text), 0o644)
	case "xlsx":
		// Check before creating the file so an empty export leaves nothing behind.
		records, err := d.review.List(ctx, coach, opts.title)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return "", domain.ErrEmptyExport
		}
		path := filepath.Join(opts.outDir, results.XLSXFilename)
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		return path, d.review.ExportXLSX(ctx, coach, opts.title, f)
	default:
		return "", fmt.Errorf("unknown export format %q", opts.format)
	}
}
