package app

import (
	"context"
	"fmt"
	"io"

	"coach-quiz-service/internal/domain"
	"coach-quiz-service/internal/results"
)

// ResultsService contains the coach-side review use cases. Every call works on a
// fresh snapshot of the coach's team records.
type ResultsService struct {
	store    ResultStore
	exporter results.Exporter
}

func NewResultsService(store ResultStore, exporter results.Exporter) *ResultsService {
	return &ResultsService{store: store, exporter: exporter}
}

func (s *ResultsService) teamRecords(ctx context.Context, coach domain.Identity) ([]domain.ResultRecord, error) {
	if !coach.IsCoach() {
		return nil, domain.ErrForbidden
	}
	if coach.Team == "" {
		return nil, fmt.Errorf("%w: missing team", domain.ErrIdentityUnresolved)
	}
	records, err := s.store.ListByTeam(ctx, coach.Team)
	if err != nil {
		return nil, fmt.Errorf("list results for team %q: %w", coach.Team, err)
	}
	return records, nil
}

// Titles returns the distinct quiz titles of the team's results.
func (s *ResultsService) Titles(ctx context.Context, coach domain.Identity) ([]string, error) {
	records, err := s.teamRecords(ctx, coach)
	if err != nil {
		return nil, err
	}
	return results.DistinctTitles(records), nil
}

// List returns the team's results, newest first, narrowed to title unless it is empty.
func (s *ResultsService) List(ctx context.Context, coach domain.Identity, title string) ([]domain.ResultRecord, error) {
	records, err := s.teamRecords(ctx, coach)
	if err != nil {
		return nil, err
	}
	return results.FilterByTitle(records, title), nil
}

// Get returns one result of the coach's team.
func (s *ResultsService) Get(ctx context.Context, coach domain.Identity, resultID string) (domain.ResultRecord, error) {
	if !coach.IsCoach() {
		return domain.ResultRecord{}, domain.ErrForbidden
	}
	record, err := s.store.Get(ctx, resultID)
	if err != nil {
		return domain.ResultRecord{}, err
	}
	if record.Team != coach.Team {
		return domain.ResultRecord{}, domain.ErrResultNotFound
	}
	return record, nil
}

// ExportCSV returns the delimited export of the filtered results.
func (s *ResultsService) ExportCSV(ctx context.Context, coach domain.Identity, title string) (string, error) {
	records, err := s.List(ctx, coach, title)
	if err != nil {
		return "", err
	}
	return s.exporter.DelimitedText(records)
}

// ExportXLSX writes the filtered results as a workbook.
func (s *ResultsService) ExportXLSX(ctx context.Context, coach domain.Identity, title string, w io.Writer) error {
	records, err := s.List(ctx, coach, title)
	if err != nil {
		return err
	}
	return s.exporter.XLSX(records, w)
}
