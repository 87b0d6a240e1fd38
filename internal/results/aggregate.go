// Package results filters and exports a team's result records for coach review.
// Every function is pure over the slice it is given; inputs are never mutated.
package results

import "coach-quiz-service/internal/domain"

// AllTitles is the filter value that selects every record.
const AllTitles = ""

// DistinctTitles returns the quiz titles present in records in first-seen order.
func DistinctTitles(records []domain.ResultRecord) []string {
	seen := make(map[string]struct{}, len(records))
	titles := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.QuizTitle]; ok {
			continue
		}
		seen[r.QuizTitle] = struct{}{}
		titles = append(titles, r.QuizTitle)
	}
	return titles
}

// FilterByTitle returns the records whose quiz title matches exactly, keeping order.
// AllTitles returns records unchanged.
func FilterByTitle(records []domain.ResultRecord, title string) []domain.ResultRecord {
	if title == AllTitles {
		return records
	}
	filtered := make([]domain.ResultRecord, 0, len(records))
	for _, r := range records {
		if r.QuizTitle == title {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
