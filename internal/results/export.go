package results

import (
	"strconv"
	"strings"
	"time"

	"coach-quiz-service/internal/domain"
)

const (
	// ExportFilename is the suggested name for the delimited export.
	ExportFilename = "quiz_results.csv"
	// XLSXFilename is the suggested name for the workbook export.
	XLSXFilename = "quiz_results.xlsx"
	// DefaultDateLayout renders timestamps like an en-US locale string.
	DefaultDateLayout = "1/2/2006, 3:04:05 PM"
	// UnknownDate is written when a record has no submission time.
	UnknownDate = "Unknown"
)

// Header is the fixed column order of every export.
var Header = []string{"Quiz Title", "Username", "Score", "Total", "Date"}

// Exporter renders result records. The zero value uses UTC and DefaultDateLayout.
type Exporter struct {
	Location *time.Location
	Layout   string
}

// NewExporter returns an exporter rendering dates in loc with layout.
func NewExporter(loc *time.Location, layout string) Exporter {
	return Exporter{Location: loc, Layout: layout}
}

// ExportToDelimitedText serializes records with the default exporter.
func ExportToDelimitedText(records []domain.ResultRecord) (string, error) {
	return Exporter{}.DelimitedText(records)
}

// DelimitedText writes a header row and one row per record. Each cell is wrapped in
// double quotes as-is; embedded quotes and commas are not escaped.
func (e Exporter) DelimitedText(records []domain.ResultRecord) (string, error) {
	if len(records) == 0 {
		return "", domain.ErrEmptyExport
	}
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, quoteRow(Header))
	for _, r := range records {
		rows = append(rows, quoteRow(e.Row(r)))
	}
	return strings.Join(rows, "\n"), nil
}

// Row returns the export cells of a single record.
func (e Exporter) Row(r domain.ResultRecord) []string {
	return []string{
		r.QuizTitle,
		r.Username,
		strconv.Itoa(r.Score),
		strconv.Itoa(r.Total),
		e.FormatDate(r.SubmittedAt),
	}
}

// FormatDate renders t, or UnknownDate when t is unset.
func (e Exporter) FormatDate(t time.Time) string {
	if t.IsZero() {
		return UnknownDate
	}
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := e.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.In(loc).Format(layout)
}

func quoteRow(cells []string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + c + `"`
	}
	return strings.Join(quoted, ",")
}
