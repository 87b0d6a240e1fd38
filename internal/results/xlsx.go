package results

import (
	"fmt"
	"io"

	"coach-quiz-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

// XLSX writes records as a single-sheet workbook with the same columns as the
// delimited export. Score and Total are numeric cells.
func (e Exporter) XLSX(records []domain.ResultRecord, w io.Writer) error {
	if len(records) == 0 {
		return domain.ErrEmptyExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			sanitizeForSpreadsheet(r.QuizTitle),
			sanitizeForSpreadsheet(r.Username),
			r.Score,
			r.Total,
			e.FormatDate(r.SubmittedAt),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush workbook: %w", err)
	}
	return f.Write(w)
}

// ExportXLSX writes records as a workbook with the default exporter.
func ExportXLSX(records []domain.ResultRecord, w io.Writer) error {
	return Exporter{}.XLSX(records, w)
}

// sanitizeForSpreadsheet keeps user-entered text from being evaluated as a formula.
func sanitizeForSpreadsheet(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
