package batch

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tradedocs/tradedocs/constants"
	"github.com/tradedocs/tradedocs/internal/extract"
)

// ExportXLSX renders the session's extracted tenders as an XLSX workbook,
// one row per entry that is still in play. Removed entries are skipped.
// The session itself is never mutated.
func ExportXLSX(s *Session, logger *slog.Logger) ([]byte, error) {
	start := time.Now()
	if logger == nil {
		logger = slog.Default()
	}

	f := excelize.NewFile()
	const sheet = "Tenders"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"File Name",
		"Status",
		"Reference",
		"Title",
		"Organization",
		"Closing Date",
		"Items",
		"Notes",
		"Confidence",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	rows := 0
	for i := range s.Entries {
		e := &s.Entries[i]
		if e.Status == constants.EntryStatusRemoved {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, e.FileName)
		write(2, string(e.Status))

		if e.Result.Success && e.Result.Tender != nil {
			t := e.Result.Tender
			write(3, t.Reference)
			write(4, t.Title)
			write(5, t.Organization)
			write(6, t.ClosingDate)
			write(7, joinItems(t))
			write(8, truncate(t.Notes, 140))
			write(9, fmt.Sprintf("%.0f%%", e.Result.Confidence.Overall()*100))
		} else {
			write(8, truncate(e.Result.Error, 140))
		}

		row++
		rows++
	}

	_ = f.SetColWidth(sheet, "A", "A", 32) // file name
	_ = f.SetColWidth(sheet, "B", "B", 18) // status
	_ = f.SetColWidth(sheet, "C", "C", 20) // reference
	_ = f.SetColWidth(sheet, "D", "E", 30) // title, organization
	_ = f.SetColWidth(sheet, "F", "F", 14) // closing date
	_ = f.SetColWidth(sheet, "G", "G", 56) // items
	_ = f.SetColWidth(sheet, "H", "H", 48) // notes
	_ = f.SetColWidth(sheet, "I", "I", 12) // confidence

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("batch.export.xlsx.ok",
		"rows", rows,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// joinItems flattens line items into one readable cell.
func joinItems(t *extract.TenderFields) string {
	parts := make([]string, 0, len(t.Items))
	for _, it := range t.Items {
		parts = append(parts, fmt.Sprintf("%s x%d %s", it.ItemDescription, it.Quantity, it.Unit))
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
