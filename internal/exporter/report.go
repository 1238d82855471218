package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "deltamerge/internal/errors"
	"deltamerge/internal/frame"
	"deltamerge/internal/infrastructure"
)

// HighlightColor is the solid fill of highlighted columns.
const HighlightColor = "FFFF00"

// Layout fixes the sheet name, column order and styling of a report.
type Layout struct {
	SheetName string
	// Columns is the output order. Columns absent from the frame are skipped.
	Columns []string
	// Highlight columns get a solid HighlightColor fill on their data cells.
	Highlight []string
	// Percent columns hold fractions and are displayed as percentages.
	Percent []string
}

// ReportWriter writes a frame to a single-sheet xlsx workbook
type ReportWriter struct {
	layout Layout
	logger *slog.Logger
}

// NewReportWriter creates a report writer for layout
func NewReportWriter(layout Layout, logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ReportWriter{
		layout: layout,
		logger: infrastructure.WithComponent(logger, "exporter"),
	}
}

// Write builds the workbook for f and saves it to path. The file is written
// next to path under a temporary name and renamed into place, so path either
// keeps its previous content or holds the complete report.
func (w *ReportWriter) Write(ctx context.Context, f *frame.Frame, path string) error {
	wb, cols, err := w.Build(f)
	if err != nil {
		return apperrors.NewExportError(path, "cannot build report", err)
	}
	defer wb.Close()

	if err := saveAtomic(wb, path); err != nil {
		return apperrors.NewExportError(path, "cannot save report", err)
	}

	w.logger.InfoContext(ctx, "Report written",
		slog.String("path", path),
		slog.String("sheet", w.layout.SheetName),
		slog.Int("rows", f.Len()),
		slog.Int("columns", len(cols)))
	return nil
}

// Build creates the workbook in memory and returns it with the written columns.
func (w *ReportWriter) Build(f *frame.Frame) (*excelize.File, []string, error) {
	var cols []string
	for _, c := range w.layout.Columns {
		if f.Has(c) {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("none of the report columns are present")
	}

	wb := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			wb.Close()
		}
	}()

	sheet := w.layout.SheetName
	if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
		return nil, nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for j, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(j+1, 1)
		if err := wb.SetCellStr(sheet, cell, c); err != nil {
			return nil, nil, fmt.Errorf("failed to write header: %w", err)
		}
		for i := 0; i < f.Len(); i++ {
			v := cellValue(f, c, i)
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := wb.SetCellValue(sheet, cell, v); err != nil {
				return nil, nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if err := w.applyStyles(wb, cols, f.Len()); err != nil {
		return nil, nil, err
	}

	ok = true
	return wb, cols, nil
}

// applyStyles formats the header row, the percent and highlighted columns,
// and sets column widths.
func (w *ReportWriter) applyStyles(wb *excelize.File, cols []string, rows int) error {
	sheet := w.layout.SheetName

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := wb.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	highlight := make(map[string]bool)
	for _, c := range w.layout.Highlight {
		highlight[c] = true
	}
	percent := make(map[string]bool)
	for _, c := range w.layout.Percent {
		percent[c] = true
	}

	for j, c := range cols {
		colName, _ := excelize.ColumnNumberToName(j + 1)
		if err := wb.SetColWidth(sheet, colName, colName, columnWidth(c)); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}

		if rows == 0 || (!highlight[c] && !percent[c]) {
			continue
		}
		style := &excelize.Style{}
		if highlight[c] {
			style.Fill = excelize.Fill{Type: "pattern", Color: []string{HighlightColor}, Pattern: 1}
		}
		if percent[c] {
			style.NumFmt = percentNumFmt
		}
		id, err := wb.NewStyle(style)
		if err != nil {
			return fmt.Errorf("failed to create style for %q: %w", c, err)
		}
		top, _ := excelize.CoordinatesToCellName(j+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(j+1, rows+1)
		if err := wb.SetCellStyle(sheet, top, bottom, id); err != nil {
			return fmt.Errorf("failed to style column %q: %w", c, err)
		}
	}

	if err := wb.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	return nil
}

func columnWidth(name string) float64 {
	switch {
	case len(name) <= 6:
		return 10
	case len(name) <= 16:
		return 16
	default:
		return 22
	}
}

// saveAtomic writes wb to a temporary file in the directory of path and
// renames it over path. The directory is created when missing.
func saveAtomic(wb *excelize.File, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".deltamerge-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if err := wb.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
