// Package exporter writes the merged cost-center report.
//
// ReportWriter produces the xlsx workbook: one sheet, a fixed column order,
// a bold header, percentage formatting for ratio columns and a yellow fill on
// the highlighted columns. The workbook is saved under a temporary name in
// the target directory and renamed into place, so a failed run never leaves
// a partial file behind.
//
// Summary prints a subset of the report columns as a console table.
//
// Example usage:
//
//	w := exporter.NewReportWriter(exporter.Layout{
//	    SheetName: "Auswertung",
//	    Columns:   dataprocessing.ReportColumns,
//	    Highlight: dataprocessing.HighlightColumns,
//	    Percent:   dataprocessing.RatioColumns(),
//	}, logger)
//	err := w.Write(ctx, report, "outputs/Ergebnis_final_strukturiert.xlsx")
package exporter
