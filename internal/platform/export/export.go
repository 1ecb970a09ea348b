// Package export renders batch analysis results as spreadsheet downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/surgaudit/surgaudit/internal/domain/comparison"
	"github.com/surgaudit/surgaudit/internal/domain/report"
)

const (
	sheetFindings = "Discrepancias"
	sheetSummary  = "Resumen"

	// ContentTypeXLSX is the MIME type served with workbook downloads.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// ContentTypeCSV is the MIME type served with CSV downloads.
	ContentTypeCSV = "text/csv"
)

var findingHeaders = []string{
	"Cluster", "Documentos", "Dimension", "Criticidad", "Descripcion", "Evidencia",
}

var summaryHeaders = []string{
	"Cluster", "Documentos", "BAJA", "MEDIA", "ALTA", "Severidad", "Completitud", "Resumen",
}

// WriteXLSX renders the result as a two-sheet workbook: one row per finding
// on Discrepancias, one row per cluster plus the batch recommendation on
// Resumen.
func WriteXLSX(w io.Writer, result *report.BatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetFindings); err != nil {
		return fmt.Errorf("rename findings sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	for col, h := range findingHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetFindings, cell, h)
	}
	for i, row := range report.Flatten(result.Reports) {
		values := []any{row.ClusterID, row.RecordsPresent, row.Dimension,
			row.Severity, row.Description, row.Evidence}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheetFindings, cell, v)
		}
	}

	for col, h := range summaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetSummary, cell, h)
	}
	for i, rep := range result.Reports {
		counts := report.SeverityCounts(rep)
		values := []any{
			rep.ClusterID.String(),
			presentLabel(rep),
			counts[comparison.SeverityBaja],
			counts[comparison.SeverityMedia],
			counts[comparison.SeverityAlta],
			string(rep.OverallSeverity),
			rep.CompletenessScore,
			rep.Summary,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheetSummary, cell, v)
		}
	}

	recCell, _ := excelize.CoordinatesToCellName(1, len(result.Reports)+3)
	f.SetCellValue(sheetSummary, recCell, result.Recommendation)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV renders the flattened findings table.
func WriteCSV(w io.Writer, result *report.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(findingHeaders); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range report.Flatten(result.Reports) {
		record := []string{row.ClusterID, row.RecordsPresent, row.Dimension,
			row.Severity, row.Description, row.Evidence}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func presentLabel(rep report.DiscrepancyReport) string {
	label := ""
	for i, t := range rep.RecordsPresent {
		if i > 0 {
			label += "+"
		}
		label += string(t)
	}
	return label
}
