package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/surgaudit/surgaudit/internal/domain/comparison"
	"github.com/surgaudit/surgaudit/internal/domain/record"
	"github.com/surgaudit/surgaudit/internal/domain/report"
)

func sampleResult() *report.BatchResult {
	rep := report.DiscrepancyReport{
		ClusterID:      uuid.New(),
		RecordsPresent: []record.DocumentType{record.TypeInternal, record.TypeHospital},
		Findings: []comparison.Finding{
			{
				Dimension:   comparison.DimensionDate,
				Severity:    comparison.SeverityAlta,
				Description: "diferencia de 2 día(s) entre fechas",
				Evidence:    "internal: 2024-01-10 / hospital: 2024-01-12",
			},
			{
				Dimension:   comparison.DimensionSupply,
				Severity:    comparison.SeverityMedia,
				Description: "insumo no reportado en hospital: gasa",
			},
		},
		OverallSeverity:   comparison.SeverityAlta,
		CompletenessScore: 0.75,
		Summary:           "2 discrepancias detectadas",
	}
	return &report.BatchResult{
		Reports:        []report.DiscrepancyReport{rep},
		Recommendation: "REVISION NECESARIA: Discrepancias críticas en campos importantes",
	}
}

func TestWriteXLSX(t *testing.T) {
	result := sampleResult()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, result); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	for _, sheet := range []string{"Discrepancias", "Resumen"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("sheet %s missing (idx %d, err %v)", sheet, idx, err)
		}
	}

	header, err := f.GetCellValue("Discrepancias", "A1")
	if err != nil || header != "Cluster" {
		t.Errorf("findings header A1 = %q (%v)", header, err)
	}
	severity, _ := f.GetCellValue("Discrepancias", "D2")
	if severity != "ALTA" {
		t.Errorf("first finding severity = %q, want ALTA", severity)
	}
	docs, _ := f.GetCellValue("Resumen", "B2")
	if docs != "internal+hospital" {
		t.Errorf("summary documents = %q", docs)
	}
	altas, _ := f.GetCellValue("Resumen", "E2")
	if altas != "1" {
		t.Errorf("summary ALTA count = %q, want 1", altas)
	}
	rec, _ := f.GetCellValue("Resumen", "A4")
	if rec != result.Recommendation {
		t.Errorf("recommendation cell = %q", rec)
	}
}

func TestWriteCSV(t *testing.T) {
	result := sampleResult()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, result); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Cluster" {
		t.Errorf("csv header = %v", rows[0])
	}
	if rows[1][3] != "ALTA" || rows[2][3] != "MEDIA" {
		t.Errorf("csv severities = %q/%q", rows[1][3], rows[2][3])
	}
	if rows[1][0] != result.Reports[0].ClusterID.String() {
		t.Errorf("csv cluster id = %q", rows[1][0])
	}
}
