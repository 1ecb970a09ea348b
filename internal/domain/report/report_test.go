package report

import (
	"testing"

	"github.com/google/uuid"

	"github.com/surgaudit/surgaudit/internal/domain/comparison"
	"github.com/surgaudit/surgaudit/internal/domain/record"
)

func sampleReport(findings ...comparison.Finding) DiscrepancyReport {
	return DiscrepancyReport{
		ClusterID:         uuid.New(),
		RecordsPresent:    []record.DocumentType{record.TypeInternal, record.TypeHospital},
		Findings:          findings,
		OverallSeverity:   comparison.OverallSeverity(findings),
		CompletenessScore: 1.0,
		Clean:             len(findings) == 0,
		Summary:           summaryFor(findings),
	}
}

func TestRecommendationBands(t *testing.T) {
	alta := comparison.Finding{Dimension: comparison.DimensionDate, Severity: comparison.SeverityAlta}
	media := comparison.Finding{Dimension: comparison.DimensionSupply, Severity: comparison.SeverityMedia}

	cases := []struct {
		name    string
		reports []DiscrepancyReport
		want    string
	}{
		{"no findings", []DiscrepancyReport{sampleReport()},
			"REVISION OPCIONAL: Solo discrepancias menores detectadas"},
		{"only minor", []DiscrepancyReport{sampleReport(media, media)},
			"REVISION OPCIONAL: Solo discrepancias menores detectadas"},
		{"one critical", []DiscrepancyReport{sampleReport(alta)},
			"REVISION NECESARIA: Discrepancias críticas en campos importantes"},
		{"critical across reports", []DiscrepancyReport{sampleReport(alta), sampleReport(alta, alta)},
			"REVISION URGENTE: Múltiples discrepancias críticas detectadas"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Recommendation(tc.reports); got != tc.want {
				t.Errorf("Recommendation = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	rep := sampleReport(
		comparison.Finding{
			Dimension:   comparison.DimensionDate,
			Severity:    comparison.SeverityAlta,
			Description: "diferencia de 2 día(s) entre fechas",
			Evidence:    "internal: 2024-01-10 / hospital: 2024-01-12",
		},
		comparison.Finding{
			Dimension:   comparison.DimensionSupply,
			Severity:    comparison.SeverityMedia,
			Description: "insumo no reportado en hospital: gasa",
		},
	)
	clean := sampleReport()

	rows := Flatten([]DiscrepancyReport{rep, clean})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ClusterID != rep.ClusterID.String() {
		t.Errorf("row cluster id = %q", rows[0].ClusterID)
	}
	if rows[0].RecordsPresent != "internal+hospital" {
		t.Errorf("records present label = %q", rows[0].RecordsPresent)
	}
	if rows[0].Dimension != "date" || rows[0].Severity != "ALTA" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Evidence != "" {
		t.Errorf("row 1 evidence = %q, want empty", rows[1].Evidence)
	}
}

func TestSeverityCounts(t *testing.T) {
	rep := sampleReport(
		comparison.Finding{Severity: comparison.SeverityAlta},
		comparison.Finding{Severity: comparison.SeverityMedia},
		comparison.Finding{Severity: comparison.SeverityMedia},
	)
	counts := SeverityCounts(rep)
	if counts[comparison.SeverityAlta] != 1 || counts[comparison.SeverityMedia] != 2 || counts[comparison.SeverityBaja] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestSummaryFor(t *testing.T) {
	if got := summaryFor(nil); got != "sin discrepancias" {
		t.Errorf("empty summary = %q", got)
	}
	findings := []comparison.Finding{{Severity: comparison.SeverityBaja}}
	if got := summaryFor(findings); got != "1 discrepancias detectadas" {
		t.Errorf("summary = %q", got)
	}
}
