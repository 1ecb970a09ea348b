package report

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/surgaudit/surgaudit/internal/domain/comparison"
	"github.com/surgaudit/surgaudit/internal/domain/record"
	"github.com/surgaudit/surgaudit/internal/domain/registry"
)

func testEngine() *Engine {
	return NewEngine(registry.Default(), registry.DefaultThresholds(), zerolog.Nop())
}

func labeledSupply(name string, qty int) map[string]any {
	return map[string]any{
		"nombre":            name,
		"cantidad":          qty,
		"referencia_ref":    "REF-001",
		"lote_lot":          "LOT-001",
		"fecha_vencimiento": "01/01/2027",
	}
}

func internalDoc(id, patient, procedure, date string, supplies ...map[string]any) record.RawDocument {
	list := make([]any, 0, len(supplies))
	for _, s := range supplies {
		list = append(list, any(s))
	}
	return record.RawDocument{
		SourceID: id,
		Type:     record.TypeInternal,
		Fields: map[string]any{
			"nombre_paciente":     patient,
			"datos_procedimiento": procedure,
			"fecha_reporte":       date,
			"insumos_utilizados":  list,
		},
	}
}

func hospitalDoc(id, patient, procedure, date string, supplies ...map[string]any) record.RawDocument {
	fields := map[string]any{
		"nombre_paciente":     patient,
		"datos_procedimiento": procedure,
		"fecha_reporte":       date,
	}
	if len(supplies) > 0 {
		list := make([]any, 0, len(supplies))
		for _, s := range supplies {
			list = append(list, any(s))
		}
		fields["insumos_utilizados"] = list
	}
	return record.RawDocument{SourceID: id, Type: record.TypeHospital, Fields: fields}
}

func narrativeDoc(id, patient, text string) record.RawDocument {
	return record.RawDocument{
		SourceID: id,
		Type:     record.TypeNarrative,
		Fields: map[string]any{
			"nombre_paciente":           patient,
			"descripcion_procedimiento": text,
		},
	}
}

func analyze(t *testing.T, docs ...record.RawDocument) *BatchResult {
	t.Helper()
	result, err := testEngine().Analyze(context.Background(), docs)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return result
}

func findingsOn(rep DiscrepancyReport, dim comparison.Dimension) []comparison.Finding {
	var out []comparison.Finding
	for _, f := range rep.Findings {
		if f.Dimension == dim {
			out = append(out, f)
		}
	}
	return out
}

func TestAnalyzeIdenticalRecordsAreClean(t *testing.T) {
	result := analyze(t,
		internalDoc("int-1", "Maria Rodriguez", "craneotomia descompresiva", "10/03/2024",
			labeledSupply("gasa", 5)),
		hospitalDoc("hosp-1", "Maria Rodriguez", "craneotomia descompresiva", "10/03/2024",
			labeledSupply("gasa", 5)),
	)

	if len(result.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(result.Reports))
	}
	rep := result.Reports[0]
	if !rep.Clean || len(rep.Findings) != 0 {
		t.Errorf("identical records should be clean, got %+v", rep.Findings)
	}
	if rep.OverallSeverity != comparison.SeverityBaja {
		t.Errorf("overall severity = %s, want BAJA", rep.OverallSeverity)
	}
	if rep.Summary != "sin discrepancias" {
		t.Errorf("summary = %q", rep.Summary)
	}
	if len(rep.RecordsPresent) != 2 {
		t.Errorf("records present = %v", rep.RecordsPresent)
	}
}

func TestAnalyzeAccentedNameIsNotAFinding(t *testing.T) {
	result := analyze(t,
		internalDoc("int-1", "Juan Pérez", "artroscopia de rodilla", "10/01/2024",
			labeledSupply("gasa", 5)),
		hospitalDoc("hosp-1", "Juan Perez", "artroscopia de rodilla", "10/01/2024",
			labeledSupply("gasa", 5)),
	)

	if len(result.Reports) != 1 {
		t.Fatalf("accent variants must cluster together, got %d reports", len(result.Reports))
	}
	if got := findingsOn(result.Reports[0], comparison.DimensionPatient); len(got) != 0 {
		t.Errorf("accent-only difference must not produce patient findings, got %+v", got)
	}
}

func TestAnalyzeDateTwoDaysApart(t *testing.T) {
	result := analyze(t,
		internalDoc("int-1", "Juan Pérez", "artroscopia de rodilla", "10/01/2024",
			labeledSupply("gasa", 5)),
		hospitalDoc("hosp-1", "Juan Perez", "artroscopia de rodilla", "12/01/2024",
			labeledSupply("gasa", 5)),
	)

	if len(result.Reports) != 1 {
		t.Fatalf("dates within tolerance must cluster, got %d reports", len(result.Reports))
	}
	got := findingsOn(result.Reports[0], comparison.DimensionDate)
	if len(got) != 1 || got[0].Severity != comparison.SeverityAlta {
		t.Fatalf("2-day difference should be one ALTA date finding, got %+v", got)
	}
}

func TestAnalyzeSupplyAliasesMatch(t *testing.T) {
	result := analyze(t,
		internalDoc("int-1", "Juan Pérez", "artroscopia de rodilla", "10/01/2024",
			labeledSupply("Gasa estéril", 5)),
		hospitalDoc("hosp-1", "Juan Perez", "artroscopia de rodilla", "10/01/2024",
			labeledSupply("Gasa esteril", 5)),
	)

	if len(result.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(result.Reports))
	}
	if got := findingsOn(result.Reports[0], comparison.DimensionSupply); len(got) != 0 {
		t.Errorf("registered aliases with equal quantity must not produce findings, got %+v", got)
	}
}

func TestAnalyzeTraceabilityCompleteness(t *testing.T) {
	incomplete := map[string]any{
		"nombre":            "cateter",
		"cantidad":          1,
		"referencia_ref":    "REF-004",
		"fecha_vencimiento": "01/01/2027",
	}
	result := analyze(t,
		internalDoc("int-1", "Juan Pérez", "artroscopia de rodilla", "10/01/2024",
			labeledSupply("gasa", 1), labeledSupply("sutura", 1), labeledSupply("aguja", 1), incomplete),
		hospitalDoc("hosp-1", "Juan Perez", "artroscopia de rodilla", "10/01/2024",
			labeledSupply("gasa", 1), labeledSupply("sutura", 1), labeledSupply("aguja", 1), labeledSupply("cateter", 1)),
	)

	if len(result.Reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(result.Reports))
	}
	rep := result.Reports[0]
	if rep.CompletenessScore != 0.75 {
		t.Errorf("completeness = %v, want 0.75", rep.CompletenessScore)
	}
	got := findingsOn(rep, comparison.DimensionTraceability)
	if len(got) != 1 || got[0].Severity != comparison.SeverityMedia {
		t.Fatalf("completeness 0.75 should be one MEDIA finding, got %+v", got)
	}
}

func TestAnalyzeSingletonNarrative(t *testing.T) {
	result := analyze(t,
		internalDoc("int-1", "Maria Rodriguez", "craneotomia descompresiva", "10/03/2024",
			labeledSupply("gasa", 5)),
		narrativeDoc("narr-1", "Pedro Gonzalez", "bypass"),
	)

	if len(result.Reports) != 2 {
		t.Fatalf("unrelated narrative must form its own cluster, got %d reports", len(result.Reports))
	}
	narr := result.Reports[1]
	got := findingsOn(narr, comparison.DimensionProcedure)
	if len(got) != 1 || got[0].Severity != comparison.SeverityAlta {
		t.Fatalf("singleton should carry one ALTA procedure finding, got %+v", narr.Findings)
	}
}

func TestAnalyzeRejectsMalformedDocumentWithWarning(t *testing.T) {
	noSupplies := record.RawDocument{
		SourceID: "int-bad",
		Type:     record.TypeInternal,
		Fields:   map[string]any{"nombre_paciente": "Juan Perez"},
	}
	result := analyze(t,
		noSupplies,
		hospitalDoc("hosp-1", "Juan Perez", "artroscopia de rodilla", "10/01/2024"),
	)

	if len(result.Warnings) == 0 {
		t.Error("rejected document should surface a warning")
	}
	if len(result.Reports) != 1 {
		t.Fatalf("remaining documents must still process, got %d reports", len(result.Reports))
	}
}

func TestAnalyzeDeterministicReportOrder(t *testing.T) {
	docs := []record.RawDocument{
		hospitalDoc("hosp-1", "Pedro Gonzalez", "bypass", "10/01/2024"),
		internalDoc("int-1", "Maria Rodriguez", "craneotomia descompresiva", "10/03/2024",
			labeledSupply("gasa", 5)),
	}

	first := analyze(t, docs...)
	second := analyze(t, docs...)
	if len(first.Reports) != 2 || len(second.Reports) != 2 {
		t.Fatalf("expected 2 reports per run, got %d/%d", len(first.Reports), len(second.Reports))
	}
	for i := range first.Reports {
		if first.Reports[i].RecordsPresent[0] != second.Reports[i].RecordsPresent[0] {
			t.Errorf("report order differs between runs at %d", i)
		}
	}
	if first.Reports[0].RecordsPresent[0] != record.TypeHospital {
		t.Errorf("reports must follow cluster formation order, got %v first", first.Reports[0].RecordsPresent)
	}
}

func TestAnalyzeRecommendation(t *testing.T) {
	urgent := analyze(t,
		narrativeDoc("narr-1", "Maria Rodriguez", "craneotomia"),
		narrativeDoc("narr-2", "Pedro Gonzalez", "bypass"),
		narrativeDoc("narr-3", "Ana Castillo", "artroscopia"),
	)
	if urgent.Recommendation != "REVISION URGENTE: Múltiples discrepancias críticas detectadas" {
		t.Errorf("three ALTA findings should be urgent, got %q", urgent.Recommendation)
	}

	clean := analyze(t,
		internalDoc("int-1", "Maria Rodriguez", "craneotomia descompresiva", "10/03/2024",
			labeledSupply("gasa", 5)),
		hospitalDoc("hosp-1", "Maria Rodriguez", "craneotomia descompresiva", "10/03/2024",
			labeledSupply("gasa", 5)),
	)
	if clean.Recommendation != "REVISION OPCIONAL: Solo discrepancias menores detectadas" {
		t.Errorf("clean batch recommendation = %q", clean.Recommendation)
	}
}
