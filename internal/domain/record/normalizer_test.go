package record

import (
	"errors"
	"testing"
	"time"

	"github.com/surgaudit/surgaudit/internal/domain/registry"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(registry.Default())
}

func internalFields() map[string]any {
	return map[string]any{
		"nombre_paciente":     "Juan Pérez",
		"fecha_reporte":       "10/01/2024",
		"datos_procedimiento": "Osteosíntesis craneofacial",
		"medico_responsable":  "Dr. Gómez",
		"ciudad_lugar":        "Bucaramanga",
		"insumos_utilizados": []any{
			map[string]any{
				"nombre":            "Tornillo encefálico",
				"cantidad":          float64(4),
				"referencia_ref":    "70234-1",
				"lote_lot":          "88121",
				"fecha_vencimiento": "2026-03-01",
			},
			map[string]any{
				"nombre":   "Gasa estéril",
				"cantidad": float64(5),
			},
		},
		"etiquetas_trazabilidad": map[string]any{
			"tiene_referencias": true,
			"tiene_lotes":       true,
		},
	}
}

func TestNormalize_Internal(t *testing.T) {
	rec, err := newTestNormalizer().Normalize(RawDocument{
		SourceID: "doc-1",
		Type:     TypeInternal,
		Fields:   internalFields(),
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if rec.PatientName != "juan perez" {
		t.Errorf("patient name = %q, want %q", rec.PatientName, "juan perez")
	}
	if rec.ProcedureDate == nil {
		t.Fatal("expected a parsed procedure date")
	}
	want := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	if !rec.ProcedureDate.Equal(want) {
		t.Errorf("procedure date = %v, want %v", rec.ProcedureDate, want)
	}
	if len(rec.Supplies) != 2 {
		t.Fatalf("expected 2 supplies, got %d", len(rec.Supplies))
	}
	if rec.Supplies[0].CanonicalName != "tornillo encefalico" {
		t.Errorf("canonical name = %q", rec.Supplies[0].CanonicalName)
	}
	if rec.Supplies[1].CanonicalName != "gasa" {
		t.Errorf("alias not resolved: %q", rec.Supplies[1].CanonicalName)
	}
	if !rec.Supplies[0].FullyLabeled() {
		t.Error("first supply should be fully labeled")
	}
	if rec.Supplies[1].Traceable() {
		t.Error("second supply has no codes, should not be traceable")
	}
	if !rec.HasTraceabilityLabels {
		t.Error("expected traceability labels flag")
	}
	if len(rec.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", rec.Warnings)
	}
}

func TestNormalize_InternalWithoutSupplies(t *testing.T) {
	fields := internalFields()
	delete(fields, "insumos_utilizados")

	_, err := newTestNormalizer().Normalize(RawDocument{SourceID: "doc-2", Type: TypeInternal, Fields: fields})
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NormalizationError, got %v", err)
	}
	if nerr.Field != "supply_items" {
		t.Errorf("missing field = %q, want supply_items", nerr.Field)
	}
}

func TestNormalize_HospitalMandatory(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"nombre_paciente":     "Ana María Ruiz",
			"fecha_reporte":       "12-01-2024",
			"datos_procedimiento": "Reducción de fractura",
			"cirujano":            "Dra. Torres",
		}
	}

	if _, err := newTestNormalizer().Normalize(RawDocument{SourceID: "h-1", Type: TypeHospital, Fields: base()}); err != nil {
		t.Fatalf("complete hospital document should normalize: %v", err)
	}

	for _, missing := range []string{"nombre_paciente", "datos_procedimiento", "fecha_reporte"} {
		fields := base()
		delete(fields, missing)
		if _, err := newTestNormalizer().Normalize(RawDocument{SourceID: "h-2", Type: TypeHospital, Fields: fields}); err == nil {
			t.Errorf("expected error when %s is absent", missing)
		}
	}
}

func TestNormalize_UnparseableDateIsNotFatal(t *testing.T) {
	fields := map[string]any{
		"nombre_paciente":     "Ana María Ruiz",
		"fecha_reporte":       "pronto",
		"datos_procedimiento": "Reducción de fractura",
	}
	rec, err := newTestNormalizer().Normalize(RawDocument{SourceID: "h-3", Type: TypeHospital, Fields: fields})
	if err != nil {
		t.Fatalf("unparseable date must degrade, not fail: %v", err)
	}
	if rec.ProcedureDate != nil {
		t.Error("expected absent date")
	}
	if !rec.Missing("procedure_date") {
		t.Error("expected procedure_date in missing fields")
	}
	if len(rec.Warnings) == 0 {
		t.Error("expected a date parse warning")
	}
}

func TestNormalize_NarrativeOptionalSupplies(t *testing.T) {
	rec, err := newTestNormalizer().Normalize(RawDocument{
		SourceID: "n-1",
		Type:     TypeNarrative,
		Fields: map[string]any{
			"descripcion_procedimiento": "Osteosíntesis encefálica con fijación de fracturas craneales",
		},
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(rec.Supplies) != 0 {
		t.Errorf("expected no supplies, got %d", len(rec.Supplies))
	}
	if rec.Missing("supply_items") {
		t.Error("supplies are optional for narratives, should not be marked missing")
	}
	if !rec.Missing("patient_name") {
		t.Error("absent patient name should be marked missing")
	}
}

func TestNormalize_NarrativeWithoutText(t *testing.T) {
	_, err := newTestNormalizer().Normalize(RawDocument{
		SourceID: "n-2",
		Type:     TypeNarrative,
		Fields:   map[string]any{},
	})
	if err == nil {
		t.Fatal("expected error for narrative without text")
	}
}

func TestNormalize_UnknownType(t *testing.T) {
	_, err := newTestNormalizer().Normalize(RawDocument{SourceID: "x", Type: "fax", Fields: map[string]any{}})
	if err == nil {
		t.Fatal("expected error for unknown document type")
	}
}

func TestNormalize_QuantityAbsentIsUnknown(t *testing.T) {
	fields := internalFields()
	fields["insumos_utilizados"] = []any{
		map[string]any{"nombre": "Gasa", "referencia_ref": "1", "lote_lot": "2"},
	}
	rec, err := newTestNormalizer().Normalize(RawDocument{SourceID: "doc-3", Type: TypeInternal, Fields: fields})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Supplies[0].Quantity != nil {
		t.Error("absent quantity must stay nil, not default to zero")
	}
}

func TestNormalize_QuantityFromString(t *testing.T) {
	fields := internalFields()
	fields["insumos_utilizados"] = []any{
		map[string]any{"nombre": "Gasa", "cantidad": "5"},
	}
	rec, err := newTestNormalizer().Normalize(RawDocument{SourceID: "doc-4", Type: TypeInternal, Fields: fields})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Supplies[0].Quantity == nil || *rec.Supplies[0].Quantity != 5 {
		t.Errorf("expected quantity 5, got %v", rec.Supplies[0].Quantity)
	}
}
