package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/surgaudit/surgaudit/internal/domain/matching"
	"github.com/surgaudit/surgaudit/internal/domain/registry"
)

// Field keys accepted from the upstream extractor, per document type. The
// hospital extractor labels the physician "cirujano"; the other two use
// "medico_responsable".
const (
	fieldPatient    = "nombre_paciente"
	fieldDate       = "fecha_reporte"
	fieldProcedure  = "datos_procedimiento"
	fieldNarrative  = "descripcion_procedimiento"
	fieldPhysician  = "medico_responsable"
	fieldSurgeon    = "cirujano"
	fieldLocation   = "ciudad_lugar"
	fieldSupplies   = "insumos_utilizados"
	fieldMentioned  = "insumos_mencionados"
	fieldTraceFlags = "etiquetas_trazabilidad"
)

// Normalizer converts raw field maps into canonical DocumentRecords.
type Normalizer struct {
	reg *registry.Registry
}

// NewNormalizer creates a Normalizer resolving supply names through reg.
func NewNormalizer(reg *registry.Registry) *Normalizer {
	return &Normalizer{reg: reg}
}

// Normalize builds a DocumentRecord from a raw document. It returns a
// NormalizationError when a type-mandatory field is entirely absent; every
// other defect degrades to an absent field plus a warning on the record.
func (n *Normalizer) Normalize(raw RawDocument) (*DocumentRecord, error) {
	if _, err := ParseDocumentType(string(raw.Type)); err != nil {
		return nil, err
	}

	rec := &DocumentRecord{
		ID:       uuid.New(),
		SourceID: raw.SourceID,
		Type:     raw.Type,
	}

	rec.PatientName = n.textField(rec, raw.Fields, "patient_name", fieldPatient)
	rec.ProcedureName = n.procedureField(rec, raw.Fields)
	rec.Physician = n.textField(rec, raw.Fields, "physician", fieldPhysician, fieldSurgeon)
	rec.Location = n.textField(rec, raw.Fields, "location", fieldLocation)
	var dateSupplied bool
	rec.ProcedureDate, dateSupplied = n.dateField(rec, raw.Fields)
	rec.Supplies = n.supplyField(rec, raw.Fields)
	rec.HasTraceabilityLabels = n.traceabilityFlag(raw)

	if err := n.checkMandatory(rec, dateSupplied); err != nil {
		return nil, err
	}
	return rec, nil
}

// textField folds a string field for comparison; absence is recorded on the
// record, never defaulted to empty.
func (n *Normalizer) textField(rec *DocumentRecord, fields map[string]any, name string, keys ...string) string {
	for _, key := range keys {
		if s, ok := stringValue(fields[key]); ok && strings.TrimSpace(s) != "" {
			return matching.Fold(s)
		}
	}
	rec.MissingFields = append(rec.MissingFields, name)
	return ""
}

// procedureField reads the procedure description, falling back to the
// narrative body for doctor descriptions.
func (n *Normalizer) procedureField(rec *DocumentRecord, fields map[string]any) string {
	keys := []string{fieldProcedure}
	if rec.Type == TypeNarrative {
		keys = []string{fieldNarrative, fieldProcedure}
	}
	return n.textField(rec, fields, "procedure_name", keys...)
}

// dateField parses the report date. The second return reports whether the
// field was supplied at all: an unparseable date counts as supplied (it is a
// DateParseError, not a missing mandatory field).
func (n *Normalizer) dateField(rec *DocumentRecord, fields map[string]any) (*time.Time, bool) {
	s, ok := stringValue(fields[fieldDate])
	if !ok || strings.TrimSpace(s) == "" {
		rec.MissingFields = append(rec.MissingFields, "procedure_date")
		return nil, false
	}
	t, err := ParseDate(s)
	if err != nil {
		rec.MissingFields = append(rec.MissingFields, "procedure_date")
		rec.Warnings = append(rec.Warnings, err.Error())
		return nil, true
	}
	return &t, true
}

// supplyField reads either supply list key; the narrative extractor uses
// insumos_mencionados.
func (n *Normalizer) supplyField(rec *DocumentRecord, fields map[string]any) []SupplyItem {
	var rawList []any
	for _, key := range []string{fieldSupplies, fieldMentioned} {
		if list, ok := fields[key].([]any); ok && len(list) > 0 {
			rawList = list
			break
		}
	}
	if rawList == nil {
		if rec.Type != TypeNarrative {
			rec.MissingFields = append(rec.MissingFields, "supply_items")
		}
		return nil
	}

	items := make([]SupplyItem, 0, len(rawList))
	for i, entry := range rawList {
		m, ok := entry.(map[string]any)
		if !ok {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("supply entry %d is not an object, skipped", i))
			continue
		}
		item, ok := n.supplyItem(rec, m)
		if ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 && rec.Type != TypeNarrative {
		rec.MissingFields = append(rec.MissingFields, "supply_items")
	}
	return items
}

func (n *Normalizer) supplyItem(rec *DocumentRecord, m map[string]any) (SupplyItem, bool) {
	name, _ := stringValue(m["nombre"])
	if strings.TrimSpace(name) == "" {
		rec.Warnings = append(rec.Warnings, "supply entry without a name, skipped")
		return SupplyItem{}, false
	}

	item := SupplyItem{
		RawName:       strings.TrimSpace(name),
		CanonicalName: n.reg.Resolve(name),
	}
	if qty, ok := intValue(m["cantidad"]); ok && qty >= 0 {
		item.Quantity = &qty
	}
	if ref, ok := stringValue(m["referencia_ref"]); ok && strings.TrimSpace(ref) != "" {
		trimmed := strings.TrimSpace(ref)
		item.RefCode = &trimmed
	}
	if lot, ok := stringValue(m["lote_lot"]); ok && strings.TrimSpace(lot) != "" {
		trimmed := strings.TrimSpace(lot)
		item.LotCode = &trimmed
	}
	if exp, ok := stringValue(m["fecha_vencimiento"]); ok && strings.TrimSpace(exp) != "" {
		if t, err := ParseDate(exp); err == nil {
			item.ExpirationDate = &t
		} else {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("supply %q: %s", item.RawName, err.Error()))
		}
	}
	return item, true
}

// traceabilityFlag is meaningful only for internal documents: labels are
// present when the extractor saw REF and LOT markers, or when any parsed
// supply carries both codes.
func (n *Normalizer) traceabilityFlag(raw RawDocument) bool {
	if raw.Type != TypeInternal {
		return false
	}
	if flags, ok := raw.Fields[fieldTraceFlags].(map[string]any); ok {
		refs, _ := flags["tiene_referencias"].(bool)
		lots, _ := flags["tiene_lotes"].(bool)
		if refs && lots {
			return true
		}
	}
	if list, ok := raw.Fields[fieldSupplies].([]any); ok {
		for _, entry := range list {
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			ref, _ := stringValue(m["referencia_ref"])
			lot, _ := stringValue(m["lote_lot"])
			if strings.TrimSpace(ref) != "" && strings.TrimSpace(lot) != "" {
				return true
			}
		}
	}
	return false
}

// checkMandatory enforces the per-type mandatory-field policy.
func (n *Normalizer) checkMandatory(rec *DocumentRecord, dateSupplied bool) error {
	fail := func(field string) error {
		return &NormalizationError{SourceID: rec.SourceID, Type: rec.Type, Field: field}
	}
	switch rec.Type {
	case TypeInternal:
		if len(rec.Supplies) == 0 {
			return fail("supply_items")
		}
	case TypeHospital:
		if rec.PatientName == "" {
			return fail("patient_name")
		}
		if rec.ProcedureName == "" {
			return fail("procedure_name")
		}
		if !dateSupplied {
			return fail("procedure_date")
		}
	case TypeNarrative:
		if rec.ProcedureName == "" {
			return fail("procedure_name")
		}
	}
	return nil
}

func stringValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	return "", false
}

func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
