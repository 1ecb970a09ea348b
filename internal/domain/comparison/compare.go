package comparison

import (
	"fmt"
	"sort"
	"strings"

	"github.com/surgaudit/surgaudit/internal/domain/matching"
	"github.com/surgaudit/surgaudit/internal/domain/record"
	"github.com/surgaudit/surgaudit/internal/domain/registry"
)

// Comparator runs every pairwise check between two records of a cluster.
type Comparator struct {
	reg *registry.Registry
	th  registry.Thresholds
}

// NewComparator builds a Comparator over the shared registry and thresholds.
func NewComparator(reg *registry.Registry, th registry.Thresholds) *Comparator {
	return &Comparator{reg: reg, th: th}
}

// ComparePair returns the findings for one ordered pair of records. The
// finding set is symmetric: swapping a and b reports the same discrepancies.
func (c *Comparator) ComparePair(a, b *record.DocumentRecord) []Finding {
	var findings []Finding
	findings = append(findings, c.comparePatient(a, b)...)
	findings = append(findings, c.compareDate(a, b)...)
	findings = append(findings, c.compareProcedure(a, b)...)
	findings = append(findings, c.CompareSupplies(a, b)...)
	return findings
}

func (c *Comparator) comparePatient(a, b *record.DocumentRecord) []Finding {
	if a.PatientName == "" || b.PatientName == "" {
		return nil
	}
	score := matching.Similarity(a.PatientName, b.PatientName)
	switch matching.Classify(score, c.th.SameEntity, c.th.MinorVariant) {
	case matching.Same:
		return nil
	case matching.Variant:
		return []Finding{{
			Dimension:   DimensionPatient,
			Severity:    SeverityMedia,
			Description: "variación menor de escritura en nombre de paciente",
			Evidence:    fmt.Sprintf("%s: %q / %s: %q (similitud %.2f)", a.Type, a.PatientName, b.Type, b.PatientName, score),
		}}
	default:
		return []Finding{{
			Dimension:   DimensionPatient,
			Severity:    SeverityAlta,
			Description: "nombre de paciente no coincide",
			Evidence:    fmt.Sprintf("%s: %q / %s: %q (similitud %.2f)", a.Type, a.PatientName, b.Type, b.PatientName, score),
		}}
	}
}

func (c *Comparator) compareDate(a, b *record.DocumentRecord) []Finding {
	if a.ProcedureDate == nil && b.ProcedureDate == nil {
		return nil
	}
	if a.ProcedureDate == nil || b.ProcedureDate == nil {
		missing := a
		if a.ProcedureDate != nil {
			missing = b
		}
		return []Finding{{
			Dimension:   DimensionDate,
			Severity:    SeverityBaja,
			Description: fmt.Sprintf("fecha ausente en %s", missing.Type),
		}}
	}

	days := record.DaysApart(*a.ProcedureDate, *b.ProcedureDate)
	if days == 0 {
		return nil
	}
	severity := SeverityMedia
	if days > 1 {
		severity = SeverityAlta
	}
	return []Finding{{
		Dimension:   DimensionDate,
		Severity:    severity,
		Description: fmt.Sprintf("diferencia de %d día(s) entre fechas", days),
		Evidence: fmt.Sprintf("%s: %s / %s: %s", a.Type, a.ProcedureDate.Format("2006-01-02"),
			b.Type, b.ProcedureDate.Format("2006-01-02")),
	}}
}

func (c *Comparator) compareProcedure(a, b *record.DocumentRecord) []Finding {
	var findings []Finding

	if a.ProcedureName != "" && b.ProcedureName != "" {
		score := matching.Similarity(a.ProcedureName, b.ProcedureName)
		if score < c.th.ClusterProcedure {
			findings = append(findings, Finding{
				Dimension:   DimensionProcedure,
				Severity:    SeverityAlta,
				Description: "descripción de procedimiento no coincide",
				Evidence:    fmt.Sprintf("%s: %q / %s: %q (similitud %.2f)", a.Type, a.ProcedureName, b.Type, b.ProcedureName, score),
			})
		}
	}

	if a.Physician != "" && b.Physician != "" {
		score := matching.Similarity(a.Physician, b.Physician)
		if matching.Classify(score, c.th.SameEntity, c.th.MinorVariant) == matching.Different {
			findings = append(findings, Finding{
				Dimension:   DimensionProcedure,
				Severity:    SeverityMedia,
				Description: "médico responsable difiere entre documentos",
				Evidence:    fmt.Sprintf("%s: %q / %s: %q", a.Type, a.Physician, b.Type, b.Physician),
			})
		}
	}

	if a.Location != "" && b.Location != "" && a.Location != b.Location {
		findings = append(findings, Finding{
			Dimension:   DimensionProcedure,
			Severity:    SeverityBaja,
			Description: "lugar o ciudad difiere entre documentos",
			Evidence:    fmt.Sprintf("%s: %q / %s: %q", a.Type, a.Location, b.Type, b.Location),
		})
	}

	return findings
}

// supplyTotals accumulates quantities per canonical name. known is false when
// every occurrence of the item had an unknown quantity.
type supplyTotal struct {
	total int
	known bool
	raw   string
}

func (c *Comparator) supplyTotals(rec *record.DocumentRecord) map[string]*supplyTotal {
	totals := make(map[string]*supplyTotal)
	for _, item := range rec.Supplies {
		name := c.reg.Resolve(item.RawName)
		entry, ok := totals[name]
		if !ok {
			entry = &supplyTotal{raw: item.RawName}
			totals[name] = entry
		}
		if item.Quantity != nil {
			entry.total += *item.Quantity
			entry.known = true
		}
	}
	return totals
}

// CompareSupplies reports missing items and quantity mismatches between two
// records' supply lists. A narrative with no extracted supplies is skipped:
// its supply mentions are opportunistic, so an empty list is not evidence of
// absence.
func (c *Comparator) CompareSupplies(a, b *record.DocumentRecord) []Finding {
	if (a.Type == record.TypeNarrative && len(a.Supplies) == 0) ||
		(b.Type == record.TypeNarrative && len(b.Supplies) == 0) {
		return nil
	}

	ta := c.supplyTotals(a)
	tb := c.supplyTotals(b)

	names := make([]string, 0, len(ta)+len(tb))
	seen := make(map[string]bool)
	for name := range ta {
		names = append(names, name)
		seen[name] = true
	}
	for name := range tb {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var findings []Finding
	for _, name := range names {
		ea, inA := ta[name]
		eb, inB := tb[name]

		switch {
		case inA && !inB:
			findings = append(findings, missingSupplyFinding(name, ea, a, b))
		case inB && !inA:
			findings = append(findings, missingSupplyFinding(name, eb, b, a))
		case ea.known && eb.known && ea.total != eb.total:
			findings = append(findings, c.quantityFinding(name, ea, eb, a, b))
		}
	}
	return findings
}

func missingSupplyFinding(name string, present *supplyTotal, from, missing *record.DocumentRecord) Finding {
	qty := "cantidad desconocida"
	if present.known {
		qty = fmt.Sprintf("cantidad %d", present.total)
	}
	return Finding{
		Dimension:   DimensionSupply,
		Severity:    SeverityMedia,
		Description: fmt.Sprintf("insumo no reportado en %s: %s", missing.Type, name),
		Evidence:    fmt.Sprintf("presente en %s (%s, %s)", from.Type, present.raw, qty),
	}
}

func (c *Comparator) quantityFinding(name string, ea, eb *supplyTotal, a, b *record.DocumentRecord) Finding {
	diff := ea.total - eb.total
	if diff < 0 {
		diff = -diff
	}
	max := ea.total
	if eb.total > max {
		max = eb.total
	}
	rel := 0.0
	if max > 0 {
		rel = float64(diff) / float64(max)
	}

	severity := SeverityBaja
	if rel > c.th.QuantityAlta {
		severity = SeverityAlta
	} else if rel > c.th.QuantityMedia {
		severity = SeverityMedia
	}

	return Finding{
		Dimension:   DimensionSupply,
		Severity:    severity,
		Description: fmt.Sprintf("cantidad de %s difiere", name),
		Evidence:    fmt.Sprintf("%s: %d / %s: %d (diferencia %.0f%%)", a.Type, ea.total, b.Type, eb.total, rel*100),
	}
}

// Completeness returns the traceability completeness score of an internal
// record: the fraction of supply items carrying ref code, lot code, and a
// parseable expiration date. A record with no supplies scores 1.0.
func Completeness(rec *record.DocumentRecord) float64 {
	if len(rec.Supplies) == 0 {
		return 1.0
	}
	labeled := 0
	for _, item := range rec.Supplies {
		if item.FullyLabeled() {
			labeled++
		}
	}
	return float64(labeled) / float64(len(rec.Supplies))
}

// TraceabilityFindings evaluates the traceability completeness of an
// internal record. Non-internal records produce nothing.
func (c *Comparator) TraceabilityFindings(rec *record.DocumentRecord) []Finding {
	if rec.Type != record.TypeInternal {
		return nil
	}
	score := Completeness(rec)
	if score >= 1.0 {
		return nil
	}

	severity := SeverityMedia
	if score < c.th.TraceabilityAlta {
		severity = SeverityAlta
	}

	var incomplete []string
	for _, item := range rec.Supplies {
		if !item.FullyLabeled() {
			incomplete = append(incomplete, item.RawName)
		}
	}
	return []Finding{{
		Dimension:   DimensionTraceability,
		Severity:    severity,
		Description: fmt.Sprintf("trazabilidad incompleta: %.0f%% de insumos con REF, LOT y vencimiento", score*100),
		Evidence:    fmt.Sprintf("insumos sin etiqueta completa: %s", strings.Join(incomplete, "; ")),
	}}
}
