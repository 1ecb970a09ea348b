// Package record defines the canonical view of one extracted document and
// the normalizer that produces it from the raw field map delivered by the
// upstream extraction service.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentType tags the three renderings of a surgical procedure.
type DocumentType string

const (
	// TypeInternal is the supplier's internal surgical expense report.
	TypeInternal DocumentType = "internal"
	// TypeHospital is the simplified hospital surgical report.
	TypeHospital DocumentType = "hospital"
	// TypeNarrative is the surgeon's free-text procedure description.
	TypeNarrative DocumentType = "narrative"
)

// AllTypes lists the document types in their fixed comparison order.
var AllTypes = []DocumentType{TypeInternal, TypeHospital, TypeNarrative}

// ParseDocumentType validates a caller-supplied type tag.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case TypeInternal, TypeHospital, TypeNarrative:
		return DocumentType(s), nil
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// RawDocument is the input unit from the extraction subsystem: an opaque
// source id, the user-selected type, and the extractor's field map.
type RawDocument struct {
	SourceID string         `json:"raw_source_id"`
	Type     DocumentType   `json:"document_type"`
	Fields   map[string]any `json:"fields"`
}

// SupplyItem is one supply line in a document. Quantity nil means unknown,
// which is a distinct state from zero.
type SupplyItem struct {
	RawName        string     `json:"raw_name"`
	CanonicalName  string     `json:"canonical_name"`
	Quantity       *int       `json:"quantity,omitempty"`
	RefCode        *string    `json:"ref_code,omitempty"`
	LotCode        *string    `json:"lot_code,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// Traceable reports whether the item carries both a reference and a lot code.
func (s SupplyItem) Traceable() bool {
	return s.RefCode != nil && *s.RefCode != "" && s.LotCode != nil && *s.LotCode != ""
}

// FullyLabeled reports whether the item carries ref, lot, and a parseable
// expiration date.
func (s SupplyItem) FullyLabeled() bool {
	return s.Traceable() && s.ExpirationDate != nil
}

// DocumentRecord is the canonical, normalized view of one document. Records
// are created once per upload and never mutated afterwards. Text fields are
// folded for comparison; an empty field listed in MissingFields is absent,
// not empty.
type DocumentRecord struct {
	ID                    uuid.UUID    `json:"id"`
	SourceID              string       `json:"raw_source_id"`
	Type                  DocumentType `json:"document_type"`
	PatientName           string       `json:"patient_name,omitempty"`
	ProcedureName         string       `json:"procedure_name,omitempty"`
	Physician             string       `json:"physician,omitempty"`
	Location              string       `json:"location,omitempty"`
	ProcedureDate         *time.Time   `json:"procedure_date,omitempty"`
	Supplies              []SupplyItem `json:"supply_items"`
	HasTraceabilityLabels bool         `json:"has_traceability_labels"`
	MissingFields         []string     `json:"missing_fields,omitempty"`
	Warnings              []string     `json:"warnings,omitempty"`
}

// Missing reports whether a named field was absent from the source document.
func (r *DocumentRecord) Missing(field string) bool {
	for _, f := range r.MissingFields {
		if f == field {
			return true
		}
	}
	return false
}

// NormalizationError reports a document whose type-mandatory field is
// entirely absent. The document is excluded from clustering; the batch
// continues.
type NormalizationError struct {
	SourceID string
	Type     DocumentType
	Field    string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("document %s (%s): mandatory field %q is absent", e.SourceID, e.Type, e.Field)
}

// DateParseError reports a date value no configured format accepted. It is
// recorded as a warning and the date treated as absent, never as a failure.
type DateParseError struct {
	Value string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable date %q", e.Value)
}
