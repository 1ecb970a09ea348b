package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/surgaudit/surgaudit/internal/domain/record"
)

// Batch statuses. Analysis runs synchronously, so a stored batch is either
// completed or was rejected before persisting.
const (
	StatusCompleted = "completed"
)

// Batch maps to the audit_batch table: one analysis run over a set of
// uploaded documents.
type Batch struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Status          string    `db:"status" json:"status"`
	DocumentCount   int       `db:"document_count" json:"document_count"`
	ReportCount     int       `db:"report_count" json:"report_count"`
	OverallSeverity string    `db:"overall_severity" json:"overall_severity"`
	Recommendation  string    `db:"recommendation" json:"recommendation"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// BatchDocument maps to the audit_document table: one raw uploaded document
// with its extracted field map, kept verbatim for re-analysis.
type BatchDocument struct {
	ID       uuid.UUID           `db:"id" json:"id"`
	BatchID  uuid.UUID           `db:"batch_id" json:"batch_id"`
	SourceID string              `db:"raw_source_id" json:"raw_source_id"`
	Type     record.DocumentType `db:"document_type" json:"document_type"`
	Fields   map[string]any      `db:"fields" json:"fields"`
}
