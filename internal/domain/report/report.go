// Package report aggregates per-cluster comparison findings into the
// discrepancy reports consumed by the API, the CLI, and the exporters.
package report

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/surgaudit/surgaudit/internal/domain/comparison"
	"github.com/surgaudit/surgaudit/internal/domain/record"
)

// DiscrepancyReport is the result of analyzing one procedure cluster.
type DiscrepancyReport struct {
	ClusterID         uuid.UUID             `json:"cluster_id"`
	RecordsPresent    []record.DocumentType `json:"records_present"`
	Findings          []comparison.Finding  `json:"findings"`
	OverallSeverity   comparison.Severity   `json:"overall_severity"`
	CompletenessScore float64               `json:"completeness_score"`
	Clean             bool                  `json:"clean"`
	Summary           string                `json:"summary"`
}

// BatchResult is the outcome of analyzing one document batch. Warnings carry
// document-level degradations (rejected documents, unparseable dates) that
// did not stop the batch.
type BatchResult struct {
	Reports        []DiscrepancyReport `json:"reports"`
	Warnings       []string            `json:"warnings,omitempty"`
	Recommendation string              `json:"recommendation"`
}

// Recommendation returns the manual-review recommendation for a set of
// reports, driven by the number of ALTA findings across the batch.
func Recommendation(reports []DiscrepancyReport) string {
	altas := 0
	for _, rep := range reports {
		for _, f := range rep.Findings {
			if f.Severity == comparison.SeverityAlta {
				altas++
			}
		}
	}
	switch {
	case altas >= 3:
		return "REVISION URGENTE: Múltiples discrepancias críticas detectadas"
	case altas >= 1:
		return "REVISION NECESARIA: Discrepancias críticas en campos importantes"
	default:
		return "REVISION OPCIONAL: Solo discrepancias menores detectadas"
	}
}

// Row is one flattened finding, the shape both exporters write.
type Row struct {
	ClusterID      string
	RecordsPresent string
	Dimension      string
	Severity       string
	Description    string
	Evidence       string
}

// Flatten produces one row per finding across all reports, preserving report
// and finding order. Clean clusters contribute no rows; they appear in the
// summary instead.
func Flatten(reports []DiscrepancyReport) []Row {
	var rows []Row
	for _, rep := range reports {
		present := presentLabel(rep.RecordsPresent)
		for _, f := range rep.Findings {
			rows = append(rows, Row{
				ClusterID:      rep.ClusterID.String(),
				RecordsPresent: present,
				Dimension:      string(f.Dimension),
				Severity:       string(f.Severity),
				Description:    f.Description,
				Evidence:       f.Evidence,
			})
		}
	}
	return rows
}

func presentLabel(types []record.DocumentType) string {
	labels := make([]string, 0, len(types))
	for _, t := range types {
		labels = append(labels, string(t))
	}
	return strings.Join(labels, "+")
}

// SeverityCounts tallies findings per severity for one report.
func SeverityCounts(rep DiscrepancyReport) map[comparison.Severity]int {
	counts := make(map[comparison.Severity]int, 3)
	for _, f := range rep.Findings {
		counts[f.Severity]++
	}
	return counts
}

func summaryFor(findings []comparison.Finding) string {
	if len(findings) == 0 {
		return "sin discrepancias"
	}
	return fmt.Sprintf("%d discrepancias detectadas", len(findings))
}
