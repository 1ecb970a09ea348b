// Package comparison runs the pairwise checks between two canonical records
// and classifies each detected difference with a fixed, auditable rule table.
package comparison

import "sort"

// Severity of a finding. The Spanish levels are part of the report contract.
type Severity string

const (
	SeverityBaja  Severity = "BAJA"
	SeverityMedia Severity = "MEDIA"
	SeverityAlta  Severity = "ALTA"
)

var severityRank = map[Severity]int{
	SeverityBaja:  0,
	SeverityMedia: 1,
	SeverityAlta:  2,
}

// Rank returns the ordering index of a severity (higher is more severe).
func (s Severity) Rank() int {
	return severityRank[s]
}

// MaxSeverity returns the higher of two severities. Ties between candidate
// rule rows always resolve toward the higher severity.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Dimension names the axis a finding was detected on.
type Dimension string

const (
	DimensionPatient      Dimension = "patient"
	DimensionDate         Dimension = "date"
	DimensionProcedure    Dimension = "procedure"
	DimensionSupply       Dimension = "supply"
	DimensionTraceability Dimension = "traceability"
)

// dimensionOrder is the fixed report ordering of dimensions.
var dimensionOrder = map[Dimension]int{
	DimensionPatient:      0,
	DimensionDate:         1,
	DimensionProcedure:    2,
	DimensionSupply:       3,
	DimensionTraceability: 4,
}

// Finding is a single detected discrepancy.
type Finding struct {
	Dimension   Dimension `json:"dimension"`
	Severity    Severity  `json:"severity"`
	Description string    `json:"description"`
	Evidence    string    `json:"evidence,omitempty"`
}

// SortFindings orders findings by severity descending, then by the fixed
// dimension order, then by description for full determinism.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Severity.Rank() != findings[j].Severity.Rank() {
			return findings[i].Severity.Rank() > findings[j].Severity.Rank()
		}
		if dimensionOrder[findings[i].Dimension] != dimensionOrder[findings[j].Dimension] {
			return dimensionOrder[findings[i].Dimension] < dimensionOrder[findings[j].Dimension]
		}
		return findings[i].Description < findings[j].Description
	})
}

// OverallSeverity is the maximum severity across findings, BAJA when there
// are none.
func OverallSeverity(findings []Finding) Severity {
	overall := SeverityBaja
	for _, f := range findings {
		overall = MaxSeverity(overall, f.Severity)
	}
	return overall
}
