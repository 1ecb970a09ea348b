// Package cluster groups normalized document records that describe the same
// surgical procedure. Grouping is greedy and deterministic: records are
// visited in input order and joined to the best compatible existing cluster.
package cluster

import (
	"github.com/google/uuid"

	"github.com/surgaudit/surgaudit/internal/domain/matching"
	"github.com/surgaudit/surgaudit/internal/domain/record"
	"github.com/surgaudit/surgaudit/internal/domain/registry"
)

// Ambiguity records that a member matched more than one cluster when it
// joined. The aggregator surfaces these as MEDIA patient findings.
type Ambiguity struct {
	SourceID      string  `json:"raw_source_id"`
	PatientName   string  `json:"patient_name"`
	ChosenScore   float64 `json:"chosen_score"`
	RunnerUpScore float64 `json:"runner_up_score"`
}

// ProcedureCluster is one group of records believed to describe the same
// procedure. The first record is the seed; the cluster holds at most one
// record per document type.
type ProcedureCluster struct {
	ID          uuid.UUID                `json:"id"`
	Records     []*record.DocumentRecord `json:"records"`
	Ambiguities []Ambiguity              `json:"ambiguities,omitempty"`
}

// Seed returns the record the cluster was formed around.
func (c *ProcedureCluster) Seed() *record.DocumentRecord {
	return c.Records[0]
}

// IsSingleton reports whether the cluster holds a single record, meaning the
// procedure has no counterpart in the other document types.
func (c *ProcedureCluster) IsSingleton() bool {
	return len(c.Records) == 1
}

// Types returns which document types are present in the cluster.
func (c *ProcedureCluster) Types() map[record.DocumentType]bool {
	types := make(map[record.DocumentType]bool, len(c.Records))
	for _, r := range c.Records {
		types[r.Type] = true
	}
	return types
}

// Clusterer assigns records to procedure clusters using the configured
// similarity thresholds.
type Clusterer struct {
	th registry.Thresholds
}

// NewClusterer returns a Clusterer over the given thresholds.
func NewClusterer(th registry.Thresholds) *Clusterer {
	return &Clusterer{th: th}
}

// Cluster partitions records into procedure clusters. A record without a
// patient name cannot be matched and always becomes a singleton. Candidates
// are scored against each cluster's seed; a cluster that already holds the
// record's document type is not eligible. When more than one cluster is
// eligible the record joins the one with the highest patient similarity
// (earliest-formed cluster on ties) and the ambiguity is recorded on the
// winning cluster.
func (c *Clusterer) Cluster(records []*record.DocumentRecord) []*ProcedureCluster {
	var clusters []*ProcedureCluster

	for _, rec := range records {
		if rec.PatientName == "" {
			clusters = append(clusters, newCluster(rec))
			continue
		}

		bestIdx := -1
		bestScore := 0.0
		runnerUp := 0.0
		eligible := 0
		for i, cl := range clusters {
			if cl.Types()[rec.Type] {
				continue
			}
			score, ok := c.compatible(rec, cl.Seed())
			if !ok {
				continue
			}
			eligible++
			if score > bestScore {
				runnerUp = bestScore
				bestScore = score
				bestIdx = i
			} else if score > runnerUp {
				runnerUp = score
			}
		}

		if bestIdx < 0 {
			clusters = append(clusters, newCluster(rec))
			continue
		}

		winner := clusters[bestIdx]
		winner.Records = append(winner.Records, rec)
		if eligible > 1 {
			winner.Ambiguities = append(winner.Ambiguities, Ambiguity{
				SourceID:      rec.SourceID,
				PatientName:   rec.PatientName,
				ChosenScore:   bestScore,
				RunnerUpScore: runnerUp,
			})
		}
	}

	return clusters
}

func newCluster(rec *record.DocumentRecord) *ProcedureCluster {
	return &ProcedureCluster{
		ID:      uuid.New(),
		Records: []*record.DocumentRecord{rec},
	}
}

// compatible reports whether rec can join a cluster seeded by seed, and the
// patient similarity used to rank eligible clusters. Absent dates and absent
// procedure names do not block attachment.
func (c *Clusterer) compatible(rec, seed *record.DocumentRecord) (float64, bool) {
	if seed.PatientName == "" {
		return 0, false
	}
	patient := matching.Similarity(rec.PatientName, seed.PatientName)
	if patient < c.th.ClusterPatient {
		return 0, false
	}

	if rec.ProcedureName != "" && seed.ProcedureName != "" {
		if matching.Similarity(rec.ProcedureName, seed.ProcedureName) < c.th.ClusterProcedure {
			return 0, false
		}
	}

	if rec.ProcedureDate != nil && seed.ProcedureDate != nil {
		if record.DaysApart(*rec.ProcedureDate, *seed.ProcedureDate) > c.th.DateToleranceDays {
			return 0, false
		}
	}

	return patient, true
}
