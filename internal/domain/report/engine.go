package report

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/surgaudit/surgaudit/internal/domain/cluster"
	"github.com/surgaudit/surgaudit/internal/domain/comparison"
	"github.com/surgaudit/surgaudit/internal/domain/record"
	"github.com/surgaudit/surgaudit/internal/domain/registry"
)

// Engine wires the normalizer, clusterer, and comparators into the full
// analysis pipeline. An Engine is stateless and safe for concurrent use.
type Engine struct {
	normalizer *record.Normalizer
	clusterer  *cluster.Clusterer
	comparator *comparison.Comparator
	log        zerolog.Logger
}

// NewEngine builds an Engine over a shared registry and threshold set.
func NewEngine(reg *registry.Registry, th registry.Thresholds, log zerolog.Logger) *Engine {
	return &Engine{
		normalizer: record.NewNormalizer(reg),
		clusterer:  cluster.NewClusterer(th),
		comparator: comparison.NewComparator(reg, th),
		log:        log,
	}
}

// Analyze runs the full pipeline over a batch of raw documents. Documents
// that fail normalization are excluded and reported as warnings; nothing in
// the batch is fatal. Reports come back in cluster formation order, which is
// deterministic for a given input order.
func (e *Engine) Analyze(ctx context.Context, docs []record.RawDocument) (*BatchResult, error) {
	result := &BatchResult{}

	records := make([]*record.DocumentRecord, 0, len(docs))
	for _, doc := range docs {
		rec, err := e.normalizer.Normalize(doc)
		if err != nil {
			e.log.Warn().Str("source_id", doc.SourceID).Str("type", string(doc.Type)).
				Err(err).Msg("document rejected")
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("documento %s (%s) excluido: %v", doc.SourceID, doc.Type, err))
			continue
		}
		for _, w := range rec.Warnings {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("documento %s: %s", rec.SourceID, w))
		}
		records = append(records, rec)
	}

	clusters := e.clusterer.Cluster(records)

	reports := make([]DiscrepancyReport, len(clusters))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, cl := range clusters {
		i, cl := i, cl
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = e.buildReport(cl)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze batch: %w", err)
	}

	result.Reports = reports
	result.Recommendation = Recommendation(reports)
	return result, nil
}

// buildReport runs every applicable pairwise comparison for one cluster and
// assembles the ordered report.
func (e *Engine) buildReport(cl *cluster.ProcedureCluster) DiscrepancyReport {
	var findings []comparison.Finding

	for i := 0; i < len(cl.Records); i++ {
		for j := i + 1; j < len(cl.Records); j++ {
			findings = append(findings, e.comparator.ComparePair(cl.Records[i], cl.Records[j])...)
		}
	}

	completeness := 1.0
	for _, rec := range cl.Records {
		if rec.Type != record.TypeInternal {
			continue
		}
		completeness = comparison.Completeness(rec)
		findings = append(findings, e.comparator.TraceabilityFindings(rec)...)
	}

	if cl.IsSingleton() {
		rec := cl.Seed()
		findings = append(findings, comparison.Finding{
			Dimension:   comparison.DimensionProcedure,
			Severity:    comparison.SeverityAlta,
			Description: "procedimiento sin contraparte en otros tipos de documento",
			Evidence:    fmt.Sprintf("solo presente en %s (%s)", rec.Type, rec.SourceID),
		})
	}

	for _, amb := range cl.Ambiguities {
		findings = append(findings, comparison.Finding{
			Dimension:   comparison.DimensionPatient,
			Severity:    comparison.SeverityMedia,
			Description: "asignación ambigua de paciente entre agrupaciones",
			Evidence: fmt.Sprintf("documento %s (%q): similitud elegida %.2f, alternativa %.2f",
				amb.SourceID, amb.PatientName, amb.ChosenScore, amb.RunnerUpScore),
		})
	}

	comparison.SortFindings(findings)

	types := cl.Types()
	present := make([]record.DocumentType, 0, len(types))
	for _, t := range record.AllTypes {
		if types[t] {
			present = append(present, t)
		}
	}

	return DiscrepancyReport{
		ClusterID:         cl.ID,
		RecordsPresent:    present,
		Findings:          findings,
		OverallSeverity:   comparison.OverallSeverity(findings),
		CompletenessScore: completeness,
		Clean:             len(findings) == 0,
		Summary:           summaryFor(findings),
	}
}
