package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/surgaudit/surgaudit/internal/domain/comparison"
	"github.com/surgaudit/surgaudit/internal/domain/record"
	"github.com/surgaudit/surgaudit/internal/domain/report"
)

// DocumentInput is one uploaded document in a batch request.
type DocumentInput struct {
	SourceID string         `json:"raw_source_id"`
	Type     string         `json:"document_type"`
	Fields   map[string]any `json:"fields"`
}

// Service runs the analysis pipeline over a submitted batch and persists
// the batch, its documents, and the resulting reports.
type Service struct {
	repo   Repository
	engine *report.Engine
	log    zerolog.Logger
}

func NewService(repo Repository, engine *report.Engine, log zerolog.Logger) *Service {
	return &Service{repo: repo, engine: engine, log: log}
}

// RunBatch analyzes the given documents and stores the outcome. The returned
// batch carries the aggregate severity and recommendation.
func (s *Service) RunBatch(ctx context.Context, name string, inputs []DocumentInput) (*Batch, *report.BatchResult, error) {
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("batch requires at least one document")
	}

	batchID := uuid.New()
	raws := make([]record.RawDocument, 0, len(inputs))
	docs := make([]*BatchDocument, 0, len(inputs))
	for i, in := range inputs {
		typ, err := record.ParseDocumentType(in.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("document %d: %w", i, err)
		}
		sourceID := in.SourceID
		if sourceID == "" {
			sourceID = fmt.Sprintf("doc-%d", i+1)
		}
		raws = append(raws, record.RawDocument{SourceID: sourceID, Type: typ, Fields: in.Fields})
		docs = append(docs, &BatchDocument{
			ID:       uuid.New(),
			BatchID:  batchID,
			SourceID: sourceID,
			Type:     typ,
			Fields:   in.Fields,
		})
	}

	result, err := s.engine.Analyze(ctx, raws)
	if err != nil {
		return nil, nil, fmt.Errorf("run batch: %w", err)
	}

	overall := comparison.SeverityBaja
	for _, rep := range result.Reports {
		overall = comparison.MaxSeverity(overall, rep.OverallSeverity)
	}

	batch := &Batch{
		ID:              batchID,
		Name:            name,
		Status:          StatusCompleted,
		DocumentCount:   len(docs),
		ReportCount:     len(result.Reports),
		OverallSeverity: string(overall),
		Recommendation:  result.Recommendation,
	}

	if err := s.repo.CreateBatch(ctx, batch, docs, result); err != nil {
		return nil, nil, fmt.Errorf("store batch: %w", err)
	}

	s.log.Info().
		Str("batch_id", batchID.String()).
		Int("documents", len(docs)).
		Int("reports", len(result.Reports)).
		Str("severity", batch.OverallSeverity).
		Msg("batch analyzed")

	return batch, result, nil
}

func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return s.repo.GetBatch(ctx, id)
}

func (s *Service) ListBatches(ctx context.Context, limit, offset int) ([]*Batch, int, error) {
	return s.repo.ListBatches(ctx, limit, offset)
}

func (s *Service) GetDocuments(ctx context.Context, batchID uuid.UUID) ([]*BatchDocument, error) {
	return s.repo.GetDocuments(ctx, batchID)
}

func (s *Service) GetResult(ctx context.Context, batchID uuid.UUID) (*report.BatchResult, error) {
	return s.repo.GetResult(ctx, batchID)
}

func (s *Service) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteBatch(ctx, id)
}
