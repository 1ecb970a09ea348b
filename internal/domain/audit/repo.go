package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/surgaudit/surgaudit/internal/domain/report"
)

// ErrNotFound is returned when a batch does not exist.
var ErrNotFound = errors.New("batch not found")

type Repository interface {
	// CreateBatch stores the batch, its documents, and its analysis result
	// atomically.
	CreateBatch(ctx context.Context, b *Batch, docs []*BatchDocument, result *report.BatchResult) error
	GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error)
	ListBatches(ctx context.Context, limit, offset int) ([]*Batch, int, error)
	GetDocuments(ctx context.Context, batchID uuid.UUID) ([]*BatchDocument, error)
	GetResult(ctx context.Context, batchID uuid.UUID) (*report.BatchResult, error)
	DeleteBatch(ctx context.Context, id uuid.UUID) error
}
