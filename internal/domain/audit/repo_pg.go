package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/surgaudit/surgaudit/internal/domain/record"
	"github.com/surgaudit/surgaudit/internal/domain/report"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const batchCols = `id, name, status, document_count, report_count, overall_severity, recommendation, created_at`

func scanBatch(row pgx.Row) (*Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.Name, &b.Status, &b.DocumentCount, &b.ReportCount,
		&b.OverallSeverity, &b.Recommendation, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &b, err
}

func (r *repoPG) CreateBatch(ctx context.Context, b *Batch, docs []*BatchDocument, result *report.BatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_batch (id, name, status, document_count, report_count, overall_severity, recommendation)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.Name, b.Status, b.DocumentCount, b.ReportCount, b.OverallSeverity, b.Recommendation)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, doc := range docs {
		fields, err := json.Marshal(doc.Fields)
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", doc.SourceID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO audit_document (id, batch_id, raw_source_id, document_type, fields)
			VALUES ($1,$2,$3,$4,$5)`,
			doc.ID, doc.BatchID, doc.SourceID, string(doc.Type), fields)
		if err != nil {
			return fmt.Errorf("insert document %s: %w", doc.SourceID, err)
		}
	}

	_, err = tx.Exec(ctx, `INSERT INTO audit_result (batch_id, result) VALUES ($1,$2)`,
		b.ID, resultJSON)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *repoPG) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return scanBatch(r.pool.QueryRow(ctx, `SELECT `+batchCols+` FROM audit_batch WHERE id = $1`, id))
}

func (r *repoPG) ListBatches(ctx context.Context, limit, offset int) ([]*Batch, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_batch`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+batchCols+` FROM audit_batch ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetDocuments(ctx context.Context, batchID uuid.UUID) ([]*BatchDocument, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, raw_source_id, document_type, fields
		FROM audit_document WHERE batch_id = $1 ORDER BY raw_source_id`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*BatchDocument
	for rows.Next() {
		var doc BatchDocument
		var typ string
		var fields []byte
		if err := rows.Scan(&doc.ID, &doc.BatchID, &doc.SourceID, &typ, &fields); err != nil {
			return nil, err
		}
		doc.Type = record.DocumentType(typ)
		if err := json.Unmarshal(fields, &doc.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal document %s: %w", doc.SourceID, err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (r *repoPG) GetResult(ctx context.Context, batchID uuid.UUID) (*report.BatchResult, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT result FROM audit_result WHERE batch_id = $1`, batchID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var result report.BatchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

func (r *repoPG) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_batch WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
