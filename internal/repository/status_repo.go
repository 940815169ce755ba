package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mailgenie/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatusRepository stores the latest processing run summary as a single row.
type StatusRepository struct {
	db *pgxpool.Pool
}

func NewStatusRepository(db *pgxpool.Pool) *StatusRepository {
	return &StatusRepository{db: db}
}

// Set upserts the singleton run summary.
func (r *StatusRepository) Set(ctx context.Context, summary *model.RunSummary) error {
	failures, err := json.Marshal(summary.Failures)
	if err != nil {
		return fmt.Errorf("encode failures: %w", err)
	}

	query := `
        INSERT INTO job_status (id, started_at, finished_at, status, processed_count, error_count, message, failures, updated_at)
        VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (id) DO UPDATE SET
            started_at = EXCLUDED.started_at,
            finished_at = EXCLUDED.finished_at,
            status = EXCLUDED.status,
            processed_count = EXCLUDED.processed_count,
            error_count = EXCLUDED.error_count,
            message = EXCLUDED.message,
            failures = EXCLUDED.failures,
            updated_at = NOW()
    `
	_, err = r.db.Exec(ctx, query,
		summary.StartedAt, summary.FinishedAt, summary.Status,
		summary.ProcessedCount, summary.ErrorCount, summary.Message, failures,
	)
	return err
}

// Get returns the latest run summary, or nil when no run has happened yet.
func (r *StatusRepository) Get(ctx context.Context) (*model.RunSummary, error) {
	query := `
        SELECT started_at, finished_at, status, processed_count, error_count, message, failures
        FROM job_status
        WHERE id = TRUE
    `
	var s model.RunSummary
	var failures []byte
	err := r.db.QueryRow(ctx, query).Scan(
		&s.StartedAt, &s.FinishedAt, &s.Status,
		&s.ProcessedCount, &s.ErrorCount, &s.Message, &failures,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		if err := json.Unmarshal(failures, &s.Failures); err != nil {
			return nil, fmt.Errorf("decode failures: %w", err)
		}
	}
	return &s, nil
}
