package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mailgenie/internal/model"
	"mailgenie/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LogRepository struct {
	db *pgxpool.Pool
}

func NewLogRepository(db *pgxpool.Pool) *LogRepository {
	return &LogRepository{db: db}
}

// AppendLog records one processed email.
func (r *LogRepository) AppendLog(ctx context.Context, log *model.EmailLog) error {
	decision, err := json.Marshal(log.Decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	query := `
        INSERT INTO email_logs
            (id, account_id, message_id, sender, subject, snippet, applied_actions, rule_matched, decision, processed_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10 + INTERVAL '90 days')
    `
	start := time.Now()
	_, err = r.db.Exec(ctx, query,
		log.ID, log.AccountID, log.MessageID, log.Sender, log.Subject,
		log.Snippet, log.AppliedActions, log.RuleMatched, decision, log.ProcessedAt,
	)
	metrics.RecordDBQueryDuration("insert", "email_logs", time.Since(start))
	return err
}

// ListByAccount returns the most recent log entries for an account.
func (r *LogRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]model.EmailLog, error) {
	query := `
        SELECT id, account_id, message_id, sender, subject, snippet, applied_actions, rule_matched, decision, processed_at
        FROM email_logs
        WHERE account_id = $1
        ORDER BY processed_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

// ListSince returns log entries for an account processed after the given time.
func (r *LogRepository) ListSince(ctx context.Context, accountID string, since time.Time) ([]model.EmailLog, error) {
	query := `
        SELECT id, account_id, message_id, sender, subject, snippet, applied_actions, rule_matched, decision, processed_at
        FROM email_logs
        WHERE account_id = $1 AND processed_at >= $2
        ORDER BY processed_at DESC
    `
	rows, err := r.db.Query(ctx, query, accountID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLogs(rows)
}

func scanLogs(rows pgx.Rows) ([]model.EmailLog, error) {
	logs := []model.EmailLog{}
	for rows.Next() {
		var l model.EmailLog
		var decision []byte
		err := rows.Scan(
			&l.ID,
			&l.AccountID,
			&l.MessageID,
			&l.Sender,
			&l.Subject,
			&l.Snippet,
			&l.AppliedActions,
			&l.RuleMatched,
			&decision,
			&l.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(decision) > 0 {
			if err := json.Unmarshal(decision, &l.Decision); err != nil {
				return nil, fmt.Errorf("decode decision: %w", err)
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
