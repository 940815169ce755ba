package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mailgenie/internal/model"
	"mailgenie/pkg/outbox"
	"mailgenie/pkg/trace"

	"github.com/jackc/pgx/v5/pgxpool"
)

const emailProcessedRoutingKey = "email.processed"

// ProcessedRecorder writes the email log entry and the matching outbox
// event in one transaction, so an event is published if and only if the
// log row exists.
type ProcessedRecorder struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
}

func NewProcessedRecorder(db *pgxpool.Pool, ob *outbox.Repository) *ProcessedRecorder {
	return &ProcessedRecorder{db: db, outbox: ob}
}

type emailProcessedEvent struct {
	TraceID        string         `json:"trace_id,omitempty"`
	AccountID      string         `json:"account_id"`
	MessageID      string         `json:"message_id"`
	Sender         string         `json:"sender"`
	Subject        string         `json:"subject"`
	AppliedActions []string       `json:"applied_actions"`
	RuleMatched    string         `json:"rule_matched,omitempty"`
	Decision       model.Decision `json:"decision"`
	ProcessedAt    time.Time      `json:"processed_at"`
}

// RecordProcessedEmail persists the log entry and enqueues an
// email.processed event atomically.
func (r *ProcessedRecorder) RecordProcessedEmail(ctx context.Context, log *model.EmailLog) error {
	decision, err := json.Marshal(log.Decision)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO email_logs
            (id, account_id, message_id, sender, subject, snippet, applied_actions, rule_matched, decision, processed_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10 + INTERVAL '90 days')
    `
	_, err = tx.Exec(ctx, query,
		log.ID, log.AccountID, log.MessageID, log.Sender, log.Subject,
		log.Snippet, log.AppliedActions, log.RuleMatched, decision, log.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert email log: %w", err)
	}

	event := emailProcessedEvent{
		TraceID:        trace.FromContext(ctx),
		AccountID:      log.AccountID,
		MessageID:      log.MessageID,
		Sender:         log.Sender,
		Subject:        log.Subject,
		AppliedActions: log.AppliedActions,
		RuleMatched:    log.RuleMatched,
		Decision:       log.Decision,
		ProcessedAt:    log.ProcessedAt,
	}
	accountID := log.AccountID
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "email", &accountID, emailProcessedRoutingKey, event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
