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

type RuleRepository struct {
	db *pgxpool.Pool
}

func NewRuleRepository(db *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{db: db}
}

// CreateRule inserts a categorization rule.
func (r *RuleRepository) CreateRule(ctx context.Context, rule *model.Rule) error {
	conditions, actions, err := encodeRule(rule)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO categorization_rules
            (id, user_id, account_ids, name, type, conditions, actions, ai_prompt, priority, enabled, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
    `
	_, err = r.db.Exec(ctx, query,
		rule.ID, rule.UserID, rule.AccountIDs, rule.Name, rule.Type,
		conditions, actions, rule.AIPrompt, rule.Priority, rule.Enabled,
	)
	return err
}

// UpdateRule replaces the mutable fields of a rule owned by the given user.
func (r *RuleRepository) UpdateRule(ctx context.Context, rule *model.Rule) error {
	conditions, actions, err := encodeRule(rule)
	if err != nil {
		return err
	}

	query := `
        UPDATE categorization_rules
        SET account_ids = $1, name = $2, type = $3, conditions = $4, actions = $5,
            ai_prompt = $6, priority = $7, enabled = $8, updated_at = NOW()
        WHERE id = $9 AND user_id = $10
    `
	tag, err := r.db.Exec(ctx, query,
		rule.AccountIDs, rule.Name, rule.Type, conditions, actions,
		rule.AIPrompt, rule.Priority, rule.Enabled, rule.ID, rule.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListByUser returns all rules of a user ordered by priority.
func (r *RuleRepository) ListByUser(ctx context.Context, userID int) ([]model.Rule, error) {
	query := `
        SELECT id, user_id, account_ids, name, type, conditions, actions, ai_prompt, priority, enabled, created_at, updated_at
        FROM categorization_rules
        WHERE user_id = $1
        ORDER BY priority, created_at
    `
	start := time.Now()
	rows, err := r.db.Query(ctx, query, userID)
	metrics.RecordDBQueryDuration("select", "categorization_rules", time.Since(start))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRules(rows)
}

// ListEnabledForAccount returns the enabled rules that apply to one account,
// ordered by priority. Rules with an empty account_ids list apply to every
// account of the owning user.
func (r *RuleRepository) ListEnabledForAccount(ctx context.Context, userID int, accountID string) ([]model.Rule, error) {
	query := `
        SELECT id, user_id, account_ids, name, type, conditions, actions, ai_prompt, priority, enabled, created_at, updated_at
        FROM categorization_rules
        WHERE user_id = $1
          AND enabled = TRUE
          AND (account_ids = '{}' OR $2 = ANY(account_ids))
        ORDER BY priority, created_at
    `
	start := time.Now()
	rows, err := r.db.Query(ctx, query, userID, accountID)
	metrics.RecordDBQueryDuration("select", "categorization_rules", time.Since(start))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRules(rows)
}

// DeleteRule removes a rule owned by the given user.
func (r *RuleRepository) DeleteRule(ctx context.Context, userID int, ruleID string) error {
	query := `
        DELETE FROM categorization_rules
        WHERE id = $1 AND user_id = $2
    `
	tag, err := r.db.Exec(ctx, query, ruleID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func encodeRule(rule *model.Rule) ([]byte, []byte, error) {
	var conditions []byte
	if rule.Conditions != nil {
		b, err := json.Marshal(rule.Conditions)
		if err != nil {
			return nil, nil, fmt.Errorf("encode rule conditions: %w", err)
		}
		conditions = b
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return nil, nil, fmt.Errorf("encode rule actions: %w", err)
	}
	return conditions, actions, nil
}

func scanRules(rows pgx.Rows) ([]model.Rule, error) {
	rules := []model.Rule{}
	for rows.Next() {
		var rule model.Rule
		var conditions, actions []byte
		err := rows.Scan(
			&rule.ID,
			&rule.UserID,
			&rule.AccountIDs,
			&rule.Name,
			&rule.Type,
			&conditions,
			&actions,
			&rule.AIPrompt,
			&rule.Priority,
			&rule.Enabled,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(conditions) > 0 {
			rule.Conditions = &model.RuleConditions{}
			if err := json.Unmarshal(conditions, rule.Conditions); err != nil {
				return nil, fmt.Errorf("decode rule conditions: %w", err)
			}
		}
		if len(actions) > 0 {
			if err := json.Unmarshal(actions, &rule.Actions); err != nil {
				return nil, fmt.Errorf("decode rule actions: %w", err)
			}
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
