package repository

import (
	"context"
	"time"

	"mailgenie/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount inserts a connected mailbox account.
func (r *AccountRepository) CreateAccount(ctx context.Context, a *model.Account) error {
	query := `
        INSERT INTO gmail_accounts (id, user_id, email, access_token, refresh_token, token_expiry, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
    `
	_, err := r.db.Exec(ctx, query,
		a.ID, a.UserID, a.Email, a.AccessToken, a.RefreshToken, a.TokenExpiry,
	)
	return err
}

// ListAll returns every connected account across all users.
func (r *AccountRepository) ListAll(ctx context.Context) ([]model.Account, error) {
	query := `
        SELECT id, user_id, email, access_token, refresh_token, token_expiry, last_check, created_at, updated_at
        FROM gmail_accounts
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// ListByUser returns the accounts connected by one user.
func (r *AccountRepository) ListByUser(ctx context.Context, userID int) ([]model.Account, error) {
	query := `
        SELECT id, user_id, email, access_token, refresh_token, token_expiry, last_check, created_at, updated_at
        FROM gmail_accounts
        WHERE user_id = $1
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAccounts(rows)
}

// GetAccount returns one account owned by the given user.
func (r *AccountRepository) GetAccount(ctx context.Context, userID int, accountID string) (*model.Account, error) {
	query := `
        SELECT id, user_id, email, access_token, refresh_token, token_expiry, last_check, created_at, updated_at
        FROM gmail_accounts
        WHERE id = $1 AND user_id = $2
    `
	var a model.Account
	err := r.db.QueryRow(ctx, query, accountID, userID).Scan(
		&a.ID,
		&a.UserID,
		&a.Email,
		&a.AccessToken,
		&a.RefreshToken,
		&a.TokenExpiry,
		&a.LastCheck,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateTokens stores refreshed OAuth credentials for an account.
func (r *AccountRepository) UpdateTokens(ctx context.Context, userID int, accountID string, creds model.Credentials) error {
	query := `
        UPDATE gmail_accounts
        SET access_token = $1, refresh_token = $2, token_expiry = $3, updated_at = NOW()
        WHERE id = $4 AND user_id = $5
    `
	_, err := r.db.Exec(ctx, query,
		creds.AccessToken, creds.RefreshToken, creds.Expiry, accountID, userID,
	)
	return err
}

// UpdateLastCheck advances the poll watermark for an account.
func (r *AccountRepository) UpdateLastCheck(ctx context.Context, userID int, accountID string, at time.Time) error {
	query := `
        UPDATE gmail_accounts
        SET last_check = $1, updated_at = NOW()
        WHERE id = $2 AND user_id = $3
    `
	_, err := r.db.Exec(ctx, query, at, accountID, userID)
	return err
}

// DeleteAccount disconnects an account owned by the given user.
func (r *AccountRepository) DeleteAccount(ctx context.Context, userID int, accountID string) error {
	query := `
        DELETE FROM gmail_accounts
        WHERE id = $1 AND user_id = $2
    `
	_, err := r.db.Exec(ctx, query, accountID, userID)
	return err
}

func scanAccounts(rows pgx.Rows) ([]model.Account, error) {
	accounts := []model.Account{}
	for rows.Next() {
		var a model.Account
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.Email,
			&a.AccessToken,
			&a.RefreshToken,
			&a.TokenExpiry,
			&a.LastCheck,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}
