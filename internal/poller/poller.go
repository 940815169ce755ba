package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mailgenie/internal/model"
	"mailgenie/pkg/metrics"
)

// ErrCredentialRefresh marks a failed token refresh. The caller aborts the
// account's pass rather than proceeding with credentials that may already
// be expired.
var ErrCredentialRefresh = errors.New("credential refresh failed")

// MailboxClient is the narrow mailbox surface the poller consumes.
type MailboxClient interface {
	ListMessageIDsSince(ctx context.Context, creds model.Credentials, since time.Time) ([]string, error)
	FetchMessage(ctx context.Context, creds model.Credentials, messageID string) (model.Email, error)
	RefreshCredentials(ctx context.Context, refreshToken string) (model.Credentials, error)
}

// TokenStore persists refreshed credentials and the poll watermark.
type TokenStore interface {
	UpdateTokens(ctx context.Context, userID int, accountID string, creds model.Credentials) error
	UpdateLastCheck(ctx context.Context, userID int, accountID string, ts time.Time) error
}

// Result is one account's poll output: deduplicated fetched messages plus
// the credentials that were actually used (possibly refreshed).
type Result struct {
	Emails      []model.PolledEmail
	Credentials model.Credentials
	FetchErrors []error
}

// Poller lists and fetches new messages for one account at a time.
type Poller struct {
	client MailboxClient
	store  TokenStore
	logger *zap.Logger
}

func NewPoller(client MailboxClient, store TokenStore, logger *zap.Logger) *Poller {
	return &Poller{
		client: client,
		store:  store,
		logger: logger,
	}
}

// ensureValidTokens returns usable credentials, refreshing when the stored
// expiry is implausible or past.
func (p *Poller) ensureValidTokens(ctx context.Context, account model.Account, now time.Time) (model.Credentials, error) {
	current := model.Credentials{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		Expiry:       account.TokenExpiry,
	}

	if tokenExpiryPlausible(account.TokenExpiry, now) && !tokenExpired(account.TokenExpiry, now) {
		return current, nil
	}

	refreshed, err := p.client.RefreshCredentials(ctx, account.RefreshToken)
	if err != nil {
		return model.Credentials{}, fmt.Errorf("%w: %v", ErrCredentialRefresh, err)
	}

	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = account.RefreshToken
	}
	if refreshed.Expiry.IsZero() {
		refreshed.Expiry = now.Add(time.Hour)
	}

	if err := p.store.UpdateTokens(ctx, account.UserID, account.ID, refreshed); err != nil {
		p.logger.Error("Failed to persist refreshed tokens",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	return refreshed, nil
}

// PollAccount computes the account's window, lists candidate message ids,
// fetches each message once, and advances the watermark to the poll start
// time. The watermark moves after the listing call returns, not after full
// message processing, so a slow pass never opens a gap.
func (p *Poller) PollAccount(ctx context.Context, account model.Account, now time.Time) (*Result, error) {
	start := time.Now()
	since := Window(account, now)

	p.logger.Debug("Polling account",
		zap.String("account_id", account.ID),
		zap.String("email", account.Email),
		zap.Time("since", since),
	)

	creds, err := p.ensureValidTokens(ctx, account, now)
	if err != nil {
		metrics.RecordPollDuration("error", time.Since(start))
		return nil, err
	}

	messageIDs, err := p.client.ListMessageIDsSince(ctx, creds, since)
	if err != nil {
		metrics.RecordPollDuration("error", time.Since(start))
		return nil, fmt.Errorf("list messages for account %s: %w", account.ID, err)
	}

	result := &Result{Credentials: creds}
	seen := make(map[string]struct{}, len(messageIDs))

	for _, id := range messageIDs {
		if id == "" {
			continue
		}
		// The overlap window can return the same message twice in one
		// listing; fetch each id once per pass.
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		email, err := p.client.FetchMessage(ctx, creds, id)
		if err != nil {
			p.logger.Error("Failed to fetch message",
				zap.String("account_id", account.ID),
				zap.String("message_id", id),
				zap.Error(err),
			)
			result.FetchErrors = append(result.FetchErrors, fmt.Errorf("fetch message %s: %w", id, err))
			continue
		}

		result.Emails = append(result.Emails, model.PolledEmail{
			AccountID: account.ID,
			MessageID: id,
			Email:     email,
		})
	}

	if err := p.store.UpdateLastCheck(ctx, account.UserID, account.ID, now); err != nil {
		p.logger.Error("Failed to advance poll watermark",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}

	metrics.RecordPollDuration("success", time.Since(start))
	return result, nil
}
