package poller

import (
	"time"

	"mailgenie/internal/model"
)

const (
	// DefaultLookback is the window used for an account's first-ever poll.
	DefaultLookback = 10 * time.Minute

	// Overlap is re-queried on every pass to tolerate clock skew and the
	// mailbox search index lagging. Duplicate candidates are handled by
	// the per-pass dedupe set and by idempotent downstream actions.
	Overlap = 30 * time.Second

	// MaxAccessTokenTTL is the sanity bound on a stored token expiry. A
	// stored expiry further out than this cannot have come from a real
	// token grant and is distrusted.
	MaxAccessTokenTTL = 2 * time.Hour

	// expiryBuffer treats a token expiring within this margin as expired.
	expiryBuffer = 5 * time.Minute
)

// Window computes the "messages since" boundary for one account poll.
func Window(account model.Account, now time.Time) time.Time {
	lastCheck := now.Add(-DefaultLookback)
	if account.LastCheck != nil {
		lastCheck = *account.LastCheck
	}

	since := lastCheck.Add(-Overlap)
	if since.Before(time.Unix(0, 0)) {
		since = time.Unix(0, 0)
	}
	return since
}

// tokenExpiryPlausible guards against corrupted or stale stored expiry
// values silently granting unbounded trust.
func tokenExpiryPlausible(expiry, now time.Time) bool {
	if expiry.IsZero() || !expiry.After(time.Unix(0, 0)) {
		return false
	}
	return expiry.Sub(now) <= MaxAccessTokenTTL
}

// tokenExpired reports whether the token is expired or about to be.
func tokenExpired(expiry, now time.Time) bool {
	return !now.Before(expiry.Add(-expiryBuffer))
}
