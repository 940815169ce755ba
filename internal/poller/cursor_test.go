package poller

import (
	"testing"
	"time"

	"mailgenie/internal/model"
)

func TestWindowWithWatermark(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	last := now.Add(-5 * time.Minute)
	account := model.Account{LastCheck: &last}

	since := Window(account, now)

	want := now.Add(-5*time.Minute - 30*time.Second)
	if !since.Equal(want) {
		t.Errorf("since = %v, want %v", since, want)
	}
}

func TestWindowFirstPoll(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	since := Window(model.Account{}, now)

	want := now.Add(-DefaultLookback - Overlap)
	if !since.Equal(want) {
		t.Errorf("since = %v, want %v", since, want)
	}
}

func TestWindowNeverBeforeEpoch(t *testing.T) {
	epoch := time.Unix(0, 0)
	early := epoch.Add(10 * time.Second)
	account := model.Account{LastCheck: &early}

	since := Window(account, early.Add(time.Minute))
	if since.Before(epoch) {
		t.Errorf("since = %v, must not precede the epoch", since)
	}
}

func TestWindowOverlapCoverage(t *testing.T) {
	// A message with server timestamp in [watermark - Overlap, now] is
	// inside the next window.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	watermark := now.Add(-time.Minute)
	account := model.Account{LastCheck: &watermark}

	since := Window(account, now)
	boundary := watermark.Add(-Overlap)

	if since.After(boundary) {
		t.Errorf("window start %v leaves gap before %v", since, boundary)
	}
}

func TestTokenExpiryPlausible(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"zero", time.Time{}, false},
		{"epoch", time.Unix(0, 0), false},
		{"normal one hour", now.Add(time.Hour), true},
		{"exactly max ttl", now.Add(MaxAccessTokenTTL), true},
		{"implausibly far", now.Add(MaxAccessTokenTTL + time.Minute), false},
		{"already past", now.Add(-time.Minute), true}, // past is implausible only for trust, not validity
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tokenExpiryPlausible(tt.expiry, now); got != tt.want {
				t.Errorf("tokenExpiryPlausible(%v) = %v, want %v", tt.expiry, got, tt.want)
			}
		})
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if tokenExpired(now.Add(time.Hour), now) {
		t.Error("token with an hour left is not expired")
	}
	if !tokenExpired(now.Add(2*time.Minute), now) {
		t.Error("token inside the 5-minute buffer counts as expired")
	}
	if !tokenExpired(now.Add(-time.Minute), now) {
		t.Error("past expiry is expired")
	}
}
