package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"mailgenie/internal/model"
)

type fakeMailbox struct {
	listIDs     []string
	listErr     error
	listedSince time.Time

	messages map[string]model.Email
	fetchErr map[string]error

	refreshed   model.Credentials
	refreshErr  error
	refreshCnt  int
	fetchedIDs  []string
	usedCreds   model.Credentials
}

func (f *fakeMailbox) ListMessageIDsSince(ctx context.Context, creds model.Credentials, since time.Time) ([]string, error) {
	f.listedSince = since
	f.usedCreds = creds
	return f.listIDs, f.listErr
}

func (f *fakeMailbox) FetchMessage(ctx context.Context, creds model.Credentials, id string) (model.Email, error) {
	f.fetchedIDs = append(f.fetchedIDs, id)
	if err, ok := f.fetchErr[id]; ok {
		return model.Email{}, err
	}
	return f.messages[id], nil
}

func (f *fakeMailbox) RefreshCredentials(ctx context.Context, refreshToken string) (model.Credentials, error) {
	f.refreshCnt++
	return f.refreshed, f.refreshErr
}

type fakeTokenStore struct {
	tokens    *model.Credentials
	lastCheck *time.Time
}

func (f *fakeTokenStore) UpdateTokens(ctx context.Context, userID int, accountID string, creds model.Credentials) error {
	f.tokens = &creds
	return nil
}

func (f *fakeTokenStore) UpdateLastCheck(ctx context.Context, userID int, accountID string, ts time.Time) error {
	f.lastCheck = &ts
	return nil
}

func validAccount(now time.Time) model.Account {
	last := now.Add(-5 * time.Minute)
	return model.Account{
		ID:           "acc1",
		UserID:       7,
		Email:        "me@example.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenExpiry:  now.Add(time.Hour),
		LastCheck:    &last,
	}
}

func TestPollAccountDedupesAndAdvancesWatermark(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mb := &fakeMailbox{
		listIDs: []string{"m1", "m2", "m1", ""},
		messages: map[string]model.Email{
			"m1": {Subject: "one"},
			"m2": {Subject: "two"},
		},
	}
	store := &fakeTokenStore{}
	p := NewPoller(mb, store, zap.NewNop())

	res, err := p.PollAccount(context.Background(), validAccount(now), now)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Emails) != 2 {
		t.Fatalf("got %d emails, want 2 (dedupe within pass)", len(res.Emails))
	}
	if len(mb.fetchedIDs) != 2 {
		t.Errorf("duplicate id fetched: %v", mb.fetchedIDs)
	}
	if store.lastCheck == nil || !store.lastCheck.Equal(now) {
		t.Errorf("watermark = %v, want poll start %v", store.lastCheck, now)
	}
	wantSince := now.Add(-5*time.Minute - Overlap)
	if !mb.listedSince.Equal(wantSince) {
		t.Errorf("listed since %v, want %v", mb.listedSince, wantSince)
	}
	if mb.refreshCnt != 0 {
		t.Error("valid token must not be refreshed")
	}
}

func TestPollAccountFetchFailureIsNotFatal(t *testing.T) {
	now := time.Now()
	mb := &fakeMailbox{
		listIDs:  []string{"m1", "m2"},
		messages: map[string]model.Email{"m2": {Subject: "two"}},
		fetchErr: map[string]error{"m1": errors.New("boom")},
	}
	store := &fakeTokenStore{}
	p := NewPoller(mb, store, zap.NewNop())

	res, err := p.PollAccount(context.Background(), validAccount(now), now)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Emails) != 1 || res.Emails[0].MessageID != "m2" {
		t.Fatalf("emails = %+v, want only m2", res.Emails)
	}
	if len(res.FetchErrors) != 1 {
		t.Errorf("fetch errors = %v, want 1", res.FetchErrors)
	}
	if store.lastCheck == nil {
		t.Error("watermark must still advance after a successful listing")
	}
}

func TestPollAccountImplausibleExpiryForcesRefresh(t *testing.T) {
	now := time.Now()
	account := validAccount(now)
	account.TokenExpiry = now.Add(100 * time.Hour) // corrupted stored expiry

	mb := &fakeMailbox{
		refreshed: model.Credentials{AccessToken: "fresh", Expiry: now.Add(time.Hour)},
	}
	store := &fakeTokenStore{}
	p := NewPoller(mb, store, zap.NewNop())

	if _, err := p.PollAccount(context.Background(), account, now); err != nil {
		t.Fatal(err)
	}
	if mb.refreshCnt != 1 {
		t.Fatalf("refresh count = %d, want 1", mb.refreshCnt)
	}
	if mb.usedCreds.AccessToken != "fresh" {
		t.Errorf("listing used %q, want refreshed token", mb.usedCreds.AccessToken)
	}
	if store.tokens == nil || store.tokens.RefreshToken != "refresh" {
		t.Errorf("refresh token not preserved when provider omits it: %+v", store.tokens)
	}
}

func TestPollAccountRefreshFailure(t *testing.T) {
	now := time.Now()
	account := validAccount(now)
	account.TokenExpiry = now.Add(-time.Minute)

	mb := &fakeMailbox{refreshErr: errors.New("invalid_grant")}
	store := &fakeTokenStore{}
	p := NewPoller(mb, store, zap.NewNop())

	_, err := p.PollAccount(context.Background(), account, now)
	if !errors.Is(err, ErrCredentialRefresh) {
		t.Fatalf("err = %v, want ErrCredentialRefresh", err)
	}
	if store.lastCheck != nil {
		t.Error("watermark must not advance when the listing never ran")
	}
}

func TestPollAccountListFailureKeepsWatermark(t *testing.T) {
	now := time.Now()
	mb := &fakeMailbox{listErr: errors.New("gmail 500")}
	store := &fakeTokenStore{}
	p := NewPoller(mb, store, zap.NewNop())

	if _, err := p.PollAccount(context.Background(), validAccount(now), now); err == nil {
		t.Fatal("expected error")
	}
	if store.lastCheck != nil {
		t.Error("watermark advances only after a successful listing call")
	}
}
