package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func suggestServer(t *testing.T, content string, status int) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "nope", status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "key", "gpt-4o-mini", zap.NewNop())
}

func TestSuggestDecodesDecision(t *testing.T) {
	c := suggestServer(t, `{"shouldMarkImportant":true,"shouldPinConversation":false,"shouldSkipInbox":false,"shouldMarkReadAndLabel":false,"suggestedLabels":["Finance"],"reasoning":"matches","confidence":0.85}`, http.StatusOK)

	d, err := c.Suggest(context.Background(), "system", "user")
	if err != nil {
		t.Fatal(err)
	}
	if !d.ShouldMarkImportant || d.Confidence != 0.85 {
		t.Errorf("decision = %+v", d)
	}
	if len(d.SuggestedLabels) != 1 || d.SuggestedLabels[0] != "Finance" {
		t.Errorf("labels = %v", d.SuggestedLabels)
	}
}

func TestSuggestNilLabelsNormalized(t *testing.T) {
	c := suggestServer(t, `{"reasoning":"none","confidence":1}`, http.StatusOK)

	d, err := c.Suggest(context.Background(), "s", "u")
	if err != nil {
		t.Fatal(err)
	}
	if d.SuggestedLabels == nil {
		t.Error("labels must be non-nil")
	}
}

func TestSuggestProviderError(t *testing.T) {
	c := suggestServer(t, "", http.StatusBadGateway)

	if _, err := c.Suggest(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestSuggestMalformedPayload(t *testing.T) {
	c := suggestServer(t, `not json at all`, http.StatusOK)

	if _, err := c.Suggest(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on malformed structured output")
	}
}

func TestSuggestConfidenceOutOfRange(t *testing.T) {
	c := suggestServer(t, `{"confidence":1.7,"suggestedLabels":[]}`, http.StatusOK)

	if _, err := c.Suggest(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on out-of-range confidence")
	}
}
