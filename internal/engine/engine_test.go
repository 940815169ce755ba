package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"mailgenie/internal/model"
)

type fakeSuggester struct {
	decision model.Decision
	err      error
	calls    int
}

func (f *fakeSuggester) Suggest(ctx context.Context, systemPrompt, userPrompt string) (model.Decision, error) {
	f.calls++
	if f.err != nil {
		return model.Decision{}, f.err
	}
	return f.decision, nil
}

func TestCategorizeNoRules(t *testing.T) {
	c := NewCategorizer(&fakeSuggester{}, zap.NewNop())

	got := c.Categorize(context.Background(), model.Email{Subject: "x"}, nil)

	if got.Reasoning != "No active rules configured" {
		t.Errorf("reasoning = %q", got.Reasoning)
	}
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got.Confidence)
	}
}

func TestCategorizeDisabledRulesExcluded(t *testing.T) {
	rule := condRule("r1", 10, model.RuleConditions{SubjectContains: []string{"invoice"}})
	rule.Enabled = false

	sugg := &fakeSuggester{}
	c := NewCategorizer(sugg, zap.NewNop())
	got := c.Categorize(context.Background(), model.Email{Subject: "invoice"}, []model.Rule{rule})

	if sugg.calls != 0 {
		t.Error("suggester must not be called when every rule is disabled")
	}
	if got.Reasoning != "No active rules configured" {
		t.Errorf("reasoning = %q", got.Reasoning)
	}
}

func TestCategorizeConstrainsSuggestion(t *testing.T) {
	rule := condRule("Finance", 10, model.RuleConditions{SubjectContains: []string{"invoice"}})
	rule.Actions = model.RuleActions{ApplyLabels: []string{"Finance"}}

	sugg := &fakeSuggester{decision: model.Decision{
		ShouldMarkImportant: true, // not authorized
		SuggestedLabels:     []string{"Finance", "Hallucinated"},
		Confidence:          0.8,
	}}
	c := NewCategorizer(sugg, zap.NewNop())

	got := c.Categorize(context.Background(), model.Email{Subject: "Your March Invoice"}, []model.Rule{rule})

	if got.ShouldMarkImportant {
		t.Error("unauthorized intent leaked through")
	}
	if !reflect.DeepEqual(got.SuggestedLabels, []string{"Finance"}) {
		t.Errorf("labels = %v, want [Finance]", got.SuggestedLabels)
	}
}

func TestCategorizeHallucinationWithoutMatchIsNoOp(t *testing.T) {
	// Two conditionless AI rules: nothing can match deterministically, so
	// whatever the model says must collapse to the no-op decision.
	rules := []model.Rule{
		{ID: "a", Type: model.RuleTypeAI, Priority: 1, Enabled: true, Actions: model.RuleActions{SkipInbox: true}},
		{ID: "b", Type: model.RuleTypeAI, Priority: 2, Enabled: true, Actions: model.RuleActions{MarkImportant: true}},
	}
	sugg := &fakeSuggester{decision: model.Decision{
		ShouldSkipInbox: true,
		SuggestedLabels: []string{"X"},
		Confidence:      0.99,
	}}
	c := NewCategorizer(sugg, zap.NewNop())

	got := c.Categorize(context.Background(), model.Email{Subject: "anything"}, rules)

	if got.ShouldSkipInbox || len(got.SuggestedLabels) != 0 {
		t.Errorf("expected canonical no-op, got %+v", got)
	}
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got.Confidence)
	}
}

func TestCategorizeFallbackEquivalence(t *testing.T) {
	rule := condRule("Finance", 10, model.RuleConditions{SubjectContains: []string{"invoice"}})
	rule.Actions = model.RuleActions{
		MarkImportant:    true,
		SkipInbox:        true,
		MarkReadAndLabel: true,
		ApplyLabels:      []string{"Finance", "Receipts"},
	}

	c := NewCategorizer(&fakeSuggester{err: errors.New("provider down")}, zap.NewNop())
	got := c.Categorize(context.Background(), model.Email{Subject: "invoice"}, []model.Rule{rule})

	// Fallback copies the matched rule's action set verbatim.
	if !got.ShouldMarkImportant || !got.ShouldSkipInbox || !got.ShouldMarkReadAndLabel {
		t.Errorf("fallback should copy authorized flags verbatim, got %+v", got)
	}
	if got.ShouldPinConversation {
		t.Error("pinConversation was never authorized")
	}
	if !reflect.DeepEqual(got.SuggestedLabels, []string{"Finance", "Receipts"}) {
		t.Errorf("labels = %v", got.SuggestedLabels)
	}
	if got.Confidence != FallbackConfidence {
		t.Errorf("confidence = %v, want %v", got.Confidence, FallbackConfidence)
	}
	if !strings.Contains(got.Reasoning, "Finance") {
		t.Errorf("reasoning = %q, should name the matched rule", got.Reasoning)
	}
}

func TestCategorizeFallbackNoMatch(t *testing.T) {
	rule := condRule("Finance", 10, model.RuleConditions{SubjectContains: []string{"invoice"}})

	c := NewCategorizer(&fakeSuggester{err: errors.New("timeout")}, zap.NewNop())
	got := c.Categorize(context.Background(), model.Email{Subject: "hello"}, []model.Rule{rule})

	if got.ShouldMarkImportant || len(got.SuggestedLabels) != 0 {
		t.Errorf("expected no-op, got %+v", got)
	}
	if got.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", got.Confidence)
	}
}

func TestCategorizeScenarioInvoice(t *testing.T) {
	// Rule: subjectContains ["invoice"], actions applyLabels ["Finance"].
	// Suggestion source down -> fallback labels exactly [Finance], booleans false.
	rule := condRule("rule 1", 10, model.RuleConditions{SubjectContains: []string{"invoice"}})
	rule.Actions = model.RuleActions{ApplyLabels: []string{"Finance"}}

	c := NewCategorizer(&fakeSuggester{err: errors.New("down")}, zap.NewNop())
	got := c.Categorize(context.Background(), model.Email{Subject: "Your March Invoice"}, []model.Rule{rule})

	if got.ShouldMarkImportant || got.ShouldPinConversation || got.ShouldSkipInbox || got.ShouldMarkReadAndLabel {
		t.Errorf("booleans should be false, got %+v", got)
	}
	if !reflect.DeepEqual(got.SuggestedLabels, []string{"Finance"}) {
		t.Errorf("labels = %v, want [Finance]", got.SuggestedLabels)
	}
}
