package engine

import (
	"reflect"
	"testing"

	"mailgenie/internal/model"
)

func fullRaw() model.Decision {
	return model.Decision{
		ShouldMarkImportant:    true,
		ShouldPinConversation:  true,
		ShouldSkipInbox:        true,
		ShouldMarkReadAndLabel: true,
		SuggestedLabels:        []string{"Finance", "Spam", "Travel"},
		Reasoning:              "model narrative",
		Confidence:             0.9,
	}
}

func TestApplyRuleConstraintsNoMatch(t *testing.T) {
	got := ApplyRuleConstraints(fullRaw(), nil)

	if got.ShouldMarkImportant || got.ShouldPinConversation || got.ShouldSkipInbox || got.ShouldMarkReadAndLabel {
		t.Error("no-match decision must have all booleans false")
	}
	if len(got.SuggestedLabels) != 0 {
		t.Errorf("no-match decision must have empty labels, got %v", got.SuggestedLabels)
	}
	if got.Confidence != 1.0 {
		t.Errorf("no-match confidence = %v, want 1.0", got.Confidence)
	}
}

func TestApplyRuleConstraintsCeiling(t *testing.T) {
	rule := model.Rule{
		Name: "finance",
		Actions: model.RuleActions{
			MarkImportant: true,
			ApplyLabels:   []string{"Finance"},
		},
	}

	got := ApplyRuleConstraints(fullRaw(), &rule)

	if !got.ShouldMarkImportant {
		t.Error("authorized intent should survive")
	}
	if got.ShouldPinConversation || got.ShouldSkipInbox || got.ShouldMarkReadAndLabel {
		t.Error("unauthorized intents must be clamped to false")
	}
	if !reflect.DeepEqual(got.SuggestedLabels, []string{"Finance"}) {
		t.Errorf("labels = %v, want [Finance]", got.SuggestedLabels)
	}
	if got.Reasoning != "Matched rule: finance" {
		t.Errorf("reasoning = %q, should reference the matched rule", got.Reasoning)
	}
}

func TestApplyRuleConstraintsLabelIntersectionCaseInsensitive(t *testing.T) {
	rule := model.Rule{
		Name:    "finance",
		Actions: model.RuleActions{ApplyLabels: []string{"Finance"}},
	}
	raw := model.Decision{SuggestedLabels: []string{"Finance", "finance", "Receipts"}}

	got := ApplyRuleConstraints(raw, &rule)

	if len(got.SuggestedLabels) != 1 || got.SuggestedLabels[0] != "Finance" {
		t.Errorf("labels = %v, want single case-insensitive entry [Finance]", got.SuggestedLabels)
	}
}

func TestApplyRuleConstraintsOnlyNarrows(t *testing.T) {
	// A raw decision suggesting nothing stays nothing even if the rule
	// authorizes everything.
	rule := model.Rule{
		Name: "all",
		Actions: model.RuleActions{
			MarkImportant:    true,
			PinConversation:  true,
			SkipInbox:        true,
			MarkReadAndLabel: true,
			ApplyLabels:      []string{"A"},
		},
	}

	got := ApplyRuleConstraints(model.Decision{SuggestedLabels: []string{}}, &rule)

	if got.ShouldMarkImportant || got.ShouldPinConversation || got.ShouldSkipInbox || got.ShouldMarkReadAndLabel {
		t.Error("constrainer must never widen a suggestion")
	}
	if len(got.SuggestedLabels) != 0 {
		t.Errorf("labels = %v, want empty", got.SuggestedLabels)
	}
}

func TestApplyRuleConstraintsUnnamedRuleKeepsRawReasoning(t *testing.T) {
	rule := model.Rule{Actions: model.RuleActions{MarkImportant: true}}
	got := ApplyRuleConstraints(fullRaw(), &rule)

	if got.Reasoning != "model narrative" {
		t.Errorf("reasoning = %q, want raw reasoning kept for unnamed rule", got.Reasoning)
	}
}
