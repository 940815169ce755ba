package engine

import (
	"testing"

	"mailgenie/internal/model"
)

func condRule(id string, priority int, cond model.RuleConditions) model.Rule {
	return model.Rule{
		ID:         id,
		Name:       id,
		Type:       model.RuleTypeCondition,
		Conditions: &cond,
		Priority:   priority,
		Enabled:    true,
	}
}

func TestExtractSenderEmail(t *testing.T) {
	tests := []struct {
		from string
		want string
	}{
		{"Deals <deals@newsletter.com>", "deals@newsletter.com"},
		{"deals@newsletter.com", "deals@newsletter.com"},
		{"ALICE@EXAMPLE.COM", "alice@example.com"},
		{"\"Bob, Jr.\" <Bob@Example.com>", "bob@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractSenderEmail(tt.from); got != tt.want {
			t.Errorf("ExtractSenderEmail(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestExtractSenderDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"deals@newsletter.com", "newsletter.com"},
		{"no-at-sign", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractSenderDomain(tt.email); got != tt.want {
			t.Errorf("ExtractSenderDomain(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestFindMatchingRulePriorityPrecedence(t *testing.T) {
	email := model.Email{From: "x@a.com", Subject: "Your March Invoice", Body: "invoice attached"}
	rules := []model.Rule{
		condRule("r1", 10, model.RuleConditions{SubjectContains: []string{"invoice"}}),
		condRule("r2", 50, model.RuleConditions{BodyContains: []string{"invoice"}}),
	}

	matched := FindMatchingRule(email, rules)
	if matched == nil || matched.ID != "r1" {
		t.Fatalf("expected r1 to win, got %+v", matched)
	}
}

func TestFindMatchingRuleSenderDomain(t *testing.T) {
	email := model.Email{From: "Deals <deals@newsletter.com>", Subject: "Hot deals"}
	rules := []model.Rule{
		condRule("r1", 10, model.RuleConditions{SenderDomain: []string{"newsletter.com"}}),
	}

	if FindMatchingRule(email, rules) == nil {
		t.Fatal("expected domain rule to match")
	}
}

func TestFindMatchingRuleCaseInsensitive(t *testing.T) {
	email := model.Email{From: "a@b.com", Subject: "URGENT Invoice"}
	rules := []model.Rule{
		condRule("r1", 10, model.RuleConditions{SubjectContains: []string{"Invoice"}}),
	}

	if FindMatchingRule(email, rules) == nil {
		t.Fatal("expected case-insensitive subject match")
	}
}

func TestFindMatchingRuleSkipsConditionless(t *testing.T) {
	email := model.Email{From: "a@b.com", Subject: "anything"}
	rules := []model.Rule{
		{ID: "ai1", Type: model.RuleTypeAI, Priority: 1, Enabled: true},
		{ID: "ai2", Type: model.RuleTypeAI, Priority: 2, Enabled: true, Conditions: &model.RuleConditions{}},
	}

	if got := FindMatchingRule(email, rules); got != nil {
		t.Fatalf("conditionless rules must never match deterministically, got %q", got.ID)
	}
}

func TestFindMatchingRuleNoMatch(t *testing.T) {
	email := model.Email{From: "a@b.com", Subject: "hello"}
	rules := []model.Rule{
		condRule("r1", 10, model.RuleConditions{SubjectContains: []string{"invoice"}}),
	}

	if got := FindMatchingRule(email, rules); got != nil {
		t.Fatalf("expected no match, got %q", got.ID)
	}
}

func TestFindMatchingRuleOrAcrossCategories(t *testing.T) {
	// Subject does not match but sender email does; categories are OR'd.
	email := model.Email{From: "boss@corp.com", Subject: "lunch?"}
	rules := []model.Rule{
		condRule("r1", 10, model.RuleConditions{
			SenderEmail:     []string{"boss@corp.com"},
			SubjectContains: []string{"quarterly report"},
		}),
	}

	if FindMatchingRule(email, rules) == nil {
		t.Fatal("expected OR-across-categories match")
	}
}
