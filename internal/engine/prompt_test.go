package engine

import (
	"strings"
	"testing"
	"unicode/utf8"

	"mailgenie/internal/model"
)

func TestBuildSystemPromptListsRulesInOrder(t *testing.T) {
	rules := []model.Rule{
		{
			Name:     "VIP",
			Type:     model.RuleTypeHybrid,
			Priority: 1,
			Conditions: &model.RuleConditions{
				SenderEmail: []string{"boss@corp.com"},
			},
			Actions:  model.RuleActions{MarkImportant: true, PinConversation: true},
			AIPrompt: "Anything from the boss is urgent.",
		},
		{
			Name:     "Newsletters",
			Type:     model.RuleTypeCondition,
			Priority: 20,
			Conditions: &model.RuleConditions{
				SenderDomain: []string{"newsletter.com"},
			},
			Actions: model.RuleActions{SkipInbox: true, ApplyLabels: []string{"News"}},
		},
	}

	prompt := BuildSystemPrompt(rules)

	vip := strings.Index(prompt, "1. VIP (hybrid, priority: 1)")
	news := strings.Index(prompt, "2. Newsletters (condition, priority: 20)")
	if vip < 0 || news < 0 || vip > news {
		t.Fatalf("rules not rendered in priority order:\n%s", prompt)
	}

	for _, want := range []string{
		"Sender emails: boss@corp.com",
		"Sender domains: newsletter.com",
		"- Mark as important",
		"- Pin conversation",
		"- Skip inbox",
		"Apply labels: News",
		"AI Instructions: Anything from the boss is urgent.",
		"apply actions only from the highest-priority",
		"Do not invent labels or actions",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildUserPromptTruncatesBody(t *testing.T) {
	email := model.Email{
		From:    "a@b.com",
		Subject: "s",
		Snippet: "snip",
		Body:    strings.Repeat("x", MaxBodyChars+100),
	}

	prompt := BuildUserPrompt(email)

	if strings.Contains(prompt, strings.Repeat("x", MaxBodyChars+1)) {
		t.Error("body not truncated")
	}
	if !strings.Contains(prompt, strings.Repeat("x", MaxBodyChars)+"...") {
		t.Error("truncation marker missing")
	}
}

func TestBuildUserPromptTruncatesOnRuneBoundary(t *testing.T) {
	// Place a 2-byte rune straddling the byte limit.
	email := model.Email{
		Body: strings.Repeat("x", MaxBodyChars-1) + "é" + strings.Repeat("y", 200),
	}

	prompt := BuildUserPrompt(email)

	if !utf8.ValidString(prompt) {
		t.Fatal("truncated prompt contains an invalid UTF-8 sequence")
	}
	if strings.Contains(prompt, "é") {
		t.Error("rune past the limit must be dropped, not split")
	}
	if !strings.Contains(prompt, strings.Repeat("x", MaxBodyChars-1)+"...") {
		t.Error("truncation marker missing after rune boundary backoff")
	}
}

func TestBuildUserPromptShortBodyNoMarker(t *testing.T) {
	prompt := BuildUserPrompt(model.Email{Body: "short"})
	if strings.Contains(prompt, "short...") {
		t.Error("marker must not be added to short bodies")
	}
}
