package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mailgenie/internal/model"
	"mailgenie/pkg/metrics"
)

// FallbackConfidence is the fixed confidence assigned to decisions
// synthesized from a matched rule when the suggestion source fails.
const FallbackConfidence = 0.7

// Suggester is the external suggestion source: a structured-output AI call
// that either returns a raw decision or fails cleanly. Retry and backoff,
// if any, are its own responsibility.
type Suggester interface {
	Suggest(ctx context.Context, systemPrompt, userPrompt string) (model.Decision, error)
}

// Categorizer turns one email plus a user's rule set into a constrained
// decision. It never returns an error: a failing suggestion source
// degrades to the deterministic rule-based path.
type Categorizer struct {
	suggester Suggester
	logger    *zap.Logger
}

func NewCategorizer(suggester Suggester, logger *zap.Logger) *Categorizer {
	return &Categorizer{
		suggester: suggester,
		logger:    logger,
	}
}

// Categorize runs the engine over one email. Rules must be pre-sorted by
// ascending priority; disabled rules are excluded from every path.
func (c *Categorizer) Categorize(ctx context.Context, email model.Email, rules []model.Rule) model.Decision {
	enabled := make([]model.Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}

	if len(enabled) == 0 {
		return model.NoOpDecision("No active rules configured")
	}

	systemPrompt := BuildSystemPrompt(enabled)
	userPrompt := BuildUserPrompt(email)

	raw, err := c.suggester.Suggest(ctx, systemPrompt, userPrompt)
	if err != nil {
		c.logger.Warn("Suggestion source failed, using rule-based fallback",
			zap.String("from", email.From),
			zap.Error(err),
		)
		metrics.IncrementCategorization("fallback")
		return c.fallback(email, enabled)
	}

	matched := FindMatchingRule(email, enabled)
	metrics.IncrementCategorization("constrained")
	return ApplyRuleConstraints(raw, matched)
}

// fallback synthesizes a decision directly from the matched rule's action
// set, copying every authorized flag and label verbatim.
func (c *Categorizer) fallback(email model.Email, rules []model.Rule) model.Decision {
	matched := FindMatchingRule(email, rules)
	if matched == nil {
		return model.NoOpDecision(noMatchReasoning)
	}

	labels := []string{}
	seen := make(map[string]struct{})
	for _, label := range matched.Actions.ApplyLabels {
		key := label
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		labels = append(labels, label)
	}

	return model.Decision{
		ShouldMarkImportant:    matched.Actions.MarkImportant,
		ShouldPinConversation:  matched.Actions.PinConversation,
		ShouldSkipInbox:        matched.Actions.SkipInbox,
		ShouldMarkReadAndLabel: matched.Actions.MarkReadAndLabel,
		SuggestedLabels:        labels,
		Reasoning:              fmt.Sprintf("Matched rule: %s", matched.Name),
		Confidence:             FallbackConfidence,
	}
}
