package engine

import (
	"fmt"
	"strings"

	"mailgenie/internal/model"
)

const noMatchReasoning = "No rule conditions matched"

// ApplyRuleConstraints clamps a raw suggestion to the matched rule's action
// ceiling. The rule's action set is a hard upper bound on applied effects:
// a suggestion can narrow authorized behavior but never widen it.
//
// With no matched rule the canonical no-op decision is returned regardless
// of the raw content, which overrides any hallucinated suggestion.
func ApplyRuleConstraints(raw model.Decision, matched *model.Rule) model.Decision {
	if matched == nil {
		return model.NoOpDecision(noMatchReasoning)
	}

	allowed := make(map[string]struct{}, len(matched.Actions.ApplyLabels))
	for _, label := range matched.Actions.ApplyLabels {
		allowed[strings.ToLower(label)] = struct{}{}
	}

	labels := []string{}
	seen := make(map[string]struct{})
	for _, label := range raw.SuggestedLabels {
		key := strings.ToLower(label)
		if _, ok := allowed[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		labels = append(labels, label)
	}

	out := model.Decision{
		ShouldMarkImportant:    raw.ShouldMarkImportant && matched.Actions.MarkImportant,
		ShouldPinConversation:  raw.ShouldPinConversation && matched.Actions.PinConversation,
		ShouldSkipInbox:        raw.ShouldSkipInbox && matched.Actions.SkipInbox,
		ShouldMarkReadAndLabel: raw.ShouldMarkReadAndLabel && matched.Actions.MarkReadAndLabel,
		SuggestedLabels:        labels,
		Reasoning:              raw.Reasoning,
		Confidence:             raw.Confidence,
	}

	// Provenance over model narrative.
	if matched.Name != "" {
		out.Reasoning = fmt.Sprintf("Matched rule: %s", matched.Name)
	}

	return out
}
