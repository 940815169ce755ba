package model

import "time"

// RuleType controls whether a rule is matched by deterministic conditions,
// by the AI instruction, or both.
type RuleType string

const (
	RuleTypeAI        RuleType = "AI"
	RuleTypeCondition RuleType = "condition"
	RuleTypeHybrid    RuleType = "hybrid"
)

// RuleConditions holds the deterministic matching lists. Each list uses
// OR-of-substrings semantics, and the categories themselves are OR'd
// together: any single category matching makes the rule match.
type RuleConditions struct {
	SenderEmail     []string `json:"senderEmail,omitempty"`
	SenderDomain    []string `json:"senderDomain,omitempty"`
	SubjectContains []string `json:"subjectContains,omitempty"`
	BodyContains    []string `json:"bodyContains,omitempty"`
}

// IsEmpty reports whether no condition list carries any entry. A rule
// with empty conditions can never match deterministically.
func (c *RuleConditions) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.SenderEmail) == 0 &&
		len(c.SenderDomain) == 0 &&
		len(c.SubjectContains) == 0 &&
		len(c.BodyContains) == 0
}

// RuleActions is the rule's authorization ceiling: a matching rule permits
// only these actions, regardless of what the suggestion source recommends.
type RuleActions struct {
	MarkImportant    bool     `json:"markImportant,omitempty"`
	PinConversation  bool     `json:"pinConversation,omitempty"`
	SkipInbox        bool     `json:"skipInbox,omitempty"`
	MarkReadAndLabel bool     `json:"markReadAndLabel,omitempty"`
	ApplyLabels      []string `json:"applyLabels,omitempty"`
}

// Rule is a user-defined categorization policy. Rules are evaluated in
// ascending priority order; the first matching rule wins.
type Rule struct {
	ID         string          `json:"id"`
	UserID     int             `json:"user_id"`
	AccountIDs []string        `json:"account_ids"`
	Name       string          `json:"name"`
	Type       RuleType        `json:"type"`
	Conditions *RuleConditions `json:"conditions,omitempty"`
	Actions    RuleActions     `json:"actions"`
	AIPrompt   string          `json:"ai_prompt,omitempty"`
	Priority   int             `json:"priority"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// AppliesTo reports whether the rule is associated with the given account.
func (r *Rule) AppliesTo(accountID string) bool {
	for _, id := range r.AccountIDs {
		if id == accountID {
			return true
		}
	}
	return false
}
