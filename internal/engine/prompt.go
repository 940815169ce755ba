package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mailgenie/internal/model"
)

// MaxBodyChars bounds how much of the email body is sent to the
// suggestion source.
const MaxBodyChars = 2000

// BuildSystemPrompt renders the enabled rules, in priority order, into the
// instruction payload for the suggestion source, followed by the fixed
// single-winner policy.
func BuildSystemPrompt(rules []model.Rule) string {
	var b strings.Builder

	b.WriteString(`You are an intelligent email categorization assistant. Your job is to analyze incoming emails and suggest appropriate actions based on the user's defined rules.

Available actions:
1. Mark as important (star the email)
2. Pin conversation
3. Skip inbox (archive the email)
4. Mark as read and move to label (keeps email searchable, doesn't archive)
5. Apply custom labels

User's rules (in priority order):
`)

	for i, rule := range rules {
		fmt.Fprintf(&b, "\n%d. %s (%s, priority: %d)", i+1, rule.Name, rule.Type, rule.Priority)

		if cond := rule.Conditions; !cond.IsEmpty() {
			b.WriteString("\n   Conditions:")
			if len(cond.SenderEmail) > 0 {
				fmt.Fprintf(&b, "\n   - Sender emails: %s", strings.Join(cond.SenderEmail, ", "))
			}
			if len(cond.SenderDomain) > 0 {
				fmt.Fprintf(&b, "\n   - Sender domains: %s", strings.Join(cond.SenderDomain, ", "))
			}
			if len(cond.SubjectContains) > 0 {
				fmt.Fprintf(&b, "\n   - Subject contains: %s", strings.Join(cond.SubjectContains, ", "))
			}
			if len(cond.BodyContains) > 0 {
				fmt.Fprintf(&b, "\n   - Body contains: %s", strings.Join(cond.BodyContains, ", "))
			}
		}

		b.WriteString("\n   Actions:")
		if rule.Actions.MarkImportant {
			b.WriteString("\n   - Mark as important")
		}
		if rule.Actions.PinConversation {
			b.WriteString("\n   - Pin conversation")
		}
		if rule.Actions.SkipInbox {
			b.WriteString("\n   - Skip inbox")
		}
		if rule.Actions.MarkReadAndLabel {
			b.WriteString("\n   - Mark as read and move to label")
		}
		if len(rule.Actions.ApplyLabels) > 0 {
			fmt.Fprintf(&b, "\n   - Apply labels: %s", strings.Join(rule.Actions.ApplyLabels, ", "))
		}

		if rule.AIPrompt != "" {
			fmt.Fprintf(&b, "\n   AI Instructions: %s", rule.AIPrompt)
		}

		b.WriteString("\n")
	}

	b.WriteString(`
Analyze the email and determine which actions should be applied based on the rules above.
Only apply actions when the email matches at least one rule's conditions.
If no rule conditions match, return no actions (all booleans false, empty labels) and explain that no rules matched.
When multiple rules match, apply actions only from the highest-priority (earliest listed) rule.
Do not invent labels or actions beyond what the matching rule specifies.`)

	return b.String()
}

// BuildUserPrompt renders the email content, truncating the body.
func BuildUserPrompt(email model.Email) string {
	body := email.Body
	marker := ""
	if len(body) > MaxBodyChars {
		cut := MaxBodyChars
		// Back off to a rune boundary so a multibyte character is never
		// split at the cut point.
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
		marker = "..."
	}

	return fmt.Sprintf(`Email to categorize:

From: %s
Subject: %s
Preview: %s

Full content:
%s%s

Based on the rules, what actions should be applied to this email?`,
		email.From, email.Subject, email.Snippet, body, marker)
}
