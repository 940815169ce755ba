package engine

import (
	"regexp"
	"strings"

	"mailgenie/internal/model"
)

var angleAddrRe = regexp.MustCompile(`<(.+?)>`)

// ExtractSenderEmail derives a normalized lower-cased address from a From
// header: the token inside <...> if present, else the whole header.
func ExtractSenderEmail(from string) string {
	normalized := strings.ToLower(from)
	if m := angleAddrRe.FindStringSubmatch(normalized); m != nil {
		return m[1]
	}
	return normalized
}

// ExtractSenderDomain returns the part after "@", or "" when there is none.
func ExtractSenderDomain(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[i+1:]
	}
	return ""
}

// FindMatchingRule returns the first rule (callers pass rules pre-sorted by
// ascending priority) whose conditions match the email, or nil.
//
// A rule matches when ANY declared condition list has ANY element that is a
// case-insensitive containment match against the corresponding email field.
// Categories are OR'd together, matching the behavior users already rely on.
// Rules without conditions are AI-only and never match here.
func FindMatchingRule(email model.Email, rules []model.Rule) *model.Rule {
	subject := strings.ToLower(email.Subject)
	body := strings.ToLower(email.Body)

	senderEmail := ExtractSenderEmail(email.From)
	senderDomain := ExtractSenderDomain(senderEmail)

	for i := range rules {
		rule := &rules[i]
		cond := rule.Conditions
		if cond.IsEmpty() {
			continue
		}

		if containsAny(senderEmail, cond.SenderEmail) ||
			containsAny(senderDomain, cond.SenderDomain) ||
			containsAny(subject, cond.SubjectContains) ||
			containsAny(body, cond.BodyContains) {
			return rule
		}
	}

	return nil
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}
