package model

// Decision is the engine's output for one email: which authorized actions
// to apply, with reasoning and a confidence score in [0,1]. Decisions are
// persisted as immutable log entries and never updated in place.
type Decision struct {
	ShouldMarkImportant    bool     `json:"shouldMarkImportant"`
	ShouldPinConversation  bool     `json:"shouldPinConversation"`
	ShouldSkipInbox        bool     `json:"shouldSkipInbox"`
	ShouldMarkReadAndLabel bool     `json:"shouldMarkReadAndLabel"`
	SuggestedLabels        []string `json:"suggestedLabels"`
	Reasoning              string   `json:"reasoning"`
	Confidence             float64  `json:"confidence"`
}

// NoOpDecision returns the canonical no-action decision used whenever no
// rule condition matched. Confidence is 1.0: doing nothing is certain.
func NoOpDecision(reasoning string) Decision {
	return Decision{
		SuggestedLabels: []string{},
		Reasoning:       reasoning,
		Confidence:      1.0,
	}
}
