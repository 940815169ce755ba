package model

import "time"

// RunStatus is the tri-state outcome of one processing pass.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusError   RunStatus = "error"
)

// ProcessingFailure records one failed item inside a pass. Failures are
// aggregated into the summary instead of being swallowed.
type ProcessingFailure struct {
	AccountID string `json:"account_id"`
	MessageID string `json:"message_id,omitempty"`
	Cause     string `json:"cause"`
	ErrorType string `json:"error_type,omitempty"`
}

// RunSummary is the aggregate result of one execution of the processing
// job across all accounts.
type RunSummary struct {
	StartedAt      time.Time           `json:"started_at"`
	FinishedAt     time.Time           `json:"finished_at"`
	Status         RunStatus           `json:"status"`
	ProcessedCount int                 `json:"processed_count"`
	ErrorCount     int                 `json:"error_count"`
	Message        string              `json:"message,omitempty"`
	Failures       []ProcessingFailure `json:"failures,omitempty"`
}

// EmailLog is the persisted snapshot of one categorization decision and
// the actions actually applied to the message.
type EmailLog struct {
	ID             string    `json:"id"`
	AccountID      string    `json:"account_id"`
	MessageID      string    `json:"message_id"`
	Sender         string    `json:"sender"`
	Subject        string    `json:"subject"`
	Snippet        string    `json:"snippet"`
	AppliedActions []string  `json:"applied_actions"`
	RuleMatched    string    `json:"rule_matched,omitempty"`
	Decision       Decision  `json:"decision"`
	ProcessedAt    time.Time `json:"processed_at"`
}
