package model

// Email is the transient input to the categorization engine. It is never
// mutated here; mailbox mutations go through the Gmail client.
type Email struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Snippet string `json:"snippet"`
}

// PolledEmail is an Email together with its mailbox identity, as produced
// by one poll of an account.
type PolledEmail struct {
	AccountID string `json:"account_id"`
	MessageID string `json:"message_id"`
	Email
}
