package model

import "time"

// Account is a connected Gmail mailbox with its OAuth credentials and the
// poll watermark of the last successful listing call.
type Account struct {
	ID           string     `json:"id"`
	UserID       int        `json:"user_id"`
	Email        string     `json:"email"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	TokenExpiry  time.Time  `json:"token_expiry"`
	LastCheck    *time.Time `json:"last_check,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Credentials is the token pair handed to the Gmail client.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
