package util

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		errType   string
	}{
		{"nil", nil, false, ""},
		{"no rows", pgx.ErrNoRows, false, "not_found"},
		{"net timeout", timeoutErr{}, true, "network_timeout"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"credential refresh", fmt.Errorf("credential refresh failed: invalid_grant"), false, "credential_refresh_failed"},
		{"gmail", fmt.Errorf("gmail api GET /users/me/messages: status 500: boom"), true, "gmail_api_error"},
		{"suggestion", fmt.Errorf("suggestion call: status 502"), true, "suggestion_error"},
		{"breaker", errors.New("circuit breaker is open"), true, "suggestion_unavailable"},
		{"unknown", errors.New("wat"), false, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, errType := ClassifyError(tt.err)
			if retryable != tt.retryable || errType != tt.errType {
				t.Errorf("ClassifyError(%v) = (%v, %q), want (%v, %q)",
					tt.err, retryable, errType, tt.retryable, tt.errType)
			}
		})
	}
}
