package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ClassifyError maps an error to (isRetryable, errorType). The type string
// ends up in the run summary's failure records, so it should stay stable.
func ClassifyError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	errStr := err.Error()

	// JSON decode errors: bad data, retrying will not help.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return false, "not_found"
	}
	if strings.Contains(errStr, "duplicate key") {
		return false, "duplicate_key"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	if strings.Contains(errStr, "credential refresh failed") {
		return false, "credential_refresh_failed"
	}
	if strings.Contains(errStr, "gmail api") {
		return true, "gmail_api_error"
	}
	if strings.Contains(errStr, "suggestion") {
		return true, "suggestion_error"
	}
	if strings.Contains(errStr, "circuit breaker is open") {
		return true, "suggestion_unavailable"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "timeout") {
		return true, "db_connection_error"
	}

	// Unknown: be conservative, do not retry.
	return false, "unknown_error"
}
