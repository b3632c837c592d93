package client

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// ErrResponseTooLarge is wrapped by a TransportError whose body exceeded the size limit.
var ErrResponseTooLarge = errors.New("response body too large")

// TransportError is a network failure or a non-success status from the remote store.
// StatusCode is zero when no response was received (including timeouts).
type TransportError struct {
	Op         string
	StatusCode int
	RequestID  string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %d %s: %v", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: server error: %d %s - %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("%s: server error: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// maxErrorBodyLen caps how much of an error body is kept on a TransportError.
const maxErrorBodyLen = 200

// truncate shortens a string to at most maxLen bytes, adding "..." if truncated.
// It never splits a UTF-8 sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	ellipsis := "..."
	if maxLen < len(ellipsis) {
		ellipsis = ""
	}
	cut := maxLen - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}
