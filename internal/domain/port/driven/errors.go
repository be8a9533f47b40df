package driven

import (
	"errors"
	"fmt"
)

// ErrWebhookNotFound is returned when upstream does not know the referenced
// webhook.
var ErrWebhookNotFound = errors.New("webhook not found")

// StatusError is returned by AirtableClient when upstream answers with a
// non-2xx status. Body holds the raw response for logging only.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
}

// TransportError is returned by AirtableClient when the request could not be
// completed at all (dial, timeout, cancellation, malformed response).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
