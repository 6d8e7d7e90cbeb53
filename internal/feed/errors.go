package feed

import (
	"errors"
	"fmt"
)

// ErrMissingLocator is returned when a refresh is attempted with no feed
// address configured or supplied.
var ErrMissingLocator = errors.New("no feed locator configured")

// TransportError reports a failed round-trip to the feed endpoint. Status is
// the HTTP status code, or 0 when the request never produced a response.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("feed request failed with status %d", e.Status)
	}
	return fmt.Sprintf("feed request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FormatError reports a payload that is not a recognizable published feed:
// either the wrapper call is absent or the embedded JSON is undecodable.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("payload is not a published feed: %s", e.Reason)
}
