package pdbe

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned by Extract when the upstream payload does
// not have the expected compound summary shape.
var ErrMalformedResponse = errors.New("malformed compound summary response")

// FetchError represents a failed request to the compound summary endpoint:
// either a transport error (Err set, StatusCode zero) or a non-200 response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
