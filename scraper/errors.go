package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned before any network activity when the
	// target is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrFetchFailed matches every *FetchError. Callers that only need to
	// know "the page could not be retrieved" should test for this.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrBodyTooLarge is wrapped by a FetchError when the response exceeds
	// the configured body cap. A truncated page is never returned.
	ErrBodyTooLarge = errors.New("response body too large")
)

// FailureKind classifies why a fetch failed. It is for logs and
// diagnostics; callers are expected to treat all kinds alike.
type FailureKind string

const (
	FailureTimeout FailureKind = "timeout"
	FailureStatus  FailureKind = "status"
	FailureNetwork FailureKind = "network"
)

// FetchError describes the final failed attempt of a fetch.
type FetchError struct {
	URL        string
	Kind       FailureKind
	StatusCode int // set only for FailureStatus
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s after %d attempt(s)", e.URL, e.Kind, e.Attempts)
	if e.Kind == FailureStatus {
		msg = fmt.Sprintf("fetch %s: HTTP %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes every FetchError match ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
