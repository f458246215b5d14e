package jobstatus

import (
	"errors"
	"fmt"
)

// ErrFetchFailed is the only error kind the status view distinguishes. Network
// failures, non-success responses and malformed payloads all match it.
var ErrFetchFailed = errors.New("fetch failed")

// FetchError describes one failed snapshot request.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("jobstatus: fetch: %v", e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("jobstatus: fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("jobstatus: fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is reports true for ErrFetchFailed so callers need not know the concrete type.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// asFetchFailed makes sure err matches ErrFetchFailed.
func asFetchFailed(err error) error {
	if err == nil {
		return ErrFetchFailed
	}
	if errors.Is(err, ErrFetchFailed) {
		return err
	}
	return &FetchError{Err: err}
}
