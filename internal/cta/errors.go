package cta

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamFetch covers network failures, non-2xx statuses, malformed
	// bodies and upstream-reported errors.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrUpstreamTimeout is returned when a call exceeds its deadline.
	ErrUpstreamTimeout = errors.New("upstream request timed out")
)

// APIError is an error reported inside a well-formed Train Tracker body
// (non-null errNm).
type APIError struct {
	Code string
	Name string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("train tracker error %s: %s", e.Code, e.Name)
}

func (e *APIError) Unwrap() error {
	return ErrUpstreamFetch
}
