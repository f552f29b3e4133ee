package model

import "fmt"

// ValidationError reports malformed input. Always fatal to the call that
// raised it, raised before any network activity, never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ResolutionError means no seed entity could be resolved to an
// identifier, so no graph can be produced at all.
type ResolutionError struct {
	Msg string
}

func (e *ResolutionError) Error() string {
	return e.Msg
}

// TransientFetchError wraps a single failed query against the external
// source. It is absorbed at the point of the call and degrades the
// result; it never aborts a crawl.
type TransientFetchError struct {
	Op  string
	Err error
}

func (e *TransientFetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientFetchError) Unwrap() error {
	return e.Err
}
