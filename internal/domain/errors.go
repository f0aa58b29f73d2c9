package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled marks a job that was stopped on user request. It is a
	// terminal outcome, not a failure.
	ErrCancelled = errors.New("cancelled by user")

	// ErrJobActive is returned when a conversion is requested while another
	// job is still running.
	ErrJobActive = errors.New("another conversion is already running")

	ErrNotFound = errors.New("resource not found")
)

// ProbeError reports an input that could not be inspected: unreadable file,
// unrecognized container, or a missing ffprobe binary.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ValidationError rejects an out-of-range or contradictory parameter. Field
// always names the offending parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// LaunchError reports an external tool that could not be started at all
// (not found, permission denied).
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ProcessFailure reports an external tool that started but exited non-zero
// or crashed. Stderr holds the tail of the captured error output.
type ProcessFailure struct {
	Program  string
	ExitCode int
	Stderr   string
}

func (e *ProcessFailure) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Program, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Program, e.ExitCode)
}
