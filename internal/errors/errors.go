// Package errors provides centralized error definitions for the tribunal
// codebase: sentinel errors for the session and backend subsystems plus two
// semantic error types that map onto how failures surface to the operator.
//
// PreconditionError covers missing external requirements (backend binary,
// agent CLI, no active session). It carries remediation text shown to the
// operator and always means a non-zero exit for the offending command.
//
// ConcurrencyError covers the single-active-session constraint: a second
// `start` against a live lock. It is fatal for `start` but recoverable via
// `reset` or `attach`.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience so callers can import
// only this package for error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Session-related sentinel errors
var (
	// ErrSessionActive indicates a live session already holds the lock.
	ErrSessionActive = New("session already active")
	// ErrNoActiveSession indicates no session exists to attach to or advance.
	ErrNoActiveSession = New("no active session")
	// ErrSessionTerminated indicates an operation on a torn-down session.
	ErrSessionTerminated = New("session terminated")
)

// Backend- and agent-related sentinel errors
var (
	// ErrBackendUnavailable indicates the terminal backend binary is missing.
	ErrBackendUnavailable = New("terminal backend unavailable")
	// ErrUnknownBackend indicates an unrecognized backend kind in config.
	ErrUnknownBackend = New("unknown terminal backend")
	// ErrAgentUnavailable indicates an agent CLI is missing or not authenticated.
	ErrAgentUnavailable = New("agent CLI unavailable")
	// ErrViewportNotFound indicates a send targeted a viewport that no longer exists.
	ErrViewportNotFound = New("viewport not found")
)

// PreconditionError is a fatal error caused by a missing external requirement.
// Remediation holds operator-facing text describing how to fix it.
type PreconditionError struct {
	Op          string
	Remediation string
	cause       error
}

// NewPreconditionError creates a PreconditionError for the given operation.
func NewPreconditionError(op string, cause error, remediation string) *PreconditionError {
	return &PreconditionError{Op: op, Remediation: remediation, cause: cause}
}

// Error returns the error message.
func (e *PreconditionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.cause)
	}
	return e.Op
}

// Unwrap returns the underlying error.
func (e *PreconditionError) Unwrap() error { return e.cause }

// ConcurrencyError is returned when the single-active-session invariant would
// be violated. HolderPID identifies the process owning the live lock.
type ConcurrencyError struct {
	Project   string
	HolderPID int
	cause     error
}

// NewConcurrencyError creates a ConcurrencyError for the given project.
func NewConcurrencyError(project string, holderPID int, cause error) *ConcurrencyError {
	return &ConcurrencyError{Project: project, HolderPID: holderPID, cause: cause}
}

// Error returns the error message.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("project %s: %v (held by pid %d)", e.Project, e.cause, e.HolderPID)
}

// Unwrap returns the underlying error.
func (e *ConcurrencyError) Unwrap() error { return e.cause }

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return As(err, &pe)
}

// IsConcurrency reports whether err is (or wraps) a ConcurrencyError.
func IsConcurrency(err error) bool {
	var ce *ConcurrencyError
	return As(err, &ce)
}

// Remediation extracts operator-facing remediation text from err, or returns
// an empty string if err carries none.
func Remediation(err error) string {
	var pe *PreconditionError
	if As(err, &pe) {
		return pe.Remediation
	}
	return ""
}
