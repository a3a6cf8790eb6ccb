// Package apperrors implements the error taxonomy of spec §7: a closed
// set of error kinds, each carrying a retry policy, that every other
// package wraps its failures in so that AgentLoop, ToolExecutor, and
// CycleManager can branch on kind rather than on string matching.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind is one of the taxonomy entries in spec §7.
type Kind string

const (
	KindArgMissing       Kind = "arg_missing"
	KindArgInvalid       Kind = "arg_invalid"
	KindNotFound         Kind = "not_found"
	KindIO               Kind = "io"
	KindToolTimeout      Kind = "tool_timeout"
	KindBackendTransport Kind = "backend_transport"
	KindBackendDecode    Kind = "backend_decode"
	KindModelUnavailable Kind = "model_unavailable"
	KindStepCap          Kind = "step_cap"
	KindCancelled        Kind = "cancelled"
	KindValidationError  Kind = "validation_error"
	KindPlanningFailed   Kind = "planning_failed"
	KindInsufficientRAM  Kind = "insufficient_ram"
)

// Retryable reports whether the caller (per spec §7's Policy column) is
// expected to retry an error of this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindBackendTransport, KindModelUnavailable:
		return true
	default:
		return false
	}
}

// Error is the concrete error type every package returns for taxonomy
// failures; it wraps an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err (or something it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or "" if err is not a taxonomy error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
