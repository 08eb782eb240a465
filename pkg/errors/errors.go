/*
Copyright © 2025 the proxmox-node-source authors
SPDX-License-Identifier: GPL-3.0-or-later
*/

package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a discovery failure.
type ErrorCode string

const (
	// ErrCodeAuthFailed indicates the Proxmox API rejected the credentials.
	// Fatal: no inventory can be built without a session.
	ErrCodeAuthFailed ErrorCode = "AUTH_FAILED"
	// ErrCodeEnumerationFailed indicates cluster node or guest listing failed.
	// Fatal: a partial enumeration would silently drop hosts.
	ErrCodeEnumerationFailed ErrorCode = "ENUMERATION_FAILED"
	// ErrCodeGuestFetchFailed indicates a per-guest config or status fetch failed.
	// Recoverable: the affected record is emitted with fields omitted.
	ErrCodeGuestFetchFailed ErrorCode = "GUEST_FETCH_FAILED"
	// ErrCodeAgentUnavailable indicates the QEMU guest agent did not respond.
	// Recoverable: IP/OS resolution moves to the next fallback strategy.
	ErrCodeAgentUnavailable ErrorCode = "AGENT_UNAVAILABLE"
	// ErrCodeConfigParseFailed indicates a guest configuration field could not
	// be parsed. Recoverable: the specific attribute is omitted.
	ErrCodeConfigParseFailed ErrorCode = "CONFIG_PARSE_FAILED"
	// ErrCodeSerializationFailed indicates the requested output format is
	// unsupported or encoding failed. Fatal: no document is emitted.
	ErrCodeSerializationFailed ErrorCode = "SERIALIZATION_FAILED"
)

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new StructuredError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the error code carried by err, or an empty code when err
// is not a StructuredError.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsFatal reports whether err must abort the discovery run before any
// output is produced. Authentication, enumeration, and serialization
// failures are fatal; everything else degrades a single record.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrCodeAuthFailed, ErrCodeEnumerationFailed, ErrCodeSerializationFailed:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether err is absorbed at the point of occurrence,
// degrading one record instead of aborting the run.
func IsRecoverable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeGuestFetchFailed, ErrCodeAgentUnavailable, ErrCodeConfigParseFailed:
		return true
	default:
		return false
	}
}
