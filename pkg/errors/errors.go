// Package errors provides structured error types for the prereqgraph engine
// and its adapters.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-facing messages that never leak internal graph details
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The three graph-level failure classes are:
//   - INVALID_GRAPH: the raw prerequisite data violates a structural rule
//   - MISSING_DATA: no prerequisite record exists for a course
//   - CYCLE_DETECTED: a cycle reached the evaluator or layout engine
//
// The remaining codes classify adapter failures (input, lookup, network).
//
// # Usage
//
//	err := errors.GraphValidation([]string{"n1", "n2"}, "duplicate edge %s -> %s", "n1", "n2")
//	if errors.Is(err, errors.ErrCodeInvalidGraph) {
//	    // show the generic "could not load prerequisites" message
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch course %d", id)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph errors
	ErrCodeInvalidGraph  Code = "INVALID_GRAPH"
	ErrCodeMissingData   Code = "MISSING_DATA"
	ErrCodeCycleDetected Code = "CYCLE_DETECTED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeCourseNotFound Code = "COURSE_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code     // Machine-readable error code
	Message string   // Human-readable message
	IDs     []string // Offending node ids, if any
	Cause   error    // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if len(e.IDs) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.IDs, ", "))
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// GraphValidation reports a structural defect in raw prerequisite data.
// The ids name the nodes involved so the defect can be traced upstream.
func GraphValidation(ids []string, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidGraph,
		Message: fmt.Sprintf(format, args...),
		IDs:     ids,
	}
}

// MissingData reports that no prerequisite record exists for a course.
// This is distinct from a course whose record is an empty graph.
func MissingData(courseID int) *Error {
	return &Error{
		Code:    ErrCodeMissingData,
		Message: fmt.Sprintf("no prerequisite data available for course %d", courseID),
	}
}

// CycleDetected reports a cycle found by a consumer of an already-built graph.
func CycleDetected(ids []string, cause error) *Error {
	return &Error{
		Code:    ErrCodeCycleDetected,
		Message: "prerequisite graph contains a cycle",
		IDs:     ids,
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IDs returns the offending node ids carried by err, or nil.
func IDs(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.IDs
	}
	return nil
}

// UserMessage returns a user-friendly message for the error.
//
// Graph defects are upstream data problems the student cannot act on, so they
// collapse to a generic message. MISSING_DATA keeps its own wording. Other
// *Error values return their message without the code prefix, and plain
// errors are returned as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Code {
	case ErrCodeInvalidGraph, ErrCodeCycleDetected:
		return "prerequisites for this course could not be loaded, please try again later"
	case ErrCodeMissingData:
		return "no prerequisite data available"
	}
	return e.Message
}

// Retryable reports whether a failure with this code may succeed on a later
// attempt. Validation and cycle errors are retryable only in the sense that the
// upstream data may be fixed, so the UI offers a retry affordance for them.
func Retryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeTimeout, ErrCodeInvalidGraph, ErrCodeCycleDetected:
		return true
	}
	return false
}
