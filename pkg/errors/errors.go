// Package errors provides structured error handling for veralog.
// It implements errors with codes, context, and stack traces.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Validation errors (1xx): malformed or inconsistent uncertainty fields.
	CodeMissingTimestamp   Code = "V101"
	CodeMissingActivity    Code = "V102"
	CodeInvalidInterval    Code = "V103"
	CodeInvalidWeights     Code = "V104"
	CodeInvalidProbability Code = "V105"
	CodeInvalidXES         Code = "V106"

	// Structural errors (2xx): net invariant violations. Fatal, not retried.
	CodeCyclicNet   Code = "S201"
	CodeUnsoundNet  Code = "S202"
	CodeNoSuchPlace Code = "S203"

	// Integration errors (3xx): numerical integration did not converge.
	CodeNoConvergence Code = "I301"

	// System errors (4xx).
	CodeContextCanceled Code = "E401"

	// Unknown.
	CodeUnknown Code = "E999"
)

// Error is the base error type for all veralog errors.
type Error struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame represents a stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// captureStack captures the current stack trace.
func captureStack(skip int) []Frame {
	var frames []Frame
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	pcs = pcs[:n]

	cf := runtime.CallersFrames(pcs)
	for {
		frame, more := cf.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// FormatStack returns a formatted stack trace.
func (e *Error) FormatStack() string {
	var sb strings.Builder
	for _, f := range e.StackTrace {
		sb.WriteString(fmt.Sprintf("  at %s\n    %s:%d\n", f.Function, f.File, f.Line))
	}
	return sb.String()
}

// --- Convenience constructors ---

// MissingTimestamp reports an event without a usable timestamp.
func MissingTimestamp(position int) *Error {
	return New(CodeMissingTimestamp, "event has no timestamp or timestamp interval").
		WithContext("position", position)
}

// MissingActivity reports an event without a label alternative.
func MissingActivity(position int) *Error {
	return New(CodeMissingActivity, "event has no activity label").
		WithContext("position", position)
}

// InvalidInterval reports a timestamp interval with min > max.
func InvalidInterval(position int, min, max int64) *Error {
	return New(CodeInvalidInterval, "timestamp interval lower bound exceeds upper bound").
		WithContext("position", position).
		WithContext("min", min).
		WithContext("max", max)
}

// InvalidWeights reports label probabilities that do not sum to 1.
func InvalidWeights(position int, sum float64) *Error {
	return New(CodeInvalidWeights, "activity label probabilities do not sum to 1").
		WithContext("position", position).
		WithContext("sum", sum)
}

// InvalidProbability reports a missing-probability outside (0, 1].
func InvalidProbability(position int, value float64) *Error {
	return New(CodeInvalidProbability, "missing probability outside (0, 1]").
		WithContext("position", position).
		WithContext("value", value)
}

// CyclicNet reports a behavior net that violates the acyclicity invariant.
func CyclicNet(transition string) *Error {
	return New(CodeCyclicNet, "behavior net contains a cycle").
		WithContext("transition", transition)
}

// UnsoundNet reports a behavior net that violates the workflow structure
// the enumerator relies on.
func UnsoundNet(element, reason string) *Error {
	return New(CodeUnsoundNet, "behavior net is not a workflow net").
		WithContext("element", element).
		WithContext("reason", reason)
}

// NoConvergence reports an integration that exhausted its iteration budget.
// The best estimate and its error bound travel with the error.
func NoConvergence(estimate, errEst float64) *Error {
	return New(CodeNoConvergence, "numerical integration did not converge").
		WithContext("estimate", estimate).
		WithContext("error_estimate", errEst)
}

// ContextCanceled creates a cancellation error.
func ContextCanceled(operation string) *Error {
	return New(CodeContextCanceled, "operation canceled").
		WithContext("operation", operation)
}

// --- Error checking utilities ---

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) Code {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Code
	}
	return CodeUnknown
}

// IsValidation reports whether the error is a validation error.
func IsValidation(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "V")
}

// IsStructural reports whether the error is a net invariant violation.
func IsStructural(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "S")
}

// IsIntegration reports whether the error is a convergence failure.
func IsIntegration(err error) bool {
	return strings.HasPrefix(string(GetCode(err)), "I")
}

// MultiError collects multiple errors.
type MultiError struct {
	Errors []error
}

// Error implements the error interface.
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(m.Errors)))
	for i, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if any errors were collected.
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// Combined returns nil if no errors, the single error if one, or the MultiError.
func (m *MultiError) Combined() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	default:
		return m
	}
}
