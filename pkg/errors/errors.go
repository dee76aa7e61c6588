// Package errors provides error wrapping utilities and the error categories
// surfaced by the camera layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error categories. Callers match them with errors.Is.
var (
	// ErrTypeMismatch reports a property whose declared data type differs
	// from the one the reader expects.
	ErrTypeMismatch = stderrors.New("property data type mismatch")

	// ErrPropertyUnavailable reports a property the device does not expose.
	ErrPropertyUnavailable = stderrors.New("property unavailable")

	// ErrOutOfRange reports an index outside [0, count) for cameras,
	// volumes or directory entries.
	ErrOutOfRange = stderrors.New("index out of range")

	// ErrNotAFolder reports a folder-only operation on a file entry.
	ErrNotAFolder = stderrors.New("not a directory")
)

// Wrap wraps an error with additional context information.
// If err is nil, it returns nil without wrapping.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// SDKError is a failed call into the camera SDK. It carries the numeric
// status code and the operation that issued the call.
type SDKError struct {
	Message string
	Code    uint32
	Method  string

	// category is matched by Is; nil for uncategorised SDK failures.
	category error
}

// NewSDKError builds an SDKError for code raised while executing method.
func NewSDKError(message string, code uint32, method string) *SDKError {
	return &SDKError{Message: message, Code: code, Method: method}
}

// WithCategory tags the error so errors.Is(err, category) holds.
func (e *SDKError) WithCategory(category error) *SDKError {
	e.category = category
	return e
}

func (e *SDKError) Error() string {
	s := fmt.Sprintf("%s (Error %d [0x%X]", e.Message, e.Code, e.Code)
	if e.Method != "" {
		s += " in method " + e.Method
	}
	return s + ")"
}

// Is reports whether target is the category this error was tagged with.
func (e *SDKError) Is(target error) bool {
	return e.category != nil && e.category == target
}

// OutOfRange returns an ErrOutOfRange error describing what overflowed.
func OutOfRange(what string, index, count int) error {
	return fmt.Errorf("%s %d (count %d): %w", what, index, count, ErrOutOfRange)
}

// IsSDKError reports whether err (or anything it wraps) is an SDKError.
func IsSDKError(err error) bool {
	var sdkErr *SDKError
	return stderrors.As(err, &sdkErr)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
