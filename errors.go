package entityhistory

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested history record does not exist.
	ErrNotFound = errors.New("entityhistory: record not found")

	// ErrConversion is returned when an entity state cannot be converted to or
	// from its column representation.
	ErrConversion = errors.New("entityhistory: state conversion failed")
)

// NotFoundError represents an error when a history record is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("entityhistory: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("entityhistory: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the history table label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given history table.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConversionError represents a failure to encode or decode an entity state.
type ConversionError struct {
	Converter string // Converter type name
	Direction string // "encode" or "decode"
	Err       error
}

// Error returns the error string.
func (e *ConversionError) Error() string {
	return fmt.Sprintf("entityhistory: %s %s state: %v", e.Converter, e.Direction, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ConversionError.
func (e *ConversionError) Is(err error) bool {
	return err == ErrConversion
}

// NewEncodeError returns a ConversionError for a failed state encoding.
func NewEncodeError(converter string, err error) *ConversionError {
	return &ConversionError{Converter: converter, Direction: "encode", Err: err}
}

// NewDecodeError returns a ConversionError for a failed state decoding.
func NewDecodeError(converter string, err error) *ConversionError {
	return &ConversionError{Converter: converter, Direction: "decode", Err: err}
}

// IsConversionError returns true if the error is a ConversionError.
func IsConversionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConversionError
	return errors.As(err, &e)
}
