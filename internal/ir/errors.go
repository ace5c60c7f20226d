package ir

import (
	"errors"
	"fmt"
)

// Error is the single error kind raised by the engine, the registry and the
// parser. Code identifies the category so callers can branch without
// matching message text.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Field is the column involved, if any.
	Field string

	// Details contains additional context (e.g. the valid operator set).
	Details map[string]string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeAlreadyImported indicates an import into a populated dataset.
	ErrCodeAlreadyImported ErrorCode = "ALREADY_IMPORTED"

	// ErrCodeUnknownImportType indicates an import type with no decoder.
	ErrCodeUnknownImportType ErrorCode = "UNKNOWN_IMPORT_TYPE"

	// ErrCodeMalformedPayload indicates import data that could not be decoded.
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"

	// ErrCodeInvalidPlugin indicates a plugin missing a required capability.
	ErrCodeInvalidPlugin ErrorCode = "INVALID_PLUGIN"

	// ErrCodeUnknownPlugin indicates no plugin is registered under a name.
	ErrCodeUnknownPlugin ErrorCode = "UNKNOWN_PLUGIN"

	// ErrCodeUnknownOperator indicates an operator the field's plugin lacks.
	ErrCodeUnknownOperator ErrorCode = "UNKNOWN_OPERATOR"

	// ErrCodeUnknownRow indicates an internal id outside the dataset.
	ErrCodeUnknownRow ErrorCode = "UNKNOWN_ROW"

	// ErrCodeUnknownColumn indicates a column with no header.
	ErrCodeUnknownColumn ErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeNotEditable indicates an edit to a read-only column.
	ErrCodeNotEditable ErrorCode = "NOT_EDITABLE"

	// ErrCodeUniqueViolation indicates an edit duplicating a unique value.
	ErrCodeUniqueViolation ErrorCode = "UNIQUE_VIOLATION"

	// ErrCodeInvalidValue indicates an edit value the column's plugin rejects.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates an Error with a formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithField returns e with Field set.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// IsCode returns true if err (or anything it wraps) is an *Error with code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
