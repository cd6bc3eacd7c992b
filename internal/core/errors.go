package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredField is returned when a row lacks a value for a field
	// that is neither nullable nor defaulted.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrUnsupportedValueType is returned when a value cannot be rendered as an SQL literal.
	ErrUnsupportedValueType = errors.New("unsupported value type")

	// ErrNoSuchIdentifier is returned when a lookup by identifier yields no row.
	ErrNoSuchIdentifier = errors.New("no such identifier")

	// ErrQueryFailed is returned when the database rejects a statement.
	ErrQueryFailed = errors.New("query failed")
)

// MissingFieldError names the field and table of a failed decode.
type MissingFieldError struct {
	Table string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: table %q requires field %q", ErrMissingRequiredField, e.Table, e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// UnsupportedTypeError names the value that could not be escaped.
type UnsupportedTypeError struct {
	Value any
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s: %T (%v)", ErrUnsupportedValueType, e.Value, e.Value)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedValueType
}

// NotFoundError names the identifier that yielded no row.
type NotFoundError struct {
	Table string
	ID    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no row in %q with id %v", ErrNoSuchIdentifier, e.Table, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNoSuchIdentifier
}

// ErrorCode classifies a database failure.
type ErrorCode string

const (
	Other               ErrorCode = "OTHER"
	UniqueViolation     ErrorCode = "UNIQUE_VIOLATION"
	ForeignKeyViolation ErrorCode = "FOREIGN_KEY_VIOLATION"
	NotNullViolation    ErrorCode = "NOT_NULL_VIOLATION"
	CheckViolation      ErrorCode = "CHECK_VIOLATION"
)

// QueryError wraps a driver failure together with the statement that caused it.
type QueryError struct {
	// Query is the SQL text that failed.
	Query string

	// Code classifies the failure.
	Code ErrorCode

	// Constraint is the violated constraint name, when the driver reports it.
	Constraint string

	// Message is a short user-facing description of the failure.
	Message string

	// Err is the underlying driver error.
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v [sql: %s]", ErrQueryFailed, e.Err, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

// CodeOf reports the ErrorCode of err, or Other when err is not a QueryError.
func CodeOf(err error) ErrorCode {
	var qerr *QueryError
	if errors.As(err, &qerr) {
		return qerr.Code
	}
	return Other
}
