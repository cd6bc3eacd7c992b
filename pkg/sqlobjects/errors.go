package sqlobjects

import (
	"github.com/rzpsarthak13/sqlobjects/internal/core"
	"github.com/rzpsarthak13/sqlobjects/internal/table"
)

// Sentinel errors, usable with errors.Is.
var (
	ErrNoID                 = table.ErrNoID
	ErrMissingRequiredField = core.ErrMissingRequiredField
	ErrUnsupportedValueType = core.ErrUnsupportedValueType
	ErrNoSuchIdentifier     = core.ErrNoSuchIdentifier
	ErrQueryFailed          = core.ErrQueryFailed
)

// Typed errors, usable with errors.As.
type (
	MissingFieldError    = core.MissingFieldError
	UnsupportedTypeError = core.UnsupportedTypeError
	NotFoundError        = core.NotFoundError
	QueryError           = core.QueryError
	ErrorCode            = core.ErrorCode
)

// Failure classes of a QueryError.
const (
	Other               = core.Other
	UniqueViolation     = core.UniqueViolation
	ForeignKeyViolation = core.ForeignKeyViolation
	NotNullViolation    = core.NotNullViolation
	CheckViolation      = core.CheckViolation
)

// CodeOf returns the failure class of err, or Other when err is not a
// QueryError.
func CodeOf(err error) ErrorCode {
	return core.CodeOf(err)
}
