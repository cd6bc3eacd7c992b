// Package query composes SQL statements from escaped identifiers and values.
//
// Every builder takes a core.Escaper so that quoting follows the dialect of the
// connection the statement will run on. Nothing in this package talks to a database.
package query

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// Raw is a pre-escaped SQL fragment. It is emitted verbatim and never quoted.
type Raw string

// EscapeValue renders v as an SQL literal.
func EscapeValue(esc core.Escaper, v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case Raw:
		return string(val), nil
	case string:
		return esc.EscapeLiteral(val), nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return formatFloat(float64(val), 32, v)
	case float64:
		return formatFloat(val, 64, v)
	case uuid.UUID:
		return esc.EscapeLiteral(val.String()), nil
	case time.Time:
		return esc.EscapeLiteral(val.Format(time.RFC3339Nano)), nil
	case *string:
		return escapePointer(esc, val)
	case *int:
		return escapePointer(esc, val)
	case *int64:
		return escapePointer(esc, val)
	case *float64:
		return escapePointer(esc, val)
	case *bool:
		return escapePointer(esc, val)
	case *time.Time:
		return escapePointer(esc, val)
	case *uuid.UUID:
		return escapePointer(esc, val)
	default:
		return "", &core.UnsupportedTypeError{Value: v}
	}
}

func escapePointer[P any](esc core.Escaper, p *P) (string, error) {
	if p == nil {
		return "NULL", nil
	}
	return EscapeValue(esc, *p)
}

func formatFloat(f float64, bits int, orig any) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", &core.UnsupportedTypeError{Value: orig}
	}
	return strconv.FormatFloat(f, 'f', -1, bits), nil
}

// EscapeIdentifier quotes a table or column name.
func EscapeIdentifier(esc core.Escaper, name string) string {
	return esc.EscapeIdentifier(name)
}

// EscapeIdentifiers quotes every name in names.
func EscapeIdentifiers(esc core.Escaper, names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = esc.EscapeIdentifier(name)
	}
	return quoted
}

// EscapeValues renders every value in values, stopping at the first failure.
func EscapeValues(esc core.Escaper, values []any) ([]string, error) {
	escaped := make([]string, len(values))
	for i, v := range values {
		s, err := EscapeValue(esc, v)
		if err != nil {
			return nil, err
		}
		escaped[i] = s
	}
	return escaped, nil
}
