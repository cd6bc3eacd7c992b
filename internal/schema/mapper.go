package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the coercion class of a database column type.
type Kind int

const (
	// KindText values are passed through unchanged.
	KindText Kind = iota

	// KindInt values are coerced to int64.
	KindInt

	// KindFloat values are coerced to float64.
	KindFloat

	// KindBool values are coerced to bool.
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// TypeMapper classifies declared column types and coerces raw driver values.
type TypeMapper struct{}

// NewTypeMapper creates a new type mapper.
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{}
}

// Classify returns the Kind of a declared database type such as "int4",
// "numeric(10,2)", "BIGINT" or "tinyint(1)".
func (tm *TypeMapper) Classify(dbType string) Kind {
	t := strings.ToLower(strings.TrimSpace(dbType))

	// MySQL declares booleans as tinyint(1).
	if t == "tinyint(1)" {
		return KindBool
	}

	// Remove size/precision information (e.g., numeric(10,2) -> numeric)
	base := t
	if idx := strings.Index(t, "("); idx > 0 {
		base = strings.TrimSpace(t[:idx])
	}
	base = strings.TrimSuffix(base, " unsigned")

	switch base {
	case "int", "int2", "int4", "int8", "integer", "smallint", "bigint", "tinyint", "mediumint",
		"serial", "serial2", "serial4", "serial8", "smallserial", "bigserial":
		return KindInt
	case "numeric", "decimal", "float", "float4", "float8", "real", "double", "double precision", "money":
		return KindFloat
	case "bool", "boolean":
		return KindBool
	default:
		return KindText
	}
}

// Kinds classifies every entry of a column name to declared type map.
func (tm *TypeMapper) Kinds(types map[string]string) map[string]Kind {
	kinds := make(map[string]Kind, len(types))
	for column, dbType := range types {
		kinds[column] = tm.Classify(dbType)
	}
	return kinds
}

// Coerce converts a raw driver value to the Go type of kind.
// nil stays nil; KindText values are returned unchanged.
func (tm *TypeMapper) Coerce(value any, kind Kind) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch kind {
	case KindInt:
		return tm.toInt64(value)
	case KindFloat:
		return tm.toFloat64(value)
	case KindBool:
		return tm.toBool(value)
	default:
		return value, nil
	}
}

// Helper conversion functions

func (tm *TypeMapper) toInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return tm.toInt64(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("cannot convert %d to int64: out of range", v)
		}
		return int64(v), nil
	case float32:
		return tm.toInt64(float64(v))
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("cannot convert %v to int64 without truncation", v)
		}
		return int64(v), nil
	case []byte:
		return tm.toInt64(string(v))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to int64: %w", v, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

func (tm *TypeMapper) toFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return tm.toFloat64(string(v))
	case string:
		// money renders with a currency symbol and group separators
		s := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(v))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string %q to float64: %w", v, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func (tm *TypeMapper) toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case []byte:
		return tm.toBool(string(v))
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "t", "true", "1", "y", "yes":
			return true, nil
		case "f", "false", "0", "n", "no":
			return false, nil
		default:
			return false, fmt.Errorf("cannot convert string %q to bool", v)
		}
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}
