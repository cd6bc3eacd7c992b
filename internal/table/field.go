package table

import (
	"fmt"
	"time"

	"github.com/rzpsarthak13/sqlobjects/internal/schema"
)

// Field describes one column of a record type: how to read it from and write
// it to the record's data struct, and how the column behaves when unset.
type Field[T any] struct {
	// Name is the column name.
	Name string

	// Get returns the column value of data. A nil result is written as NULL,
	// or omitted from INSERTs when HasDefault is set.
	Get func(data *T) any

	// Set stores a column value into data.
	Set func(data *T, value any) error

	// Nullable allows the column to be absent or NULL in a result row.
	Nullable bool

	// HasDefault marks columns the database fills in when they are omitted.
	HasDefault bool

	// Kind overrides the coercion class derived from the column's declared type.
	// KindText (the zero value) defers to table metadata.
	Kind schema.Kind
}

// AllowNull returns a copy of f that accepts NULL.
func (f Field[T]) AllowNull() Field[T] {
	f.Nullable = true
	return f
}

// ServerDefault returns a copy of f whose column has a database default.
func (f Field[T]) ServerDefault() Field[T] {
	f.HasDefault = true
	return f
}

var mapper = schema.NewTypeMapper()

// String declares a text column stored in a string.
func String[T any](name string, ptr func(*T) *string) Field[T] {
	return Field[T]{
		Name: name,
		Get:  func(d *T) any { return *ptr(d) },
		Set: func(d *T, v any) error {
			s, err := toString(v)
			if err != nil {
				return err
			}
			*ptr(d) = s
			return nil
		},
	}
}

// NullString declares a nullable text column stored in a *string.
func NullString[T any](name string, ptr func(*T) **string) Field[T] {
	return Field[T]{
		Name:     name,
		Nullable: true,
		Get: func(d *T) any {
			if p := *ptr(d); p != nil {
				return *p
			}
			return nil
		},
		Set: func(d *T, v any) error {
			if v == nil {
				*ptr(d) = nil
				return nil
			}
			s, err := toString(v)
			if err != nil {
				return err
			}
			*ptr(d) = &s
			return nil
		},
	}
}

// Int declares an integer column stored in an int64.
func Int[T any](name string, ptr func(*T) *int64) Field[T] {
	return Field[T]{
		Name: name,
		Kind: schema.KindInt,
		Get:  func(d *T) any { return *ptr(d) },
		Set: func(d *T, v any) error {
			i, err := mapper.Coerce(v, schema.KindInt)
			if err != nil {
				return err
			}
			if i == nil {
				return fmt.Errorf("column %s: cannot store NULL in int64", name)
			}
			*ptr(d) = i.(int64)
			return nil
		},
	}
}

// NullInt declares a nullable integer column stored in an *int64.
func NullInt[T any](name string, ptr func(*T) **int64) Field[T] {
	return Field[T]{
		Name:     name,
		Nullable: true,
		Kind:     schema.KindInt,
		Get: func(d *T) any {
			if p := *ptr(d); p != nil {
				return *p
			}
			return nil
		},
		Set: func(d *T, v any) error {
			if v == nil {
				*ptr(d) = nil
				return nil
			}
			i, err := mapper.Coerce(v, schema.KindInt)
			if err != nil {
				return err
			}
			n := i.(int64)
			*ptr(d) = &n
			return nil
		},
	}
}

// Float declares a floating point column stored in a float64.
func Float[T any](name string, ptr func(*T) *float64) Field[T] {
	return Field[T]{
		Name: name,
		Kind: schema.KindFloat,
		Get:  func(d *T) any { return *ptr(d) },
		Set: func(d *T, v any) error {
			f, err := mapper.Coerce(v, schema.KindFloat)
			if err != nil {
				return err
			}
			if f == nil {
				return fmt.Errorf("column %s: cannot store NULL in float64", name)
			}
			*ptr(d) = f.(float64)
			return nil
		},
	}
}

// NullFloat declares a nullable floating point column stored in a *float64.
func NullFloat[T any](name string, ptr func(*T) **float64) Field[T] {
	return Field[T]{
		Name:     name,
		Nullable: true,
		Kind:     schema.KindFloat,
		Get: func(d *T) any {
			if p := *ptr(d); p != nil {
				return *p
			}
			return nil
		},
		Set: func(d *T, v any) error {
			if v == nil {
				*ptr(d) = nil
				return nil
			}
			f, err := mapper.Coerce(v, schema.KindFloat)
			if err != nil {
				return err
			}
			n := f.(float64)
			*ptr(d) = &n
			return nil
		},
	}
}

// Bool declares a boolean column stored in a bool.
func Bool[T any](name string, ptr func(*T) *bool) Field[T] {
	return Field[T]{
		Name: name,
		Kind: schema.KindBool,
		Get:  func(d *T) any { return *ptr(d) },
		Set: func(d *T, v any) error {
			b, err := mapper.Coerce(v, schema.KindBool)
			if err != nil {
				return err
			}
			if b == nil {
				return fmt.Errorf("column %s: cannot store NULL in bool", name)
			}
			*ptr(d) = b.(bool)
			return nil
		},
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Time declares a timestamp column stored in a time.Time. A zero time is
// written as NULL so a defaulted column keeps its database default.
func Time[T any](name string, ptr func(*T) *time.Time) Field[T] {
	return Field[T]{
		Name: name,
		Get: func(d *T) any {
			if t := *ptr(d); !t.IsZero() {
				return t
			}
			return nil
		},
		Set: func(d *T, v any) error {
			switch val := v.(type) {
			case nil:
				*ptr(d) = time.Time{}
				return nil
			case time.Time:
				*ptr(d) = val
				return nil
			case string:
				for _, layout := range timeLayouts {
					if t, err := time.Parse(layout, val); err == nil {
						*ptr(d) = t
						return nil
					}
				}
				return fmt.Errorf("column %s: cannot parse time %q", name, val)
			default:
				return fmt.Errorf("column %s: cannot convert %T to time.Time", name, v)
			}
		},
	}
}

func toString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprint(val), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}
