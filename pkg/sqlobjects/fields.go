package sqlobjects

import (
	"time"

	"github.com/rzpsarthak13/sqlobjects/internal/table"
)

// String declares a text column.
func String[T any](name string, ptr func(*T) *string) Field[T] {
	return table.String(name, ptr)
}

// NullString declares a nullable text column.
func NullString[T any](name string, ptr func(*T) **string) Field[T] {
	return table.NullString(name, ptr)
}

// Int declares an integer column.
func Int[T any](name string, ptr func(*T) *int64) Field[T] {
	return table.Int(name, ptr)
}

// NullInt declares a nullable integer column.
func NullInt[T any](name string, ptr func(*T) **int64) Field[T] {
	return table.NullInt(name, ptr)
}

// Float declares a floating point column.
func Float[T any](name string, ptr func(*T) *float64) Field[T] {
	return table.Float(name, ptr)
}

// NullFloat declares a nullable floating point column.
func NullFloat[T any](name string, ptr func(*T) **float64) Field[T] {
	return table.NullFloat(name, ptr)
}

// Bool declares a boolean column.
func Bool[T any](name string, ptr func(*T) *bool) Field[T] {
	return table.Bool(name, ptr)
}

// Time declares a timestamp column. The zero time is written as NULL.
func Time[T any](name string, ptr func(*T) *time.Time) Field[T] {
	return table.Time(name, ptr)
}
