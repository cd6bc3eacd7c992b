package core

import (
	"context"
)

// Row is one raw result row: column name to the driver's text value, or nil for SQL NULL.
type Row map[string]any

// Result reports the outcome of a statement that returns no rows.
type Result struct {
	// RowsAffected is the number of rows changed by the statement.
	RowsAffected int64

	// LastInsertID is the id generated by the statement on drivers that report it (MySQL).
	LastInsertID int64
}

// Escaper quotes identifiers and string literals for one SQL dialect.
type Escaper interface {
	// EscapeIdentifier quotes a table or column name.
	EscapeIdentifier(name string) string

	// EscapeLiteral quotes a string value, including the surrounding quotes.
	EscapeLiteral(value string) string
}

// Dialect describes the statements that differ between database engines.
type Dialect interface {
	Escaper

	// Name returns the dialect identifier ("postgres", "mysql", "sqlite").
	Name() string

	// TruncateStatement returns the fastest statement that removes every row of table.
	// table is already quoted.
	TruncateStatement(table string) string

	// DeferConstraintsStatement returns the statement that defers constraint checks
	// to the end of the current transaction, or "" when the engine has none.
	DeferConstraintsStatement() string

	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning() bool
}

// Conn is the database connection collaborator used by table handlers.
// Query results are always returned in text form so row decoding behaves
// the same on every driver.
type Conn interface {
	Escaper

	// Query executes a statement and returns every row it produced.
	Query(ctx context.Context, query string) ([]Row, error)

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string) (Result, error)

	// ExecBatch executes all statements atomically: either all of them apply or none.
	ExecBatch(ctx context.Context, statements []string) error

	// GetSchema retrieves the column metadata for a table.
	GetSchema(ctx context.Context, tableName string) (*Schema, error)

	// Dialect returns the SQL dialect of the connection.
	Dialect() Dialect

	// Close closes the connection and releases resources.
	Close() error
}
