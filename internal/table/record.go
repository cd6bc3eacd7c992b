package table

import (
	"context"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
	"github.com/rzpsarthak13/sqlobjects/internal/query"
)

// Record is one row of a table, bound to the handler that services it.
// The identifier is only changed by the handler.
type Record[T any] struct {
	// Data holds the column values.
	Data T

	id        any
	persisted bool
	table     *Table[T]

	// defaulted names the defaulted columns left out of the next INSERT.
	defaulted map[string]bool
}

// ID returns the identifier, or nil when the database has not assigned one yet.
func (r *Record[T]) ID() any {
	return r.id
}

// Key returns the canonical cache key of the identifier.
func (r *Record[T]) Key() string {
	return Key(r.id)
}

// Persisted reports whether the record has been stored.
func (r *Record[T]) Persisted() bool {
	return r.persisted
}

// Table returns the handler servicing the record.
func (r *Record[T]) Table() *Table[T] {
	return r.table
}

// Row returns the column map of the record.
func (r *Record[T]) Row() core.Row {
	return r.table.encode(r)
}

// Save inserts an unpersisted record or updates a persisted one. On success
// the record is cached by the handler. Defaulted columns holding nil are
// left to the database and read back after an insert.
func (r *Record[T]) Save(ctx context.Context) error {
	if r.persisted {
		_, err := r.table.update(ctx, r.id, r.table.saveRow(r), r)
		return err
	}
	return r.table.insert(ctx, r)
}

// SaveQuery returns the statement Save would run, without executing it.
func (r *Record[T]) SaveQuery() (string, error) {
	t := r.table
	if r.persisted {
		return query.Update(t.conn, t.schema.Table, t.saveRow(r), t.idColumn, r.id)
	}
	return query.Insert(t.conn, t.schema.Table, t.insertRow(r))
}

// Duplicate returns an unpersisted copy with a fresh identifier.
func (r *Record[T]) Duplicate() *Record[T] {
	return &Record[T]{
		Data:  r.Data,
		id:    r.table.generateID(),
		table: r.table,
	}
}

// Update sets the named columns through their setters and saves the record.
// The id column and unknown names are skipped with a warning.
func (r *Record[T]) Update(ctx context.Context, partial map[string]any) error {
	t := r.table
	for name, value := range partial {
		if name == t.idColumn {
			t.logger.Warn().Str("column", name).Msg("identifier cannot be changed through a record update, skipping")
			continue
		}
		f, ok := t.fields[name]
		if !ok {
			t.logger.Warn().Str("column", name).Msg("unknown column in record update, skipping")
			continue
		}
		if err := f.Set(&r.Data, value); err != nil {
			return err
		}
	}
	return r.Save(ctx)
}

// Delete removes the record's row and evicts it from the cache.
func (r *Record[T]) Delete(ctx context.Context) error {
	return r.table.Delete(ctx, r.id)
}
