package table

import (
	"fmt"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
	"github.com/rzpsarthak13/sqlobjects/internal/schema"
)

// decode materializes a persisted record from a result row. With nil kinds
// every value reaches the setters unmodified.
func (t *Table[T]) decode(raw core.Row, kinds map[string]schema.Kind) (*Record[T], error) {
	rec := &Record[T]{table: t, persisted: true}
	if err := t.assign(rec, raw, kinds); err != nil {
		return nil, err
	}

	if id, ok := raw[t.idColumn]; ok && id != nil {
		id, err := t.coerce(t.idColumn, id, kinds)
		if err != nil {
			return nil, err
		}
		rec.id = id
	}
	return rec, nil
}

// assign runs every field setter against raw. Absent or NULL values are only
// accepted for nullable and defaulted fields, which keep their zero value.
func (t *Table[T]) assign(rec *Record[T], raw core.Row, kinds map[string]schema.Kind) error {
	for i := range t.schema.Fields {
		f := &t.schema.Fields[i]

		value, ok := raw[f.Name]
		if !ok || value == nil {
			if f.Nullable || f.HasDefault {
				continue
			}
			return &core.MissingFieldError{Table: t.schema.Table, Field: f.Name}
		}

		value, err := t.coerce(f.Name, value, kinds)
		if err != nil {
			return err
		}
		if err := f.Set(&rec.Data, value); err != nil {
			return fmt.Errorf("decode %s.%s: %w", t.schema.Table, f.Name, err)
		}
	}
	return nil
}

func (t *Table[T]) coerce(column string, value any, kinds map[string]schema.Kind) (any, error) {
	if kinds == nil {
		return value, nil
	}
	out, err := mapper.Coerce(value, kinds[column])
	if err != nil {
		return nil, fmt.Errorf("decode %s.%s: %w", t.schema.Table, column, err)
	}
	return out, nil
}

// encode returns the column map of rec, including the id when it is set.
func (t *Table[T]) encode(rec *Record[T]) core.Row {
	row := t.fieldRow(rec)
	if rec.id != nil {
		row[t.idColumn] = rec.id
	}
	return row
}

func (t *Table[T]) fieldRow(rec *Record[T]) core.Row {
	row := make(core.Row, len(t.schema.Fields)+1)
	for i := range t.schema.Fields {
		f := &t.schema.Fields[i]
		row[f.Name] = f.Get(&rec.Data)
	}
	return row
}

// insertRow is encode without the defaulted columns the record leaves to the
// database: those whose getter returns nil and those Create was not given.
func (t *Table[T]) insertRow(rec *Record[T]) core.Row {
	row := t.encode(rec)
	for i := range t.schema.Fields {
		f := &t.schema.Fields[i]
		if f.HasDefault && (row[f.Name] == nil || rec.defaulted[f.Name]) {
			delete(row, f.Name)
		}
	}
	return row
}

// saveRow is fieldRow without defaulted columns whose getter returns nil, so
// an UPDATE never overwrites a database default with NULL.
func (t *Table[T]) saveRow(rec *Record[T]) core.Row {
	row := t.fieldRow(rec)
	for i := range t.schema.Fields {
		f := &t.schema.Fields[i]
		if f.HasDefault && row[f.Name] == nil {
			delete(row, f.Name)
		}
	}
	return row
}

// omitted returns the defaulted fields missing from an insert row.
func (t *Table[T]) omitted(row core.Row) []*Field[T] {
	var out []*Field[T]
	for i := range t.schema.Fields {
		f := &t.schema.Fields[i]
		if _, ok := row[f.Name]; f.HasDefault && !ok {
			out = append(out, f)
		}
	}
	return out
}

// applyDefaults copies the database-filled values of fields from raw into rec.
// NULL leaves the field at its zero value.
func (t *Table[T]) applyDefaults(rec *Record[T], raw core.Row, fields []*Field[T], kinds map[string]schema.Kind) error {
	for _, f := range fields {
		value := raw[f.Name]
		if value == nil {
			continue
		}
		value, err := t.coerce(f.Name, value, kinds)
		if err != nil {
			return err
		}
		if err := f.Set(&rec.Data, value); err != nil {
			return fmt.Errorf("decode %s.%s: %w", t.schema.Table, f.Name, err)
		}
	}
	return nil
}
