package query

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

var (
	// ErrEmptyBatch is returned when a batch insert is given no rows.
	ErrEmptyBatch = errors.New("batch insert requires at least one row")

	// ErrColumnMismatch is returned when batch insert rows do not share a column set.
	ErrColumnMismatch = errors.New("batch insert rows must share the same columns")
)

// Conjunction joins the constraints of a WHERE clause.
type Conjunction string

const (
	And Conjunction = "AND"
	Or  Conjunction = "OR"
)

func (c Conjunction) String() string {
	if c == "" {
		return string(And)
	}
	return string(c)
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// listValues reports whether v is a supported list type and returns its elements.
func listValues(v any) ([]any, bool) {
	switch list := v.(type) {
	case []any:
		return list, true
	case []string:
		return toAny(list), true
	case []int:
		return toAny(list), true
	case []int64:
		return toAny(list), true
	case []float64:
		return toAny(list), true
	case []uuid.UUID:
		return toAny(list), true
	default:
		return nil, false
	}
}

func toAny[E any](list []E) []any {
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = v
	}
	return out
}

// InList renders "col IN (v1, v2, ...)", or FALSE when values is empty so the
// clause matches no rows.
func InList(esc core.Escaper, column string, values []any) (string, error) {
	if len(values) == 0 {
		return "FALSE", nil
	}
	escaped, err := EscapeValues(esc, values)
	if err != nil {
		return "", err
	}
	return esc.EscapeIdentifier(column) + " IN (" + strings.Join(escaped, ", ") + ")", nil
}

// NotInList renders "col NOT IN (...)", or TRUE when values is empty.
func NotInList(esc core.Escaper, column string, values []any) (string, error) {
	if len(values) == 0 {
		return "TRUE", nil
	}
	escaped, err := EscapeValues(esc, values)
	if err != nil {
		return "", err
	}
	return esc.EscapeIdentifier(column) + " NOT IN (" + strings.Join(escaped, ", ") + ")", nil
}

// WhereClause renders the constraints in pairs joined by conj, without the
// WHERE keyword. List values become IN lists and nil becomes IS NULL.
// Returns "" when pairs is empty.
func WhereClause(esc core.Escaper, pairs map[string]any, conj Conjunction) (string, error) {
	if len(pairs) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(pairs))
	for _, column := range sortedKeys(pairs) {
		value := pairs[column]

		if list, ok := listValues(value); ok {
			clause, err := InList(esc, column, list)
			if err != nil {
				return "", fmt.Errorf("column %s: %w", column, err)
			}
			clauses = append(clauses, clause)
			continue
		}

		if value == nil {
			clauses = append(clauses, esc.EscapeIdentifier(column)+" IS NULL")
			continue
		}

		escaped, err := EscapeValue(esc, value)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", column, err)
		}
		clauses = append(clauses, esc.EscapeIdentifier(column)+" = "+escaped)
	}

	return strings.Join(clauses, " "+conj.String()+" "), nil
}

func withWhere(prefix, where string) string {
	if where == "" {
		return prefix
	}
	return prefix + " WHERE " + where
}

// SelectWhere renders SELECT * FROM table WHERE <pairs>.
func SelectWhere(esc core.Escaper, table string, pairs map[string]any, conj Conjunction) (string, error) {
	where, err := WhereClause(esc, pairs, conj)
	if err != nil {
		return "", err
	}
	return withWhere("SELECT * FROM "+esc.EscapeIdentifier(table), where), nil
}

// DeleteWhere renders DELETE FROM table WHERE <pairs>.
func DeleteWhere(esc core.Escaper, table string, pairs map[string]any, conj Conjunction) (string, error) {
	where, err := WhereClause(esc, pairs, conj)
	if err != nil {
		return "", err
	}
	return withWhere("DELETE FROM "+esc.EscapeIdentifier(table), where), nil
}

// SelectAll renders SELECT * FROM table.
func SelectAll(esc core.Escaper, table string) string {
	return "SELECT * FROM " + esc.EscapeIdentifier(table)
}

// SelectRange renders a page of rows ordered by orderBy.
func SelectRange(esc core.Escaper, table, orderBy string, offset, limit int) string {
	return "SELECT * FROM " + esc.EscapeIdentifier(table) +
		" ORDER BY " + esc.EscapeIdentifier(orderBy) +
		" LIMIT " + strconv.Itoa(limit) +
		" OFFSET " + strconv.Itoa(offset)
}

// DeleteAll renders DELETE FROM table.
func DeleteAll(esc core.Escaper, table string) string {
	return "DELETE FROM " + esc.EscapeIdentifier(table)
}

// Insert renders a single-row INSERT. Columns are emitted in sorted order and
// nil values become the bare NULL token.
func Insert(esc core.Escaper, table string, row map[string]any) (string, error) {
	if len(row) == 0 {
		return "INSERT INTO " + esc.EscapeIdentifier(table) + " DEFAULT VALUES", nil
	}

	columns := sortedKeys(row)
	values := make([]string, len(columns))
	for i, column := range columns {
		if row[column] == nil {
			values[i] = "NULL"
			continue
		}
		escaped, err := EscapeValue(esc, row[column])
		if err != nil {
			return "", fmt.Errorf("column %s: %w", column, err)
		}
		values[i] = escaped
	}

	return "INSERT INTO " + esc.EscapeIdentifier(table) +
		" (" + strings.Join(EscapeIdentifiers(esc, columns), ", ") + ")" +
		" VALUES (" + strings.Join(values, ", ") + ")", nil
}

// BatchInsert renders a multi-row INSERT. Every row must share the same column
// set; columns are taken from the sorted keys of the first row.
func BatchInsert(esc core.Escaper, table string, rows []map[string]any) (string, error) {
	if len(rows) == 0 {
		return "", ErrEmptyBatch
	}

	columns := sortedKeys(rows[0])
	tuples := make([]string, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", fmt.Errorf("%w: row %d has %d columns, expected %d", ErrColumnMismatch, i, len(row), len(columns))
		}

		values := make([]string, len(columns))
		for j, column := range columns {
			value, ok := row[column]
			if !ok {
				return "", fmt.Errorf("%w: row %d is missing column %s", ErrColumnMismatch, i, column)
			}
			escaped, err := EscapeValue(esc, value)
			if err != nil {
				return "", fmt.Errorf("row %d column %s: %w", i, column, err)
			}
			values[j] = escaped
		}
		tuples[i] = "(" + strings.Join(values, ", ") + ")"
	}

	return "INSERT INTO " + esc.EscapeIdentifier(table) +
		" (" + strings.Join(EscapeIdentifiers(esc, columns), ", ") + ")" +
		" VALUES " + strings.Join(tuples, ", "), nil
}

// UpdateSet renders the comma-joined "col = value" assignments of an UPDATE.
func UpdateSet(esc core.Escaper, row map[string]any) (string, error) {
	columns := sortedKeys(row)
	assignments := make([]string, len(columns))
	for i, column := range columns {
		escaped, err := EscapeValue(esc, row[column])
		if err != nil {
			return "", fmt.Errorf("column %s: %w", column, err)
		}
		assignments[i] = esc.EscapeIdentifier(column) + " = " + escaped
	}
	return strings.Join(assignments, ", "), nil
}

// Update renders UPDATE table SET <row> WHERE idColumn = id.
func Update(esc core.Escaper, table string, row map[string]any, idColumn string, id any) (string, error) {
	if len(row) == 0 {
		return "", fmt.Errorf("update of %s requires at least one column", table)
	}
	set, err := UpdateSet(esc, row)
	if err != nil {
		return "", err
	}
	escapedID, err := EscapeValue(esc, id)
	if err != nil {
		return "", fmt.Errorf("id: %w", err)
	}
	return "UPDATE " + esc.EscapeIdentifier(table) +
		" SET " + set +
		" WHERE " + esc.EscapeIdentifier(idColumn) + " = " + escapedID, nil
}
