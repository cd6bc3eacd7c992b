package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// driverFailure is what every driver error is reduced to before classification.
type driverFailure struct {
	code       core.ErrorCode
	table      string
	column     string
	constraint string
}

// wrapError wraps a driver error and the statement that caused it into a
// *core.QueryError with a classified code and a user-facing message.
func wrapError(query string, err error) error {
	if err == nil {
		return nil
	}
	f := classify(err)
	return &core.QueryError{
		Query:      query,
		Code:       f.code,
		Constraint: f.constraint,
		Message:    userMessage(f),
		Err:        err,
	}
}

func classify(err error) driverFailure {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return driverFailure{
			code:       postgresCode(pgErr.Code),
			table:      pgErr.TableName,
			column:     pgErr.ColumnName,
			constraint: pgErr.ConstraintName,
		}
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return driverFailure{code: mysqlCode(myErr.Number)}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		f := driverFailure{code: sqliteCode(liteErr.Code())}
		if f.code != core.Other {
			f.table, f.column = sqliteColumn(liteErr.Error())
		}
		return f
	}

	return driverFailure{code: core.Other}
}

// postgresCode maps SQLSTATE class 23 codes.
func postgresCode(sqlstate string) core.ErrorCode {
	switch sqlstate {
	case "23505":
		return core.UniqueViolation
	case "23503":
		return core.ForeignKeyViolation
	case "23502":
		return core.NotNullViolation
	case "23514":
		return core.CheckViolation
	default:
		return core.Other
	}
}

func mysqlCode(number uint16) core.ErrorCode {
	switch number {
	case 1062: // ER_DUP_ENTRY
		return core.UniqueViolation
	case 1451, 1452: // ER_ROW_IS_REFERENCED_2, ER_NO_REFERENCED_ROW_2
		return core.ForeignKeyViolation
	case 1048: // ER_BAD_NULL_ERROR
		return core.NotNullViolation
	case 3819: // ER_CHECK_CONSTRAINT_VIOLATED
		return core.CheckViolation
	default:
		return core.Other
	}
}

func sqliteCode(code int) core.ErrorCode {
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return core.UniqueViolation
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return core.ForeignKeyViolation
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return core.NotNullViolation
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return core.CheckViolation
	default:
		return core.Other
	}
}

// sqliteColumn extracts "table.column" from messages such as
// "constraint failed: UNIQUE constraint failed: user.email (2067)".
func sqliteColumn(msg string) (table, column string) {
	const marker = "constraint failed: "
	idx := strings.LastIndex(msg, marker)
	if idx < 0 {
		return "", ""
	}
	detail := msg[idx+len(marker):]
	detail, _, _ = strings.Cut(detail, ",")
	detail, _, _ = strings.Cut(detail, " ")
	table, column, ok := strings.Cut(detail, ".")
	if !ok {
		return "", ""
	}
	return table, column
}

func userMessage(f driverFailure) string {
	entity := humanize(f.table)
	if entity == "" {
		entity = "Record"
	}

	switch f.code {
	case core.UniqueViolation:
		if field := humanize(f.column); field != "" {
			return fmt.Sprintf("A %s with this %s already exists", entity, field)
		}
		return fmt.Sprintf("A %s with this identifier already exists", entity)
	case core.ForeignKeyViolation:
		return fmt.Sprintf("The %s references a record that does not exist", entity)
	case core.NotNullViolation:
		if field := humanize(f.column); field != "" {
			return fmt.Sprintf("The %s is required", field)
		}
		return "A required value is missing"
	case core.CheckViolation:
		return "One or more values do not meet required conditions"
	default:
		return "An error occurred while processing your request"
	}
}

// humanize turns snake_case names into title case words.
func humanize(name string) string {
	if name == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
