package database

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// Supported database types.
const (
	TypePostgres = "postgres"
	TypeMySQL    = "mysql"
	TypeSQLite   = "sqlite"
)

// DialectFor returns the dialect of a database type.
func DialectFor(dbType string) (core.Dialect, bool) {
	switch dbType {
	case TypePostgres:
		return PostgresDialect{}, true
	case TypeMySQL:
		return MySQLDialect{}, true
	case TypeSQLite:
		return SQLiteDialect{}, true
	default:
		return nil, false
	}
}

// PostgresDialect quotes with pgx's identifier sanitizer and standard
// conforming string literals.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return TypePostgres }

func (PostgresDialect) EscapeIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// EscapeLiteral doubles single quotes. Strings containing a backslash use the
// E'' form so they read the same whatever standard_conforming_strings is.
func (PostgresDialect) EscapeLiteral(value string) string {
	value = strings.ReplaceAll(value, "'", "''")
	if strings.Contains(value, `\`) {
		return `E'` + strings.ReplaceAll(value, `\`, `\\`) + `'`
	}
	return "'" + value + "'"
}

func (PostgresDialect) TruncateStatement(table string) string {
	return "TRUNCATE " + table
}

func (PostgresDialect) DeferConstraintsStatement() string {
	return "SET CONSTRAINTS ALL DEFERRED"
}

func (PostgresDialect) SupportsReturning() bool { return true }

// MySQLDialect quotes identifiers with backticks and escapes literals the way
// mysql_real_escape_string does.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return TypeMySQL }

func (MySQLDialect) EscapeIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var mysqlLiteralReplacer = strings.NewReplacer(
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	`\`, `\\`,
	"'", `\'`,
	`"`, `\"`,
	"\x1a", `\Z`,
)

func (MySQLDialect) EscapeLiteral(value string) string {
	return "'" + mysqlLiteralReplacer.Replace(value) + "'"
}

func (MySQLDialect) TruncateStatement(table string) string {
	return "TRUNCATE TABLE " + table
}

// MySQL has no deferred constraint checking.
func (MySQLDialect) DeferConstraintsStatement() string { return "" }

func (MySQLDialect) SupportsReturning() bool { return false }

// SQLiteDialect uses ANSI double-quoted identifiers.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return TypeSQLite }

func (SQLiteDialect) EscapeIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLiteDialect) EscapeLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// SQLite has no TRUNCATE; an unqualified DELETE uses the truncate optimization.
func (SQLiteDialect) TruncateStatement(table string) string {
	return "DELETE FROM " + table
}

func (SQLiteDialect) DeferConstraintsStatement() string {
	return "PRAGMA defer_foreign_keys = ON"
}

func (SQLiteDialect) SupportsReturning() bool { return true }
