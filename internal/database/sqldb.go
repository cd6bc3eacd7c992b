package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// SQLDatabase implements core.Conn on database/sql for MySQL and SQLite.
// Every column is scanned as sql.NullString so rows decode the same way on
// both drivers.
type SQLDatabase struct {
	db      *sql.DB
	dialect core.Dialect
	logger  zerolog.Logger
}

// NewSQLDatabase wraps an open database handle.
func NewSQLDatabase(db *sql.DB, dialect core.Dialect, logger zerolog.Logger) *SQLDatabase {
	return &SQLDatabase{
		db:      db,
		dialect: dialect,
		logger:  logger.With().Str("component", "database").Str("dialect", dialect.Name()).Logger(),
	}
}

// NewMySQLDatabase opens a MySQL connection pool and pings it.
func NewMySQLDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*SQLDatabase, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&timeout=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.ConnectTimeout)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := ping(ctx, db, cfg.ConnectTimeout); err != nil {
		db.Close()
		return nil, err
	}

	d := NewSQLDatabase(db, MySQLDialect{}, logger)
	d.logger.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("connected to the database")
	return d, nil
}

// NewSQLiteDatabase opens the SQLite database at path with foreign keys
// enforced. An in-memory database is limited to one connection, since each
// connection would otherwise see its own empty database.
func NewSQLiteDatabase(ctx context.Context, path string, logger zerolog.Logger) (*SQLDatabase, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := ping(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLDatabase(db, SQLiteDialect{}, logger), nil
}

func ping(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// DB returns the underlying handle.
func (s *SQLDatabase) DB() *sql.DB {
	return s.db
}

func (s *SQLDatabase) EscapeIdentifier(name string) string {
	return s.dialect.EscapeIdentifier(name)
}

func (s *SQLDatabase) EscapeLiteral(value string) string {
	return s.dialect.EscapeLiteral(value)
}

func (s *SQLDatabase) Dialect() core.Dialect {
	return s.dialect
}

// Query runs q and returns each row as column name to text value.
func (s *SQLDatabase) Query(ctx context.Context, q string) ([]core.Row, error) {
	s.logger.Debug().Str("sql", q).Msg("query")
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapError(q, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, wrapError(q, err)
	}
	return out, nil
}

func scanRows(rows *sql.Rows) ([]core.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	var out []core.Row
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(core.Row, len(columns))
		for i, name := range columns {
			if values[i].Valid {
				row[name] = values[i].String
			} else {
				row[name] = nil
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *SQLDatabase) Exec(ctx context.Context, q string) (core.Result, error) {
	s.logger.Debug().Str("sql", q).Msg("exec")
	res, err := s.db.ExecContext(ctx, q)
	if err != nil {
		return core.Result{}, wrapError(q, err)
	}
	return result(res), nil
}

func result(res sql.Result) core.Result {
	var out core.Result
	out.RowsAffected, _ = res.RowsAffected()
	out.LastInsertID, _ = res.LastInsertId()
	return out
}

// ExecBatch runs statements in order inside one transaction.
func (s *SQLDatabase) ExecBatch(ctx context.Context, statements []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range statements {
		s.logger.Debug().Str("sql", stmt).Msg("batch exec")
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return wrapError(stmt, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapError("COMMIT", err)
	}
	return nil
}

// GetSchema reads column metadata for a table.
func (s *SQLDatabase) GetSchema(ctx context.Context, tableName string) (*core.Schema, error) {
	var (
		schema *core.Schema
		err    error
	)
	if s.dialect.Name() == TypeSQLite {
		schema, err = s.sqliteSchema(ctx, tableName)
	} else {
		schema, err = s.mysqlSchema(ctx, tableName)
	}
	if err != nil {
		return nil, err
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", tableName)
	}
	return schema, nil
}

func (s *SQLDatabase) mysqlSchema(ctx context.Context, tableName string) (*core.Schema, error) {
	schema := &core.Schema{TableName: tableName}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY, EXTRA
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var colName, colType, isNullable, columnKey, extra string
		var colDefault sql.NullString
		if err := rows.Scan(&colName, &colType, &isNullable, &colDefault, &columnKey, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		column := core.Column{
			Name:     colName,
			Type:     colType,
			Nullable: isNullable == "YES",
		}
		if colDefault.Valid {
			column.Default = &colDefault.String
		} else if extra == "auto_increment" {
			auto := "auto_increment"
			column.Default = &auto
		}

		if columnKey == "PRI" && schema.PrimaryKey == "" {
			schema.PrimaryKey = colName
		}
		schema.Columns = append(schema.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return schema, nil
}

func (s *SQLDatabase) sqliteSchema(ctx context.Context, tableName string) (*core.Schema, error) {
	schema := &core.Schema{TableName: tableName}

	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+s.dialect.EscapeIdentifier(tableName)+")")
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			colDefault       sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &colDefault, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		column := core.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0 && pk == 0,
		}
		if colDefault.Valid {
			column.Default = &colDefault.String
		}
		if pk == 1 {
			schema.PrimaryKey = name
		}
		schema.Columns = append(schema.Columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return schema, nil
}

// Close closes the database handle.
func (s *SQLDatabase) Close() error {
	return s.db.Close()
}
