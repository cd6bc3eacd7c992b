package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// PostgresDatabase implements core.Conn on a pgx connection pool. Every
// statement runs over the simple protocol so rows arrive in text form.
type PostgresDatabase struct {
	pool    *pgxpool.Pool
	dialect PostgresDialect
	logger  zerolog.Logger
}

// PostgresDSN builds a postgres:// URL from the database settings.
func PostgresDSN(cfg config.DatabaseConfig) string {
	hostPort := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		hostPort,
		cfg.Name,
		sslMode,
	)
}

// NewPostgresDatabase creates a connection pool and pings it. With traceSQL
// every statement is logged through pgx tracelog.
func NewPostgresDatabase(ctx context.Context, cfg config.DatabaseConfig, traceSQL bool, logger zerolog.Logger) (*PostgresDatabase, error) {
	poolConfig, err := pgxpool.ParseConfig(PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx pool config: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	logger = logger.With().Str("component", "database").Str("dialect", TypePostgres).Logger()
	if traceSQL {
		poolConfig.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(logger),
			LogLevel: traceLevel(logger.GetLevel()),
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("connected to the database")
	return &PostgresDatabase{pool: pool, logger: logger}, nil
}

// traceLevel maps the zerolog level onto the pgx tracelog level.
func traceLevel(level zerolog.Level) tracelog.LogLevel {
	switch {
	case level <= zerolog.TraceLevel:
		return tracelog.LogLevelTrace
	case level == zerolog.DebugLevel:
		return tracelog.LogLevelDebug
	case level == zerolog.InfoLevel:
		return tracelog.LogLevelInfo
	case level == zerolog.WarnLevel:
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}

// Pool returns the underlying pgx pool.
func (p *PostgresDatabase) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PostgresDatabase) EscapeIdentifier(name string) string {
	return p.dialect.EscapeIdentifier(name)
}

func (p *PostgresDatabase) EscapeLiteral(value string) string {
	return p.dialect.EscapeLiteral(value)
}

func (p *PostgresDatabase) Dialect() core.Dialect {
	return p.dialect
}

// Query runs q and returns each row as column name to text value.
func (p *PostgresDatabase) Query(ctx context.Context, q string) ([]core.Row, error) {
	p.logger.Debug().Str("sql", q).Msg("query")
	rows, err := p.pool.Query(ctx, q, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return nil, wrapError(q, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []core.Row
	for rows.Next() {
		raw := rows.RawValues()
		row := make(core.Row, len(fields))
		for i, fd := range fields {
			if raw[i] == nil {
				row[fd.Name] = nil
			} else {
				row[fd.Name] = string(raw[i])
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(q, err)
	}
	return out, nil
}

func (p *PostgresDatabase) Exec(ctx context.Context, q string) (core.Result, error) {
	p.logger.Debug().Str("sql", q).Msg("exec")
	tag, err := p.pool.Exec(ctx, q, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return core.Result{}, wrapError(q, err)
	}
	return core.Result{RowsAffected: tag.RowsAffected()}, nil
}

// ExecBatch runs statements in order inside one transaction.
func (p *PostgresDatabase) ExecBatch(ctx context.Context, statements []string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, stmt := range statements {
		p.logger.Debug().Str("sql", stmt).Msg("batch exec")
		if _, err := tx.Exec(ctx, stmt, pgx.QueryExecModeSimpleProtocol); err != nil {
			return wrapError(stmt, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapError("COMMIT", err)
	}
	return nil
}

// GetSchema reads column metadata from information_schema for a table in
// the current schema.
func (p *PostgresDatabase) GetSchema(ctx context.Context, tableName string) (*core.Schema, error) {
	schema := &core.Schema{TableName: tableName}

	rows, err := p.pool.Query(ctx, `
		SELECT column_name, udt_name, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, udtName, isNullable string
		var colDefault *string
		if err := rows.Scan(&name, &udtName, &isNullable, &colDefault); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		schema.Columns = append(schema.Columns, core.Column{
			Name:     name,
			Type:     udtName,
			Nullable: isNullable == "YES",
			Default:  colDefault,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", tableName)
	}

	err = p.pool.QueryRow(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = current_schema() AND tc.table_name = $1
		ORDER BY kcu.ordinal_position
		LIMIT 1`, tableName).Scan(&schema.PrimaryKey)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}

	return schema, nil
}

// Close closes the pool.
func (p *PostgresDatabase) Close() error {
	p.logger.Info().Msg("closing database connection pool")
	p.pool.Close()
	return nil
}
