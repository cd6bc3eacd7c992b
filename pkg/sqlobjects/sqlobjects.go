// Package sqlobjects maps database rows to typed records with an identity
// cache per table.
//
// Typical usage:
//
//	cfg, _ := sqlobjects.LoadConfig("config.yaml")
//	client, _ := sqlobjects.Open(ctx, cfg, logger)
//	defer client.Close()
//
//	users, _ := sqlobjects.Register(ctx, client, userSchema)
//	client.Start(ctx) // apply invalidations from other processes
//
//	rec, _ := users.Create(ctx, map[string]any{"name": "Ada"})
//	same, _ := users.Load(ctx, rec.ID()) // same == rec
package sqlobjects

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/client"
	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
	"github.com/rzpsarthak13/sqlobjects/internal/query"
	"github.com/rzpsarthak13/sqlobjects/internal/schema"
	"github.com/rzpsarthak13/sqlobjects/internal/table"
)

type (
	// Table is the handler of one table.
	Table[T any] = table.Table[T]

	// Record is one row of a table, bound to its handler.
	Record[T any] = table.Record[T]

	// Schema declares a table and the shape of its records.
	Schema[T any] = table.Schema[T]

	// Field describes one non-id column.
	Field[T any] = table.Field[T]

	// IDMode selects who assigns identifiers.
	IDMode = table.IDMode

	// Option configures a Table.
	Option = table.Option

	// LoadOption configures a single load.
	LoadOption = table.LoadOption

	// DeleteOption configures a predicate delete.
	DeleteOption = table.DeleteOption

	// Kind is the coercion class of a column.
	Kind = schema.Kind

	// Conjunction joins WHERE constraints.
	Conjunction = query.Conjunction

	// Constraint holds ADD and DROP statements for a table constraint.
	Constraint = query.Constraint

	// ForeignKey describes a foreign key constraint.
	ForeignKey = query.ForeignKey

	// DeferConfig controls constraint checking within a transaction.
	DeferConfig = query.DeferConfig

	// Raw is a pre-rendered SQL expression written without escaping.
	Raw = query.Raw

	// Conn is the database connection a Table runs on.
	Conn = core.Conn

	// Row is a column name to value map.
	Row = core.Row

	// Change is a mutation event published after a committed write.
	Change = core.Change

	// ChangeFeed transports change events between processes.
	ChangeFeed = core.ChangeFeed

	// Client owns a connection, a change feed and the registered tables.
	Client = client.Client

	// Config is the client configuration.
	Config = config.Config
)

const (
	ClientGenerated   = table.ClientGenerated
	DatabaseGenerated = table.DatabaseGenerated

	And = query.And
	Or  = query.Or

	KindText  = schema.KindText
	KindInt   = schema.KindInt
	KindFloat = schema.KindFloat
	KindBool  = schema.KindBool

	DeferrableInitiallyDeferred  = query.DeferrableInitiallyDeferred
	DeferrableInitiallyImmediate = query.DeferrableInitiallyImmediate
	NotDeferrable                = query.NotDeferrable
)

// NewTable creates a standalone handler on conn. Handlers that should take
// part in cross-process invalidation are created with Register instead.
func NewTable[T any](conn Conn, s Schema[T], opts ...Option) (*Table[T], error) {
	return table.New(conn, s, opts...)
}

// Register creates a handler on the client's connection, wired to its feed,
// and registers it with the client.
func Register[T any](ctx context.Context, c *Client, s Schema[T], opts ...Option) (*Table[T], error) {
	return client.NewTable(ctx, c, s, opts...)
}

// Open builds a client from cfg.
func Open(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Client, error) {
	return client.New(ctx, cfg, logger)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads defaults, then the optional file at path, then the
// SQLOBJECTS_ environment overlay, and validates the result.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Handler options.
var (
	WithLogger      = table.WithLogger
	WithFeed        = table.WithFeed
	WithIDGenerator = table.WithIDGenerator
	WithColumnKinds = table.WithColumnKinds
	WithOrigin      = table.WithOrigin
	WithoutCache    = table.WithoutCache
	KeepCache       = table.KeepCache
	NewUUID         = table.NewUUID
	Key             = table.Key
)
