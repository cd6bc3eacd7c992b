// Package client wires a connection, an optional change feed, a handler
// registry and the feed consumer together from one configuration.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/changefeed"
	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
	"github.com/rzpsarthak13/sqlobjects/internal/database"
	"github.com/rzpsarthak13/sqlobjects/internal/registry"
	"github.com/rzpsarthak13/sqlobjects/internal/table"
)

// ErrClosed is returned by operations on a closed client.
var ErrClosed = errors.New("client is closed")

// Client owns the shared resources of the handlers it creates. Handlers
// created through NewTable publish to the client's feed with the client's
// origin, and are registered so the consumer can reach their caches.
type Client struct {
	mu       sync.RWMutex
	config   *config.Config
	conn     core.Conn
	feed     core.ChangeFeed
	registry *registry.Registry
	consumer *changefeed.Consumer
	origin   string
	base     zerolog.Logger
	logger   zerolog.Logger
	closed   bool
}

// New validates cfg, connects to the database and creates the feed.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	conn, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	feed, err := changefeed.New(ctx, cfg.Feed, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return NewWith(cfg, conn, feed, nil, logger), nil
}

// NewWith assembles a client from existing parts. A nil feed disables change
// publishing, a nil lifecycle manager gets an empty one.
func NewWith(cfg *config.Config, conn core.Conn, feed core.ChangeFeed, lifecycle *registry.LifecycleManager, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = config.Default()
	}
	origin := uuid.NewString()

	c := &Client{
		config:   cfg,
		conn:     conn,
		feed:     feed,
		registry: registry.New(lifecycle),
		origin:   origin,
		base:     logger,
		logger:   logger.With().Str("component", "client").Logger(),
	}
	c.registry.Lifecycle().RegisterHook(c.logHook())
	if feed != nil {
		c.consumer = changefeed.NewConsumer(feed, c.registry, origin, changefeed.ConsumerConfigFrom(cfg.Feed), logger)
	}

	c.logger.Info().
		Str("database", cfg.Database.Type).
		Str("feed", cfg.Feed.Type).
		Str("origin", origin).
		Msg("client initialized")
	return c
}

// logHook logs handlers joining and leaving the registry.
func (c *Client) logHook() registry.LifecycleHook {
	return registry.LifecycleHookFunc{
		OnRegisterFunc: func(_ context.Context, owner core.CacheOwner) error {
			c.logger.Debug().Str("table", owner.Name()).Msg("table registered")
			return nil
		},
		OnUnregisterFunc: func(_ context.Context, owner core.CacheOwner) error {
			c.logger.Debug().
				Str("table", owner.Name()).
				Int("cached", owner.CacheSize()).
				Msg("table unregistered")
			return nil
		},
	}
}

// Config returns the configuration the client was built from.
func (c *Client) Config() *config.Config { return c.config }

// Conn returns the shared database connection.
func (c *Client) Conn() core.Conn { return c.conn }

// Feed returns the change feed, or nil when publishing is disabled.
func (c *Client) Feed() core.ChangeFeed { return c.feed }

// Registry returns the handler registry.
func (c *Client) Registry() *registry.Registry { return c.registry }

// Origin returns the id stamped on changes published by the client's handlers.
func (c *Client) Origin() string { return c.origin }

// Logger returns the client logger.
func (c *Client) Logger() zerolog.Logger { return c.logger }

// TableOptions returns the handler options binding a table to this client.
func (c *Client) TableOptions() []table.Option {
	opts := []table.Option{
		table.WithLogger(c.base),
		table.WithOrigin(c.origin),
	}
	if c.feed != nil {
		opts = append(opts, table.WithFeed(c.feed))
	}
	return opts
}

// Register adds a handler to the registry.
func (c *Client) Register(ctx context.Context, owner core.CacheOwner) error {
	if c.isClosed() {
		return ErrClosed
	}
	return c.registry.Register(ctx, owner)
}

// NewTable creates a handler on the client's connection and registers it.
// Options given here apply after the client's own.
func NewTable[T any](ctx context.Context, c *Client, s table.Schema[T], opts ...table.Option) (*table.Table[T], error) {
	if c.isClosed() {
		return nil, ErrClosed
	}
	t, err := table.New(c.conn, s, append(c.TableOptions(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := c.registry.Register(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Start starts the feed consumer. It is a no-op without a feed.
func (c *Client) Start(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	if c.consumer != nil {
		c.consumer.Start(ctx)
	}
	return nil
}

// Stop stops the feed consumer and waits for it to exit.
func (c *Client) Stop() {
	if c.consumer != nil {
		c.consumer.Stop()
	}
}

// Running reports whether the feed consumer is active.
func (c *Client) Running() bool {
	return c.consumer != nil && c.consumer.Running()
}

// Close stops the consumer, unregisters every handler and closes the feed
// and the connection. Closing twice is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.Stop()

	var errs []error
	if err := c.registry.Clear(context.Background()); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear registry: %w", err))
	}
	if c.feed != nil {
		if err := c.feed.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close feed: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	c.logger.Info().Msg("client closed")
	return errors.Join(errs...)
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
