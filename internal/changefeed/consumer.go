package changefeed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// Resolver finds the handler owning a table's cache.
type Resolver interface {
	Lookup(table string) (core.CacheOwner, bool)
}

// ConsumerConfig controls how fast changes are pulled and applied.
type ConsumerConfig struct {
	// ApplyRate is the maximum number of changes applied per second.
	ApplyRate float64

	// BatchSize is how many changes are received per poll. It is also the
	// limiter burst.
	BatchSize int

	// PollInterval is how long to sleep when the feed is empty.
	PollInterval time.Duration
}

// DefaultConsumerConfig returns the defaults used for unset values.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		ApplyRate:    500,
		BatchSize:    100,
		PollInterval: 100 * time.Millisecond,
	}
}

// ConsumerConfigFrom extracts the consumer settings of a feed section.
func ConsumerConfigFrom(cfg config.FeedConfig) ConsumerConfig {
	return ConsumerConfig{
		ApplyRate:    cfg.ApplyRate,
		BatchSize:    cfg.BatchSize,
		PollInterval: cfg.PollInterval,
	}
}

// Consumer applies change events from a feed to the caches of the handlers
// a Resolver knows about. Events carrying the consumer's own origin were
// already applied locally and are skipped.
type Consumer struct {
	feed     core.ChangeFeed
	resolver Resolver
	origin   string
	config   ConsumerConfig
	limiter  *rate.Limiter
	logger   zerolog.Logger

	applied atomic.Int64
	skipped atomic.Int64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewConsumer creates a stopped consumer.
func NewConsumer(feed core.ChangeFeed, resolver Resolver, origin string, cfg ConsumerConfig, logger zerolog.Logger) *Consumer {
	def := DefaultConsumerConfig()
	if cfg.ApplyRate <= 0 {
		cfg.ApplyRate = def.ApplyRate
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}

	return &Consumer{
		feed:     feed,
		resolver: resolver,
		origin:   origin,
		config:   cfg,
		limiter:  rate.NewLimiter(rate.Limit(cfg.ApplyRate), cfg.BatchSize),
		logger:   logger.With().Str("component", "changefeed").Str("origin", origin).Logger(),
	}
}

// Start runs the consumer on its own goroutine until Stop is called or ctx
// is done. Starting a running consumer is a no-op.
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	go c.run(ctx, c.stopCh, c.doneCh)
	c.logger.Info().
		Float64("apply_rate", c.config.ApplyRate).
		Int("batch_size", c.config.BatchSize).
		Msg("change feed consumer started")
}

// Stop signals the consumer and waits for its goroutine to exit.
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stopCh, doneCh := c.stopCh, c.doneCh
	c.mu.Unlock()

	close(stopCh)
	<-doneCh
	c.logger.Info().
		Int64("applied", c.applied.Load()).
		Int64("skipped", c.skipped.Load()).
		Msg("change feed consumer stopped")
}

// Running reports whether the consumer goroutine is active.
func (c *Consumer) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Applied returns the number of changes applied to a cache.
func (c *Consumer) Applied() int64 {
	return c.applied.Load()
}

// Skipped returns the number of changes ignored because of their origin or
// an unknown table.
func (c *Consumer) Skipped() int64 {
	return c.skipped.Load()
}

func (c *Consumer) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	// The limiter waits must end when Stop is called, not only with ctx.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		n, err := c.Poll(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to receive changes")
			if errors.Is(err, ErrFeedClosed) {
				return
			}
		}
		if n > 0 {
			continue
		}

		timer := time.NewTimer(c.config.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Poll receives one batch from the feed and applies it at the configured
// rate. It returns the number of changes received.
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	changes, err := c.feed.Receive(ctx, c.config.BatchSize)
	for _, change := range changes {
		if change == nil {
			continue
		}
		if werr := c.limiter.Wait(ctx); werr != nil {
			return len(changes), werr
		}
		c.apply(change)
	}
	return len(changes), err
}

func (c *Consumer) apply(change *core.Change) {
	if change.Origin != "" && change.Origin == c.origin {
		c.skipped.Add(1)
		return
	}

	owner, ok := c.resolver.Lookup(change.Table)
	if !ok {
		c.skipped.Add(1)
		c.logger.Debug().Str("table", change.Table).Msg("no handler registered for table, skipping change")
		return
	}

	switch change.Operation {
	case core.ChangeClear:
		owner.EmptyCache()
	default:
		owner.Evict(change.Keys...)
	}
	c.applied.Add(1)

	c.logger.Debug().
		Str("table", change.Table).
		Str("operation", string(change.Operation)).
		Int("keys", len(change.Keys)).
		Str("from", change.Origin).
		Msg("change applied")
}
