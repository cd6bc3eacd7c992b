package changefeed

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// Factory creates one kind of change feed. Implementations register
// themselves in init().
type Factory interface {
	// Type returns the feed type the factory serves, matching feed.type.
	Type() string

	// Create builds a feed from the configuration.
	Create(ctx context.Context, cfg config.FeedConfig, logger zerolog.Logger) (core.ChangeFeed, error)
}

var (
	factories   = make(map[string]Factory)
	factoriesMu sync.RWMutex
)

// Register makes a factory available to New. It panics on a nil factory, an
// empty type or a duplicate registration.
func Register(f Factory) {
	if f == nil {
		panic("changefeed: factory cannot be nil")
	}
	if f.Type() == "" {
		panic("changefeed: factory type cannot be empty")
	}

	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[f.Type()]; exists {
		panic(fmt.Sprintf("changefeed: factory for type %q is already registered", f.Type()))
	}
	factories[f.Type()] = f
}

// Types returns the registered feed types in sorted order.
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// New creates the feed selected by cfg.Type. The type "none" and the empty
// type yield a nil feed and no error.
func New(ctx context.Context, cfg config.FeedConfig, logger zerolog.Logger) (core.ChangeFeed, error) {
	if cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}

	factoriesMu.RLock()
	f, ok := factories[cfg.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported feed type %q (registered: %v)", cfg.Type, Types())
	}

	feed, err := f.Create(ctx, cfg, logger.With().Str("component", "changefeed").Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create %s feed: %w", cfg.Type, err)
	}
	return feed, nil
}

type memoryFactory struct{}

func (memoryFactory) Type() string { return "memory" }

func (memoryFactory) Create(_ context.Context, cfg config.FeedConfig, _ zerolog.Logger) (core.ChangeFeed, error) {
	return NewMemoryFeed(cfg.BufferSize), nil
}

type redisFactory struct{}

func (redisFactory) Type() string { return "redis" }

func (redisFactory) Create(ctx context.Context, cfg config.FeedConfig, logger zerolog.Logger) (core.ChangeFeed, error) {
	f, err := NewRedisFeed(ctx, cfg.Redis, cfg.BufferSize, logger)
	if err != nil {
		return nil, err
	}
	return f, nil
}

type kafkaFactory struct{}

func (kafkaFactory) Type() string { return "kafka" }

func (kafkaFactory) Create(_ context.Context, cfg config.FeedConfig, logger zerolog.Logger) (core.ChangeFeed, error) {
	f, err := NewKafkaFeed(cfg.Kafka, cfg.BatchSize, logger)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func init() {
	Register(memoryFactory{})
	Register(redisFactory{})
	Register(kafkaFactory{})
}
