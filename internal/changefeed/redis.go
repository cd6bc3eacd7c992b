package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// RedisFeed broadcasts change events over a Redis pub/sub channel. Every
// subscribed process receives every event published after it subscribed.
type RedisFeed struct {
	client   *redis.Client
	pubsub   *redis.PubSub
	messages <-chan *redis.Message
	channel  string
	logger   zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewRedisFeed connects to Redis and subscribes to <prefix>:changes.
func NewRedisFeed(ctx context.Context, cfg config.RedisConfig, bufferSize int, logger zerolog.Logger) (*RedisFeed, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout(cfg.DialTimeout))
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	f, err := newRedisFeed(pingCtx, client, ChannelName(cfg.Prefix), bufferSize, logger)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return f, nil
}

func newRedisFeed(ctx context.Context, client *redis.Client, channel string, bufferSize int, logger zerolog.Logger) (*RedisFeed, error) {
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	pubsub := client.Subscribe(ctx, channel)
	// The first reply confirms the subscription.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	return &RedisFeed{
		client:   client,
		pubsub:   pubsub,
		messages: pubsub.Channel(redis.WithChannelSize(bufferSize)),
		channel:  channel,
		logger:   logger.With().Str("feed", "redis").Str("channel", channel).Logger(),
	}, nil
}

// ChannelName returns the pub/sub channel used for prefix.
func ChannelName(prefix string) string {
	if prefix == "" {
		return "changes"
	}
	return prefix + ":changes"
}

func pingTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Publish sends a change to every subscriber.
func (f *RedisFeed) Publish(ctx context.Context, change *core.Change) error {
	if err := check(change); err != nil {
		return err
	}
	if f.isClosed() {
		return ErrFeedClosed
	}

	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Receive drains up to max delivered changes without waiting for more.
// Payloads that fail to decode are logged and dropped.
func (f *RedisFeed) Receive(ctx context.Context, max int) ([]*core.Change, error) {
	if f.isClosed() {
		return nil, ErrFeedClosed
	}
	if max <= 0 {
		max = 100
	}

	changes := make([]*core.Change, 0, max)
	for len(changes) < max {
		select {
		case msg, ok := <-f.messages:
			if !ok {
				return changes, ErrFeedClosed
			}
			var c core.Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				f.logger.Warn().Err(err).Int("bytes", len(msg.Payload)).Msg("dropping undecodable change")
				continue
			}
			changes = append(changes, &c)
		case <-ctx.Done():
			return changes, ctx.Err()
		default:
			return changes, nil
		}
	}
	return changes, nil
}

// Size returns the number of delivered changes not yet received.
func (f *RedisFeed) Size() int {
	return len(f.messages)
}

// Close unsubscribes and closes the Redis client.
func (f *RedisFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	if err := f.pubsub.Close(); err != nil {
		f.logger.Error().Err(err).Msg("failed to close subscription")
	}
	return f.client.Close()
}

func (f *RedisFeed) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}
