package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

const defaultKafkaReadTimeout = 500 * time.Millisecond

// KafkaFeed carries change events on a Kafka topic. Each feed joins its own
// consumer group, named GroupID plus an instance suffix, so every process
// sees every event. New groups start at the end of the topic.
type KafkaFeed struct {
	writer      *kafka.Writer
	reader      *kafka.Reader
	topic       string
	groupID     string
	readTimeout time.Duration
	logger      zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaFeed creates the topic writer and the consumer group reader.
func NewKafkaFeed(cfg config.KafkaConfig, batchSize int, logger zerolog.Logger) (*KafkaFeed, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "sqlobjects"
	}
	groupID := cfg.GroupID + "-" + uuid.NewString()

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultKafkaReadTimeout
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    batchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:  3,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     groupID,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.LastOffset,
	})

	logger = logger.With().Str("feed", "kafka").Str("topic", cfg.Topic).Str("group", groupID).Logger()
	logger.Info().Strs("brokers", cfg.Brokers).Msg("kafka feed initialized")

	return &KafkaFeed{
		writer:      writer,
		reader:      reader,
		topic:       cfg.Topic,
		groupID:     groupID,
		readTimeout: readTimeout,
		logger:      logger,
	}, nil
}

// GroupID returns the consumer group this feed reads with.
func (f *KafkaFeed) GroupID() string {
	return f.groupID
}

// Publish produces a change keyed by table name, so changes of one table stay
// ordered within a partition.
func (f *KafkaFeed) Publish(ctx context.Context, change *core.Change) error {
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

	msg := kafka.Message{
		Key:   []byte(change.Table),
		Value: data,
		Time:  change.Timestamp,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(change.Operation)},
			{Key: "origin", Value: []byte(change.Origin)},
		},
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write change to Kafka: %w", err)
	}
	return nil
}

// Receive fetches up to max changes, waiting at most the read timeout for
// each. Offsets are committed once a message is decoded or dropped.
func (f *KafkaFeed) Receive(ctx context.Context, max int) ([]*core.Change, error) {
	if f.isClosed() {
		return nil, ErrFeedClosed
	}
	if max <= 0 {
		max = 100
	}

	changes := make([]*core.Change, 0, max)
	for len(changes) < max {
		readCtx, cancel := context.WithTimeout(ctx, f.readTimeout)
		msg, err := f.reader.FetchMessage(readCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			return changes, fmt.Errorf("failed to fetch change: %w", err)
		}

		var c core.Change
		if err := json.Unmarshal(msg.Value, &c); err != nil {
			f.logger.Warn().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("dropping undecodable change")
		} else {
			changes = append(changes, &c)
		}

		if err := f.reader.CommitMessages(ctx, msg); err != nil {
			f.logger.Warn().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("failed to commit offset")
		}
	}
	return changes, ctx.Err()
}

// Size returns the consumer lag reported by the reader.
func (f *KafkaFeed) Size() int {
	if f.isClosed() {
		return 0
	}
	if lag := f.reader.Stats().Lag; lag > 0 {
		return int(lag)
	}
	return 0
}

// Close closes the writer and the reader.
func (f *KafkaFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	if err := f.writer.Close(); err != nil {
		f.logger.Error().Err(err).Msg("failed to close writer")
	}
	return f.reader.Close()
}

func (f *KafkaFeed) isClosed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}
