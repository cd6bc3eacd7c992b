package changefeed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

var (
	// ErrFeedClosed is returned when publishing to or receiving from a closed feed.
	ErrFeedClosed = errors.New("change feed is closed")

	// ErrFeedFull is returned when a bounded feed has no room left.
	ErrFeedFull = errors.New("change feed is full")

	// ErrInvalidChange is returned for nil changes or changes without a table.
	ErrInvalidChange = errors.New("invalid change")
)

// MemoryFeed is an in-process feed backed by a buffered channel. It connects
// handlers living in the same process and backs the tests.
type MemoryFeed struct {
	ch     chan *core.Change
	mu     sync.RWMutex
	closed bool
}

// NewMemoryFeed creates a memory feed holding at most bufferSize events.
func NewMemoryFeed(bufferSize int) *MemoryFeed {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &MemoryFeed{
		ch: make(chan *core.Change, bufferSize),
	}
}

// Publish appends a change without blocking. It fails with ErrFeedFull when
// the buffer is exhausted.
func (f *MemoryFeed) Publish(ctx context.Context, change *core.Change) error {
	if err := check(change); err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return ErrFeedClosed
	}

	select {
	case f.ch <- change:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrFeedFull
	}
}

// Receive drains up to max buffered changes without waiting for more.
func (f *MemoryFeed) Receive(ctx context.Context, max int) ([]*core.Change, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrFeedClosed
	}
	if max <= 0 {
		max = 100
	}

	changes := make([]*core.Change, 0, max)
	for len(changes) < max {
		select {
		case c := <-f.ch:
			changes = append(changes, c)
		case <-ctx.Done():
			return changes, ctx.Err()
		default:
			return changes, nil
		}
	}
	return changes, nil
}

// Size returns the number of buffered changes.
func (f *MemoryFeed) Size() int {
	return len(f.ch)
}

// Close marks the feed closed. Buffered changes are dropped.
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.ch)
	return nil
}

func check(change *core.Change) error {
	if change == nil {
		return ErrInvalidChange
	}
	if change.Table == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidChange)
	}
	if change.Timestamp.IsZero() {
		change.Timestamp = time.Now()
	}
	return nil
}
