package changefeed

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

type fakeOwner struct {
	name string

	mu      sync.Mutex
	evicted []string
	cleared int
}

func (o *fakeOwner) Name() string { return o.name }

func (o *fakeOwner) Evict(keys ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evicted = append(o.evicted, keys...)
}

func (o *fakeOwner) EmptyCache() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cleared++
}

func (o *fakeOwner) CacheSize() int { return 0 }

func (o *fakeOwner) snapshot() ([]string, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.evicted), o.cleared
}

type owners map[string]core.CacheOwner

func (m owners) Lookup(table string) (core.CacheOwner, bool) {
	o, ok := m[table]
	return o, ok
}

func TestConsumerPoll(t *testing.T) {
	ctx := context.Background()
	feed := NewMemoryFeed(10)
	user := &fakeOwner{name: "user"}
	c := NewConsumer(feed, owners{"user": user}, "self", ConsumerConfig{ApplyRate: 1000, BatchSize: 10}, zerolog.Nop())

	changes := []*core.Change{
		{Table: "user", Operation: core.ChangeUpdate, Keys: []string{"1", "2"}, Origin: "other"},
		{Table: "user", Operation: core.ChangeDelete, Keys: []string{"3"}, Origin: "self"},
		{Table: "order", Operation: core.ChangeDelete, Keys: []string{"4"}, Origin: "other"},
		{Table: "user", Operation: core.ChangeClear, Origin: "other"},
	}
	for _, change := range changes {
		if err := feed.Publish(ctx, change); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	n, err := c.Poll(ctx)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if n != len(changes) {
		t.Errorf("Poll() = %d, want %d", n, len(changes))
	}

	evicted, cleared := user.snapshot()
	if !slices.Equal(evicted, []string{"1", "2"}) {
		t.Errorf("evicted = %v, want [1 2]", evicted)
	}
	if cleared != 1 {
		t.Errorf("cleared = %d, want 1", cleared)
	}
	if c.Applied() != 2 || c.Skipped() != 2 {
		t.Errorf("Applied() = %d, Skipped() = %d, want 2 and 2", c.Applied(), c.Skipped())
	}
}

func TestConsumerStartStop(t *testing.T) {
	ctx := context.Background()
	feed := NewMemoryFeed(10)
	user := &fakeOwner{name: "user"}
	c := NewConsumer(feed, owners{"user": user}, "self", ConsumerConfig{PollInterval: 5 * time.Millisecond}, zerolog.Nop())

	c.Start(ctx)
	c.Start(ctx)
	if !c.Running() {
		t.Fatal("Running() = false after Start")
	}

	if err := feed.Publish(ctx, &core.Change{Table: "user", Operation: core.ChangeDelete, Keys: []string{"9"}, Origin: "other"}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if evicted, _ := user.snapshot(); len(evicted) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("change was not applied by the running consumer")
		}
		time.Sleep(5 * time.Millisecond)
	}

	c.Stop()
	c.Stop()
	if c.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestConsumerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewConsumer(NewMemoryFeed(1), owners{}, "self", ConsumerConfig{}, zerolog.Nop())
	c.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return after the context was cancelled")
	}
}
