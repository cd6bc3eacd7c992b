package changefeed

import (
	"context"
	"errors"
	"testing"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

func TestMemoryFeedOrder(t *testing.T) {
	ctx := context.Background()
	feed := NewMemoryFeed(10)
	defer feed.Close()

	for _, key := range []string{"1", "2", "3"} {
		if err := feed.Publish(ctx, &core.Change{Table: "user", Operation: core.ChangeDelete, Keys: []string{key}}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	if feed.Size() != 3 {
		t.Errorf("Size() = %d, want 3", feed.Size())
	}

	got, err := feed.Receive(ctx, 2)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(got) != 2 || got[0].Keys[0] != "1" || got[1].Keys[0] != "2" {
		t.Fatalf("Receive(2) = %v, want keys 1 and 2", got)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("Publish() should stamp a timestamp")
	}

	got, err = feed.Receive(ctx, 10)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if len(got) != 1 || got[0].Keys[0] != "3" {
		t.Fatalf("Receive(10) = %v, want key 3", got)
	}

	got, err = feed.Receive(ctx, 10)
	if err != nil || len(got) != 0 {
		t.Errorf("Receive() on empty feed = %v, %v, want empty", got, err)
	}
}

func TestMemoryFeedErrors(t *testing.T) {
	ctx := context.Background()
	feed := NewMemoryFeed(1)

	tests := []struct {
		name   string
		change *core.Change
		want   error
	}{
		{"nil change", nil, ErrInvalidChange},
		{"missing table", &core.Change{Operation: core.ChangeClear}, ErrInvalidChange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := feed.Publish(ctx, tt.change); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := feed.Publish(ctx, &core.Change{Table: "user", Operation: core.ChangeClear}); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := feed.Publish(ctx, &core.Change{Table: "user", Operation: core.ChangeClear}); !errors.Is(err, ErrFeedFull) {
		t.Errorf("Publish() on full feed error = %v, want ErrFeedFull", err)
	}

	if err := feed.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := feed.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := feed.Publish(ctx, &core.Change{Table: "user"}); !errors.Is(err, ErrFeedClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrFeedClosed", err)
	}
	if _, err := feed.Receive(ctx, 1); !errors.Is(err, ErrFeedClosed) {
		t.Errorf("Receive() after Close error = %v, want ErrFeedClosed", err)
	}
}
