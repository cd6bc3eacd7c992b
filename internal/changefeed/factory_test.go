package changefeed

import (
	"context"
	"slices"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rzpsarthak13/sqlobjects/internal/config"
)

func TestRegisteredTypes(t *testing.T) {
	got := Types()
	for _, want := range []string{"kafka", "memory", "redis"} {
		if !slices.Contains(got, want) {
			t.Errorf("Types() = %v, missing %q", got, want)
		}
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default().Feed

	for _, typ := range []string{"", "none"} {
		cfg.Type = typ
		feed, err := New(ctx, cfg, zerolog.Nop())
		if err != nil || feed != nil {
			t.Errorf("New(%q) = %v, %v, want nil feed", typ, feed, err)
		}
	}

	cfg.Type = "memory"
	feed, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New(memory) error = %v", err)
	}
	if _, ok := feed.(*MemoryFeed); !ok {
		t.Errorf("New(memory) = %T, want *MemoryFeed", feed)
	}
	feed.Close()

	cfg.Type = "carrier-pigeon"
	if _, err := New(ctx, cfg, zerolog.Nop()); err == nil {
		t.Error("New() with an unknown type should fail")
	}
}

func TestRegisterPanics(t *testing.T) {
	tests := []struct {
		name    string
		factory Factory
	}{
		{"nil", nil},
		{"duplicate", memoryFactory{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Register() should panic")
				}
			}()
			Register(tt.factory)
		})
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName("app"); got != "app:changes" {
		t.Errorf("ChannelName(app) = %q", got)
	}
	if got := ChannelName(""); got != "changes" {
		t.Errorf("ChannelName(\"\") = %q", got)
	}
}
