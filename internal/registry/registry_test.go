package registry

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

type stubOwner struct {
	name    string
	size    int
	evicted []string
}

func (s *stubOwner) Name() string         { return s.name }
func (s *stubOwner) Evict(keys ...string) { s.evicted = append(s.evicted, keys...) }
func (s *stubOwner) EmptyCache()          { s.size = 0 }
func (s *stubOwner) CacheSize() int       { return s.size }

func TestRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	r := New(nil)

	user := &stubOwner{name: "user", size: 2}
	order := &stubOwner{name: "order", size: 5}
	for _, o := range []*stubOwner{user, order} {
		if err := r.Register(ctx, o); err != nil {
			t.Fatalf("Register(%s) error = %v", o.name, err)
		}
	}

	if err := r.Register(ctx, &stubOwner{name: "user"}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate Register() error = %v, want ErrAlreadyRegistered", err)
	}
	if err := r.Register(ctx, &stubOwner{}); err == nil {
		t.Error("Register() with an empty name should fail")
	}

	got, ok := r.Lookup("user")
	if !ok || got != user {
		t.Errorf("Lookup(user) = %v, %v", got, ok)
	}
	if _, err := r.Get("missing"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Get(missing) error = %v, want ErrNotRegistered", err)
	}
	if names := r.List(); !slices.Equal(names, []string{"order", "user"}) {
		t.Errorf("List() = %v", names)
	}

	sizes := r.CacheSizes()
	if sizes["user"] != 2 || sizes["order"] != 5 {
		t.Errorf("CacheSizes() = %v", sizes)
	}
	r.EmptyCaches()
	if user.size != 0 || order.size != 0 {
		t.Errorf("EmptyCaches() left sizes %d and %d", user.size, order.size)
	}

	if err := r.Unregister(ctx, "user"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if _, ok := r.Lookup("user"); ok {
		t.Error("Lookup() found an unregistered table")
	}
	if err := r.Unregister(ctx, "user"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("second Unregister() error = %v, want ErrNotRegistered", err)
	}
}

func TestLifecycleHooks(t *testing.T) {
	ctx := context.Background()
	lm := NewLifecycleManager()

	var events []string
	lm.RegisterHook(LifecycleHookFunc{
		OnRegisterFunc: func(_ context.Context, o core.CacheOwner) error {
			if o.Name() == "forbidden" {
				return errors.New("not allowed")
			}
			events = append(events, "register:"+o.Name())
			return nil
		},
		OnUnregisterFunc: func(_ context.Context, o core.CacheOwner) error {
			events = append(events, "unregister:"+o.Name())
			return nil
		},
	})
	lm.RegisterHook(LifecycleHookFunc{})
	if lm.HookCount() != 2 {
		t.Fatalf("HookCount() = %d, want 2", lm.HookCount())
	}

	r := New(lm)
	if err := r.Register(ctx, &stubOwner{name: "user"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(ctx, &stubOwner{name: "forbidden"}); err == nil {
		t.Error("Register() should fail when a hook fails")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	if err := r.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count() after Clear = %d", r.Count())
	}

	want := []string{"register:user", "unregister:user"}
	if !slices.Equal(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}
