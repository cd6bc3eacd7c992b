// Package registry tracks the table handlers of one client so change events
// can be routed to their caches by table name.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

var (
	// ErrNotRegistered is returned for table names the registry does not know.
	ErrNotRegistered = errors.New("table is not registered")

	// ErrAlreadyRegistered is returned when a second handler claims a table name.
	ErrAlreadyRegistered = errors.New("table is already registered")
)

// Entry describes a registered handler.
type Entry struct {
	Owner        core.CacheOwner
	RegisteredAt time.Time
}

// Registry maps table names to handlers. Hooks run while the registry lock is
// held and must not call back into the registry.
type Registry struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	lifecycle *LifecycleManager
}

// New creates a registry. A nil lifecycle manager gets an empty one.
func New(lifecycle *LifecycleManager) *Registry {
	if lifecycle == nil {
		lifecycle = NewLifecycleManager()
	}
	return &Registry{
		entries:   make(map[string]*Entry),
		lifecycle: lifecycle,
	}
}

// Lifecycle returns the registry's lifecycle manager.
func (r *Registry) Lifecycle() *LifecycleManager {
	return r.lifecycle
}

// Register adds a handler under its table name and runs the register hooks.
func (r *Registry) Register(ctx context.Context, owner core.CacheOwner) error {
	if owner == nil {
		return errors.New("handler cannot be nil")
	}
	name := owner.Name()
	if name == "" {
		return errors.New("table name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	if err := r.lifecycle.runRegister(ctx, owner); err != nil {
		return fmt.Errorf("register hook failed for table %q: %w", name, err)
	}

	r.entries[name] = &Entry{Owner: owner, RegisteredAt: time.Now()}
	return nil
}

// Unregister removes a handler and runs the unregister hooks. The handler is
// removed even when a hook fails.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	delete(r.entries, name)

	if err := r.lifecycle.runUnregister(ctx, entry.Owner); err != nil {
		return fmt.Errorf("unregister hook failed for table %q: %w", name, err)
	}
	return nil
}

// Get returns the handler registered for name.
func (r *Registry) Get(name string) (core.CacheOwner, error) {
	owner, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return owner, nil
}

// Lookup returns the handler registered for name, if any.
func (r *Registry) Lookup(name string) (core.CacheOwner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return entry.Owner, true
}

// Entry returns a copy of the registration record for name.
func (r *Registry) Entry(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return *entry, nil
}

// List returns the registered table names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered handlers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// CacheSizes returns the number of cached records per table.
func (r *Registry) CacheSizes() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sizes := make(map[string]int, len(r.entries))
	for name, entry := range r.entries {
		sizes[name] = entry.Owner.CacheSize()
	}
	return sizes
}

// EmptyCaches empties the cache of every registered handler.
func (r *Registry) EmptyCaches() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.entries {
		entry.Owner.EmptyCache()
	}
}

// Clear unregisters every handler. All unregister hooks run; the first hook
// error is returned.
func (r *Registry) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for name, entry := range r.entries {
		if err := r.lifecycle.runUnregister(ctx, entry.Owner); err != nil && first == nil {
			first = fmt.Errorf("unregister hook failed for table %q: %w", name, err)
		}
	}
	r.entries = make(map[string]*Entry)
	return first
}
