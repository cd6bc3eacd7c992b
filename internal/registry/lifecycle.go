package registry

import (
	"context"
	"sync"

	"github.com/rzpsarthak13/sqlobjects/internal/core"
)

// LifecycleHook runs when a handler joins or leaves a registry. Hooks are
// called synchronously. An error from OnRegister aborts the registration.
type LifecycleHook interface {
	OnRegister(ctx context.Context, owner core.CacheOwner) error
	OnUnregister(ctx context.Context, owner core.CacheOwner) error
}

// LifecycleHookFunc adapts plain functions to LifecycleHook. Nil functions
// are skipped.
type LifecycleHookFunc struct {
	OnRegisterFunc   func(ctx context.Context, owner core.CacheOwner) error
	OnUnregisterFunc func(ctx context.Context, owner core.CacheOwner) error
}

// OnRegister calls OnRegisterFunc if it is set.
func (f LifecycleHookFunc) OnRegister(ctx context.Context, owner core.CacheOwner) error {
	if f.OnRegisterFunc != nil {
		return f.OnRegisterFunc(ctx, owner)
	}
	return nil
}

// OnUnregister calls OnUnregisterFunc if it is set.
func (f LifecycleHookFunc) OnUnregister(ctx context.Context, owner core.CacheOwner) error {
	if f.OnUnregisterFunc != nil {
		return f.OnUnregisterFunc(ctx, owner)
	}
	return nil
}

// LifecycleManager holds hooks and runs them in registration order.
type LifecycleManager struct {
	mu    sync.RWMutex
	hooks []LifecycleHook
}

// NewLifecycleManager creates an empty lifecycle manager.
func NewLifecycleManager() *LifecycleManager {
	return &LifecycleManager{}
}

// RegisterHook appends a hook.
func (lm *LifecycleManager) RegisterHook(hook LifecycleHook) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.hooks = append(lm.hooks, hook)
}

// HookCount returns the number of registered hooks.
func (lm *LifecycleManager) HookCount() int {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return len(lm.hooks)
}

// runRegister stops at the first failing hook.
func (lm *LifecycleManager) runRegister(ctx context.Context, owner core.CacheOwner) error {
	for _, hook := range lm.snapshot() {
		if err := hook.OnRegister(ctx, owner); err != nil {
			return err
		}
	}
	return nil
}

// runUnregister runs every hook and returns the first error.
func (lm *LifecycleManager) runUnregister(ctx context.Context, owner core.CacheOwner) error {
	var first error
	for _, hook := range lm.snapshot() {
		if err := hook.OnUnregister(ctx, owner); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (lm *LifecycleManager) snapshot() []LifecycleHook {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	hooks := make([]LifecycleHook, len(lm.hooks))
	copy(hooks, lm.hooks)
	return hooks
}
