package hook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mz0in/polar/account"
	"github.com/mz0in/polar/transaction"
)

// callTimeout bounds a single hook invocation. Hooks must never block
// the fee pipeline.
const callTimeout = 5 * time.Second

// Registry manages registered hooks and dispatches events to them.
// Interface lists are cached at registration so dispatch does no type
// assertions.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	onInit               []OnInit
	onShutdown           []OnShutdown
	onBalanceCreated     []OnBalanceCreated
	onFeesReversed       []OnFeesReversed
	onPayoutFeesComputed []OnPayoutFeesComputed
	onPayoutBlocked      []OnPayoutBlocked
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a hook to the registry and caches its interfaces.
func (r *Registry) Register(h Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.hooks {
		if existing.Name() == h.Name() {
			return fmt.Errorf("hook: duplicate registration: %s", h.Name())
		}
	}

	r.hooks = append(r.hooks, h)

	if v, ok := h.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := h.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := h.(OnBalanceCreated); ok {
		r.onBalanceCreated = append(r.onBalanceCreated, v)
	}
	if v, ok := h.(OnFeesReversed); ok {
		r.onFeesReversed = append(r.onFeesReversed, v)
	}
	if v, ok := h.(OnPayoutFeesComputed); ok {
		r.onPayoutFeesComputed = append(r.onPayoutFeesComputed, v)
	}
	if v, ok := h.(OnPayoutBlocked); ok {
		r.onPayoutBlocked = append(r.onPayoutBlocked, v)
	}

	r.logger.Info("hook registered", "name", h.Name())
	return nil
}

// Get returns a hook by name, or nil.
func (r *Registry) Get(name string) Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.hooks {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// ──────────────────────────────────────────────────
// Event emission
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all hooks that implement it.
func (r *Registry) EmitInit(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	for _, h := range hooks {
		r.call(ctx, h.Name(), "OnInit", func() error {
			return h.OnInit(ctx)
		})
	}
}

// EmitShutdown calls OnShutdown for all hooks that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	for _, h := range hooks {
		r.call(ctx, h.Name(), "OnShutdown", func() error {
			return h.OnShutdown(ctx)
		})
	}
}

// EmitBalanceCreated emits a balance transfer recorded event.
func (r *Registry) EmitBalanceCreated(ctx context.Context, pair transaction.Pair) {
	r.mu.RLock()
	hooks := r.onBalanceCreated
	r.mu.RUnlock()

	for _, h := range hooks {
		r.call(ctx, h.Name(), "OnBalanceCreated", func() error {
			return h.OnBalanceCreated(ctx, pair)
		})
	}
}

// EmitFeesReversed emits a fees reversed event.
func (r *Registry) EmitFeesReversed(ctx context.Context, balance transaction.Pair, fees []transaction.Pair) {
	r.mu.RLock()
	hooks := r.onFeesReversed
	r.mu.RUnlock()

	for _, h := range hooks {
		r.call(ctx, h.Name(), "OnFeesReversed", func() error {
			return h.OnFeesReversed(ctx, balance, fees)
		})
	}
}

// EmitPayoutFeesComputed emits a payout fees computed event.
func (r *Registry) EmitPayoutFeesComputed(ctx context.Context, acct *account.Account, amount int64, fees []transaction.Pair) {
	r.mu.RLock()
	hooks := r.onPayoutFeesComputed
	r.mu.RUnlock()

	for _, h := range hooks {
		r.call(ctx, h.Name(), "OnPayoutFeesComputed", func() error {
			return h.OnPayoutFeesComputed(ctx, acct, amount, fees)
		})
	}
}

// EmitPayoutBlocked emits a payout blocked event.
func (r *Registry) EmitPayoutBlocked(ctx context.Context, acct *account.Account, amount int64, reason error) {
	r.mu.RLock()
	hooks := r.onPayoutBlocked
	r.mu.RUnlock()

	for _, h := range hooks {
		r.call(ctx, h.Name(), "OnPayoutBlocked", func() error {
			return h.OnPayoutBlocked(ctx, acct, amount, reason)
		})
	}
}

// call invokes one hook function with a timeout, logging failures
// instead of propagating them: hooks are observers, not gatekeepers.
func (r *Registry) call(ctx context.Context, hookName, event string, fn func() error) {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(callTimeout):
		err = fmt.Errorf("hook timeout: %s", hookName)
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		r.logger.Warn("hook failed",
			"hook", hookName,
			"event", event,
			"error", err,
		)
	}
}
