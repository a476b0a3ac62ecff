package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"studytrack/backend/internal/clock"
)

// UserCompletionHandler receives completions from every timer in a registry.
// Like CompletionHandler it runs under the owning timer's lock.
type UserCompletionHandler func(userID string, completed PhaseCompleted)

// Registry owns exactly one Timer per user so that every surface a user has
// open observes the same countdown.
type Registry struct {
	mu         sync.Mutex
	clock      clock.Clock
	defaults   Config
	onComplete UserCompletionHandler
	logger     *slog.Logger
	timers     map[string]*Timer
}

func NewRegistry(clk clock.Clock, defaults Config, onComplete UserCompletionHandler, logger *slog.Logger) *Registry {
	if defaults.Validate() != nil {
		defaults = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		clock:      clk,
		defaults:   defaults,
		onComplete: onComplete,
		logger:     logger,
		timers:     make(map[string]*Timer),
	}
}

func (r *Registry) Get(userID string) *Timer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.timers[userID]; ok {
		return t
	}
	opts := []Option{WithConfig(r.defaults)}
	if r.onComplete != nil {
		handler := r.onComplete
		opts = append(opts, WithCompletionHandler(func(completed PhaseCompleted) {
			handler(userID, completed)
		}))
	}
	t := New(r.clock, opts...)
	r.timers[userID] = t
	return t
}

// TickAll refreshes every timer and returns how many observed expiry.
func (r *Registry) TickAll() int {
	r.mu.Lock()
	timers := make(map[string]*Timer, len(r.timers))
	for id, t := range r.timers {
		timers[id] = t
	}
	r.mu.Unlock()

	expired := 0
	for userID, t := range timers {
		state, done := t.Tick()
		if done {
			expired++
			r.logger.Info("timer phase completed",
				slog.String("uid", userID),
				slog.String("next_phase", string(state.Phase)),
			)
		}
	}
	return expired
}

// Run ticks all timers at the given interval until ctx is cancelled. The loop
// only refreshes display state; reads recompute on their own.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("timer tick loop started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("timer tick loop stopped")
			return
		case <-ticker.C:
			r.TickAll()
		}
	}
}
