// Package reporter persists completed focus phases without ever holding up the
// timer that produced them.
package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"studytrack/backend/internal/metrics"
	"studytrack/backend/internal/timer"
)

const DefaultTimeout = 5 * time.Second

type Store interface {
	CreateCompletedFocusSession(ctx context.Context, userID, taskLabel string, durationMinutes int, completedAt time.Time) (string, error)
}

// PersistenceFailure describes a completion that could not be written.
type PersistenceFailure struct {
	UserID    string
	Completed timer.PhaseCompleted
	Err       error
}

func (f *PersistenceFailure) Error() string {
	return fmt.Sprintf("persist focus session for user %s at %s: %v",
		f.UserID, f.Completed.CompletedAt.Format(time.RFC3339), f.Err)
}

func (f *PersistenceFailure) Unwrap() error {
	return f.Err
}

type Option func(*Reporter)

func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reporter) {
		r.metrics = m
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithFailureHook is called after a failed write has been logged.
func WithFailureHook(fn func(*PersistenceFailure)) Option {
	return func(r *Reporter) {
		r.onFailure = fn
	}
}

type Reporter struct {
	store     Store
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	onFailure func(*PersistenceFailure)

	wg sync.WaitGroup
}

func New(store Store, opts ...Option) *Reporter {
	r := &Reporter{
		store:   store,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report hands a completion off to a background write and returns at once.
// Break completions are not persisted. Failed writes are not retried.
func (r *Reporter) Report(userID string, completed timer.PhaseCompleted) {
	if r.metrics != nil {
		r.metrics.PhaseCompletions.WithLabelValues(string(completed.Phase)).Inc()
	}
	if completed.Phase != timer.PhaseFocus {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.persist(userID, completed)
	}()
}

// Wait blocks until every write started by Report has finished.
func (r *Reporter) Wait() {
	r.wg.Wait()
}

func (r *Reporter) persist(userID string, completed timer.PhaseCompleted) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	id, err := r.store.CreateCompletedFocusSession(ctx, userID, completed.TaskLabel, completed.DurationMinutes, completed.CompletedAt)
	if err != nil {
		failure := &PersistenceFailure{UserID: userID, Completed: completed, Err: err}
		r.logger.Error("focus session not recorded",
			slog.String("uid", userID),
			slog.String("task", completed.TaskLabel),
			slog.Int("minutes", completed.DurationMinutes),
			slog.Any("err", failure),
		)
		r.count("failed")
		if r.onFailure != nil {
			r.onFailure(failure)
		}
		return
	}

	r.logger.Info("focus session recorded",
		slog.String("uid", userID),
		slog.String("session_id", id),
		slog.Int("minutes", completed.DurationMinutes),
	)
	r.count("persisted")
}

func (r *Reporter) count(result string) {
	if r.metrics != nil {
		r.metrics.SessionReports.WithLabelValues(result).Inc()
	}
}
