// Package analytics derives streaks, monthly completion and focus totals from
// stored habit logs and focus sessions.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"studytrack/backend/internal/calendar"
	"studytrack/backend/internal/model"
)

// ErrUnavailable is returned whenever a storage read fails. Results are never
// partial: callers get either a complete answer or this error.
var ErrUnavailable = errors.New("analytics unavailable")

const DefaultStreakWindowDays = 90

type HabitStore interface {
	ListHabits(ctx context.Context, userID string) ([]model.Habit, error)
	ListHabitLogs(ctx context.Context, userID string, habitIDs []string, from, to calendar.Date) ([]model.HabitLogEntry, error)
}

type FocusStore interface {
	ListCompletedFocusSessions(ctx context.Context, userID string, from, to time.Time) ([]model.CompletedFocusSession, error)
	FocusTotals(ctx context.Context, userID string) (sessions int, minutes int, err error)
}

type Snapshot struct {
	Today           calendar.Date    `json:"today"`
	CurrentStreak   int              `json:"currentStreak"`
	Monthly         MonthlyAggregate `json:"monthly"`
	DailyFocusHours []DailyFocus     `json:"dailyFocusHours"`
	TotalFocusHours float64          `json:"totalFocusHours"`
	TotalSessions   int              `json:"totalSessions"`
}

type Option func(*Engine)

// WithStreakWindow sets how many days each streak read loads. Values below two
// are ignored.
func WithStreakWindow(days int) Option {
	return func(e *Engine) {
		if days >= 2 {
			e.streakWindow = days
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

type Engine struct {
	habits       HabitStore
	focus        FocusStore
	streakWindow int
	loc          *time.Location
	tracer       trace.Tracer
}

func NewEngine(habits HabitStore, focus FocusStore, opts ...Option) *Engine {
	e := &Engine{
		habits:       habits,
		focus:        focus,
		streakWindow: DefaultStreakWindowDays,
		loc:          time.UTC,
		tracer:       otel.Tracer("studytrack/analytics"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// Streak walks back from today one window at a time until the chain of
// completed days breaks, so arbitrarily long streaks are counted exactly.
func (e *Engine) Streak(ctx context.Context, userID string, today calendar.Date) (int, error) {
	ctx, span := e.start(ctx, "analytics.Streak", userID)
	defer span.End()

	streak, err := e.streak(ctx, userID, today)
	return streak, e.fail(span, err)
}

func (e *Engine) streak(ctx context.Context, userID string, today calendar.Date) (int, error) {
	end := today
	start := end.AddDays(-(e.streakWindow - 1))
	days, err := e.completedDays(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}

	cursor, ok := streakStart(days, today)
	if !ok {
		return 0, nil
	}

	streak := 0
	for {
		for !cursor.Before(start) && days.Has(cursor) {
			streak++
			cursor = cursor.AddDays(-1)
		}
		if !cursor.Before(start) {
			return streak, nil
		}

		end = start.AddDays(-1)
		start = end.AddDays(-(e.streakWindow - 1))
		if days, err = e.completedDays(ctx, userID, start, end); err != nil {
			return 0, err
		}
	}
}

func (e *Engine) completedDays(ctx context.Context, userID string, from, to calendar.Date) (DaySet, error) {
	entries, err := e.habits.ListHabitLogs(ctx, userID, nil, from, to)
	if err != nil {
		return nil, fmt.Errorf("load habit logs %s..%s: %w", from, to, err)
	}
	return CompletedDays(entries), nil
}

func (e *Engine) Monthly(ctx context.Context, userID string, year int, month time.Month) (MonthlyAggregate, error) {
	ctx, span := e.start(ctx, "analytics.Monthly", userID)
	defer span.End()

	agg, err := e.monthly(ctx, userID, year, month)
	return agg, e.fail(span, err)
}

func (e *Engine) monthly(ctx context.Context, userID string, year int, month time.Month) (MonthlyAggregate, error) {
	habits, err := e.habits.ListHabits(ctx, userID)
	if err != nil {
		return MonthlyAggregate{}, fmt.Errorf("load habits: %w", err)
	}
	entries, err := e.habits.ListHabitLogs(ctx, userID, nil, calendar.FirstOfMonth(year, month), calendar.LastOfMonth(year, month))
	if err != nil {
		return MonthlyAggregate{}, fmt.Errorf("load month logs: %w", err)
	}

	completed := 0
	for _, entry := range entries {
		if entry.Completed {
			completed++
		}
	}
	return MonthlyCompletion(len(habits), year, month, completed), nil
}

func (e *Engine) DailyFocus(ctx context.Context, userID string, today calendar.Date) ([]DailyFocus, error) {
	ctx, span := e.start(ctx, "analytics.DailyFocus", userID)
	defer span.End()

	buckets, err := e.dailyFocus(ctx, userID, today)
	return buckets, e.fail(span, err)
}

func (e *Engine) dailyFocus(ctx context.Context, userID string, today calendar.Date) ([]DailyFocus, error) {
	from := today.AddDays(-(FocusWindowDays - 1)).Start(e.loc)
	to := today.AddDays(1).Start(e.loc)
	sessions, err := e.focus.ListCompletedFocusSessions(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load focus sessions: %w", err)
	}
	return BucketDailyFocus(sessions, today, e.loc), nil
}

// Snapshot runs every read concurrently and fails as a whole if any one fails.
func (e *Engine) Snapshot(ctx context.Context, userID string, today calendar.Date) (*Snapshot, error) {
	ctx, span := e.start(ctx, "analytics.Snapshot", userID)
	defer span.End()
	span.SetAttributes(attribute.String("today", today.String()))

	snap := &Snapshot{Today: today}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		streak, err := e.streak(gctx, userID, today)
		snap.CurrentStreak = streak
		return err
	})
	g.Go(func() error {
		monthly, err := e.monthly(gctx, userID, today.Year, today.Month)
		snap.Monthly = monthly
		return err
	})
	g.Go(func() error {
		buckets, err := e.dailyFocus(gctx, userID, today)
		snap.DailyFocusHours = buckets
		return err
	})
	g.Go(func() error {
		sessions, minutes, err := e.focus.FocusTotals(gctx, userID)
		if err != nil {
			return fmt.Errorf("load focus totals: %w", err)
		}
		snap.TotalSessions = sessions
		snap.TotalFocusHours = HoursFromMinutes(minutes)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, e.fail(span, err)
	}
	return snap, nil
}

func (e *Engine) start(ctx context.Context, name, userID string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("user.id", userID)))
}

func (e *Engine) fail(span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
