package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studytrack/backend/internal/calendar"
	"studytrack/backend/internal/model"
)

func days(dates ...calendar.Date) DaySet {
	set := DaySet{}
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}

func TestCurrentStreak(t *testing.T) {
	march := days(
		calendar.New(2024, time.March, 8),
		calendar.New(2024, time.March, 9),
		calendar.New(2024, time.March, 10),
	)

	testCases := []struct {
		Desc  string
		Days  DaySet
		Today calendar.Date
		Want  int
	}{
		{Desc: "chain ending today", Days: march, Today: calendar.New(2024, time.March, 10), Want: 3},
		{Desc: "grace day keeps yesterday's chain", Days: march, Today: calendar.New(2024, time.March, 11), Want: 3},
		{Desc: "two idle days break it", Days: march, Today: calendar.New(2024, time.March, 12), Want: 0},
		{Desc: "no completions", Days: DaySet{}, Today: calendar.New(2024, time.March, 10), Want: 0},
		{
			Desc: "year boundary",
			Days: days(
				calendar.New(2023, time.December, 30),
				calendar.New(2023, time.December, 31),
				calendar.New(2024, time.January, 1),
			),
			Today: calendar.New(2024, time.January, 1),
			Want:  3,
		},
		{
			Desc: "leap day",
			Days: days(
				calendar.New(2024, time.February, 28),
				calendar.New(2024, time.February, 29),
				calendar.New(2024, time.March, 1),
			),
			Today: calendar.New(2024, time.March, 2),
			Want:  3,
		},
		{
			Desc:  "gap stops the walk",
			Days:  days(calendar.New(2024, time.March, 7), calendar.New(2024, time.March, 9), calendar.New(2024, time.March, 10)),
			Today: calendar.New(2024, time.March, 10),
			Want:  2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.Desc, func(t *testing.T) {
			assert.Equal(t, tc.Want, CurrentStreak(tc.Days, tc.Today))
		})
	}
}

func TestCompletedDaysIgnoresUntoggledEntries(t *testing.T) {
	d := calendar.New(2024, time.March, 10)
	set := CompletedDays([]model.HabitLogEntry{
		{HabitID: "a", LogDate: d, Completed: false},
		{HabitID: "b", LogDate: d.AddDays(-1), Completed: true},
		{HabitID: "a", LogDate: d.AddDays(-1), Completed: true},
	})
	assert.False(t, set.Has(d))
	assert.True(t, set.Has(d.AddDays(-1)))
	assert.Len(t, set, 1)
}

func TestMonthlyCompletion(t *testing.T) {
	agg := MonthlyCompletion(2, 2024, time.April, 40)
	assert.Equal(t, MonthlyAggregate{
		Year:                     2024,
		Month:                    4,
		HabitCount:               2,
		DaysInMonth:              30,
		TotalPossibleCompletions: 60,
		TotalCompleted:           40,
		Percentage:               67,
	}, agg)

	assert.Equal(t, 29, MonthlyCompletion(1, 2024, time.February, 0).DaysInMonth)
	assert.Equal(t, 28, MonthlyCompletion(1, 2023, time.February, 0).DaysInMonth)
	assert.Zero(t, MonthlyCompletion(0, 2024, time.March, 5).Percentage)
	// 3/120 is 2.5%, which rounds up.
	assert.Equal(t, 3, MonthlyCompletion(4, 2024, time.April, 3).Percentage)
	assert.Equal(t, 100, MonthlyCompletion(1, 2024, time.March, 31).Percentage)
}

func TestBucketDailyFocus(t *testing.T) {
	today := calendar.New(2024, time.March, 10)
	at := func(day, hour int) time.Time {
		return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
	}
	sessions := []model.CompletedFocusSession{
		{DurationMinutes: 25, CompletedAt: at(10, 9)},
		{DurationMinutes: 35, CompletedAt: at(10, 14)},
		{DurationMinutes: 50, CompletedAt: at(4, 8)},
		{DurationMinutes: 90, CompletedAt: at(3, 23)},
		{DurationMinutes: 10, CompletedAt: at(11, 1)},
	}

	buckets := BucketDailyFocus(sessions, today, time.UTC)
	assert.Equal(t, []DailyFocus{
		{Date: calendar.New(2024, time.March, 4), Minutes: 50, Hours: 0.8},
		{Date: calendar.New(2024, time.March, 10), Minutes: 60, Hours: 1.0},
	}, buckets)

	assert.Empty(t, BucketDailyFocus(nil, today, time.UTC))
}

func TestBucketDailyFocusUsesLocalDate(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	today := calendar.New(2024, time.March, 10)
	// 2024-03-09T20:00Z is already the 10th in Tokyo.
	sessions := []model.CompletedFocusSession{
		{DurationMinutes: 30, CompletedAt: time.Date(2024, time.March, 9, 20, 0, 0, 0, time.UTC)},
	}

	utc := BucketDailyFocus(sessions, today, time.UTC)
	require.Len(t, utc, 1)
	assert.Equal(t, calendar.New(2024, time.March, 9), utc[0].Date)

	local := BucketDailyFocus(sessions, today, tokyo)
	require.Len(t, local, 1)
	assert.Equal(t, today, local[0].Date)
	assert.Equal(t, 0.5, local[0].Hours)
}

func TestHoursFromMinutes(t *testing.T) {
	assert.Equal(t, 1.0, HoursFromMinutes(60))
	assert.Equal(t, 0.4, HoursFromMinutes(25))
	assert.Equal(t, 2.5, HoursFromMinutes(150))
	assert.Equal(t, 0.0, HoursFromMinutes(0))
}

func TestStreakStart(t *testing.T) {
	today := calendar.New(2024, time.March, 1)
	leapDay := calendar.New(2024, time.February, 29)

	tests := []struct {
		name  string
		days  DaySet
		want  calendar.Date
		found bool
	}{
		{name: "today done", days: days(today, leapDay), want: today, found: true},
		{name: "grace day", days: days(leapDay), want: leapDay, found: true},
		{name: "gap", days: days(leapDay.AddDays(-1)), want: leapDay, found: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := streakStart(tt.days, today)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeHabitStore struct {
	mu       sync.Mutex
	habits   []model.Habit
	logs     []model.HabitLogEntry
	logsErr  error
	logReads int
}

func (s *fakeHabitStore) ListHabits(_ context.Context, _ string) ([]model.Habit, error) {
	return s.habits, nil
}

func (s *fakeHabitStore) ListHabitLogs(_ context.Context, _ string, _ []string, from, to calendar.Date) ([]model.HabitLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logReads++
	if s.logsErr != nil {
		return nil, s.logsErr
	}
	var out []model.HabitLogEntry
	for _, entry := range s.logs {
		if !entry.LogDate.Before(from) && !entry.LogDate.After(to) {
			out = append(out, entry)
		}
	}
	return out, nil
}

type fakeFocusStore struct {
	sessions  []model.CompletedFocusSession
	totalsErr error
}

func (s *fakeFocusStore) ListCompletedFocusSessions(_ context.Context, _ string, from, to time.Time) ([]model.CompletedFocusSession, error) {
	var out []model.CompletedFocusSession
	for _, session := range s.sessions {
		if !session.CompletedAt.Before(from) && session.CompletedAt.Before(to) {
			out = append(out, session)
		}
	}
	return out, nil
}

func (s *fakeFocusStore) FocusTotals(_ context.Context, _ string) (int, int, error) {
	if s.totalsErr != nil {
		return 0, 0, s.totalsErr
	}
	minutes := 0
	for _, session := range s.sessions {
		minutes += session.DurationMinutes
	}
	return len(s.sessions), minutes, nil
}

func chain(end calendar.Date, n int) []model.HabitLogEntry {
	entries := make([]model.HabitLogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, model.HabitLogEntry{HabitID: "h1", LogDate: end.AddDays(-i), Completed: true})
	}
	return entries
}

func TestEngineStreakSpansWindows(t *testing.T) {
	today := calendar.New(2024, time.March, 10)
	habits := &fakeHabitStore{logs: chain(today.AddDays(-1), 25)}
	engine := NewEngine(habits, &fakeFocusStore{}, WithStreakWindow(7))

	streak, err := engine.Streak(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.Equal(t, 25, streak)
	// The gap before the 25th day falls inside the fourth 7-day window.
	assert.Equal(t, 4, habits.logReads)
}

func TestEngineStreakMatchesPureFunction(t *testing.T) {
	today := calendar.New(2024, time.January, 2)
	logs := append(chain(today, 4), model.HabitLogEntry{HabitID: "h1", LogDate: today.AddDays(-6), Completed: true})
	habits := &fakeHabitStore{logs: logs}
	engine := NewEngine(habits, &fakeFocusStore{}, WithStreakWindow(2))

	for offset := 0; offset < 4; offset++ {
		day := today.AddDays(offset)
		got, err := engine.Streak(context.Background(), "u1", day)
		require.NoError(t, err)
		assert.Equal(t, CurrentStreak(CompletedDays(logs), day), got, day.String())
	}
}

func TestEngineSnapshot(t *testing.T) {
	today := calendar.New(2024, time.April, 10)
	habits := &fakeHabitStore{
		habits: []model.Habit{{ID: "h1"}, {ID: "h2"}},
		logs:   chain(today, 3),
	}
	focus := &fakeFocusStore{sessions: []model.CompletedFocusSession{
		{DurationMinutes: 25, CompletedAt: time.Date(2024, time.April, 10, 9, 0, 0, 0, time.UTC)},
		{DurationMinutes: 35, CompletedAt: time.Date(2024, time.April, 10, 10, 0, 0, 0, time.UTC)},
		{DurationMinutes: 45, CompletedAt: time.Date(2024, time.January, 5, 10, 0, 0, 0, time.UTC)},
	}}
	engine := NewEngine(habits, focus)

	snap, err := engine.Snapshot(context.Background(), "u1", today)
	require.NoError(t, err)
	assert.Equal(t, today, snap.Today)
	assert.Equal(t, 3, snap.CurrentStreak)
	assert.Equal(t, 60, snap.Monthly.TotalPossibleCompletions)
	assert.Equal(t, 3, snap.Monthly.TotalCompleted)
	assert.Equal(t, 5, snap.Monthly.Percentage)
	assert.Equal(t, []DailyFocus{{Date: today, Minutes: 60, Hours: 1.0}}, snap.DailyFocusHours)
	assert.Equal(t, 3, snap.TotalSessions)
	assert.Equal(t, 1.8, snap.TotalFocusHours)
}

func TestEngineReadFailureIsUnavailable(t *testing.T) {
	cause := errors.New("database is locked")
	today := calendar.New(2024, time.April, 10)

	t.Run("habit logs", func(t *testing.T) {
		engine := NewEngine(&fakeHabitStore{logsErr: cause}, &fakeFocusStore{})

		_, err := engine.Streak(context.Background(), "u1", today)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, cause)

		_, err = engine.Monthly(context.Background(), "u1", 2024, time.April)
		assert.ErrorIs(t, err, ErrUnavailable)

		snap, err := engine.Snapshot(context.Background(), "u1", today)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.Nil(t, snap)
	})

	t.Run("focus totals", func(t *testing.T) {
		engine := NewEngine(&fakeHabitStore{}, &fakeFocusStore{totalsErr: cause})

		snap, err := engine.Snapshot(context.Background(), "u1", today)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.ErrorIs(t, err, cause)
		assert.Nil(t, snap)

		buckets, err := engine.DailyFocus(context.Background(), "u1", today)
		require.NoError(t, err)
		assert.Empty(t, buckets)
	})
}

func TestWithStreakWindowRejectsTooSmall(t *testing.T) {
	engine := NewEngine(&fakeHabitStore{}, &fakeFocusStore{}, WithStreakWindow(1))
	assert.Equal(t, DefaultStreakWindowDays, engine.streakWindow)
}
