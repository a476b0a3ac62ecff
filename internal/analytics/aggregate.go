package analytics

import (
	"math"
	"sort"
	"time"

	"studytrack/backend/internal/calendar"
	"studytrack/backend/internal/model"
)

// FocusWindowDays is the number of calendar days, today included, covered by
// the daily focus buckets.
const FocusWindowDays = 7

// DaySet holds the calendar days on which at least one habit was completed.
type DaySet map[calendar.Date]struct{}

func (s DaySet) Has(d calendar.Date) bool {
	_, ok := s[d]
	return ok
}

// CompletedDays collapses log entries into the set of days with any completed
// entry. Entries that were toggled back off do not count.
func CompletedDays(entries []model.HabitLogEntry) DaySet {
	days := make(DaySet, len(entries))
	for _, entry := range entries {
		if entry.Completed {
			days[entry.LogDate] = struct{}{}
		}
	}
	return days
}

// CurrentStreak counts consecutive completed days ending today. When today has
// nothing yet the count may start from yesterday, so a streak survives until
// the end of the day it would break on.
func CurrentStreak(days DaySet, today calendar.Date) int {
	cursor, ok := streakStart(days, today)
	if !ok {
		return 0
	}

	streak := 0
	for days.Has(cursor) {
		streak++
		cursor = cursor.AddDays(-1)
	}
	return streak
}

// streakStart picks the most recent day a streak can be counted from: today,
// or yesterday when today has no completion yet.
func streakStart(days DaySet, today calendar.Date) (calendar.Date, bool) {
	if days.Has(today) {
		return today, true
	}
	yesterday := today.AddDays(-1)
	return yesterday, days.Has(yesterday)
}

type MonthlyAggregate struct {
	Year                     int `json:"year"`
	Month                    int `json:"month"`
	HabitCount               int `json:"habitCount"`
	DaysInMonth              int `json:"daysInMonth"`
	TotalPossibleCompletions int `json:"totalPossibleCompletions"`
	TotalCompleted           int `json:"totalCompleted"`
	Percentage               int `json:"percentage"`
}

// MonthlyCompletion rounds half away from zero and reports 0 for a month with
// no possible completions.
func MonthlyCompletion(habitCount, year int, month time.Month, totalCompleted int) MonthlyAggregate {
	days := calendar.DaysInMonth(year, month)
	agg := MonthlyAggregate{
		Year:                     year,
		Month:                    int(month),
		HabitCount:               habitCount,
		DaysInMonth:              days,
		TotalPossibleCompletions: habitCount * days,
		TotalCompleted:           totalCompleted,
	}
	if agg.TotalPossibleCompletions > 0 {
		agg.Percentage = int(math.Round(100 * float64(totalCompleted) / float64(agg.TotalPossibleCompletions)))
	}
	return agg
}

type DailyFocus struct {
	Date    calendar.Date `json:"date"`
	Minutes int           `json:"minutes"`
	Hours   float64       `json:"hours"`
}

// BucketDailyFocus sums session minutes per local calendar day over the last
// FocusWindowDays days. Days without focus time are omitted.
func BucketDailyFocus(sessions []model.CompletedFocusSession, today calendar.Date, loc *time.Location) []DailyFocus {
	first := today.AddDays(-(FocusWindowDays - 1))

	minutes := make(map[calendar.Date]int)
	for _, session := range sessions {
		day := calendar.FromTime(session.CompletedAt, loc)
		if day.Before(first) || day.After(today) {
			continue
		}
		minutes[day] += session.DurationMinutes
	}

	buckets := make([]DailyFocus, 0, len(minutes))
	for day, total := range minutes {
		if total <= 0 {
			continue
		}
		buckets = append(buckets, DailyFocus{Date: day, Minutes: total, Hours: HoursFromMinutes(total)})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Date.Before(buckets[j].Date)
	})
	return buckets
}

// HoursFromMinutes rounds to one decimal place.
func HoursFromMinutes(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}
