package model

import (
	"time"

	"studytrack/backend/internal/calendar"
)

type Habit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// HabitLogEntry records whether a habit was done on one calendar day. There is
// at most one entry per habit and day.
type HabitLogEntry struct {
	ID        string        `json:"id"`
	HabitID   string        `json:"habitId"`
	UserID    string        `json:"userId"`
	LogDate   calendar.Date `json:"logDate"`
	Completed bool          `json:"completed"`
}

type CreateHabitInput struct {
	Title string `json:"title" validate:"notblank,max=200"`
}

type ToggleHabitInput struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type ToggleResult struct {
	HabitID   string        `json:"habitId"`
	Date      calendar.Date `json:"date"`
	Completed bool          `json:"completed"`
}

type MonthView struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Habits []Habit         `json:"habits"`
	Logs   []HabitLogEntry `json:"logs"`
}

type TodayHabit struct {
	Habit
	Completed bool `json:"completed"`
}
