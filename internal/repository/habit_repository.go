package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studytrack/backend/internal/calendar"
	"studytrack/backend/internal/model"
)

type HabitRepository struct {
	db *sql.DB
}

func NewHabitRepository(db *sql.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) CreateHabit(ctx context.Context, habit *model.Habit) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO habits (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		habit.ID,
		habit.UserID,
		habit.Title,
		formatTime(habit.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

// ListHabits returns the user's habits, newest first.
func (r *HabitRepository) ListHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, title, created_at
		 FROM habits
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	habits := make([]model.Habit, 0)
	for rows.Next() {
		var habit model.Habit
		var createdAt string
		if err := rows.Scan(&habit.ID, &habit.UserID, &habit.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		if habit.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse habit created_at: %w", err)
		}
		habits = append(habits, habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habits: %w", err)
	}
	return habits, nil
}

// DeleteHabit removes the habit and, through the foreign key, its logs.
func (r *HabitRepository) DeleteHabit(ctx context.Context, userID, habitID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ? AND user_id = ?`, habitID, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertHabitLog flips the completion flag for one habit and day in a single
// statement and returns the stored value. The first toggle of a day inserts a
// completed entry. The SELECT only yields a row when the habit belongs to
// userID, so a foreign habit returns ErrNotFound without writing anything.
func (r *HabitRepository) UpsertHabitLog(ctx context.Context, habitID, userID string, date calendar.Date) (bool, error) {
	now := formatTime(time.Now())
	var completed int
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO habit_logs (id, habit_id, user_id, log_date, completed, created_at, updated_at)
		 SELECT ?, h.id, h.user_id, ?, 1, ?, ?
		 FROM habits h
		 WHERE h.id = ? AND h.user_id = ?
		 ON CONFLICT (habit_id, log_date)
		 DO UPDATE SET completed = 1 - habit_logs.completed, updated_at = excluded.updated_at
		 RETURNING completed`,
		uuid.NewString(),
		date.String(),
		now,
		now,
		habitID,
		userID,
	).Scan(&completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("upsert habit log: %w", err)
	}
	return completed == 1, nil
}

// ListHabitLogs returns entries with from <= logDate <= to, ordered by date.
// An empty habitIDs selects every habit of the user.
func (r *HabitRepository) ListHabitLogs(ctx context.Context, userID string, habitIDs []string, from, to calendar.Date) ([]model.HabitLogEntry, error) {
	query := `SELECT id, habit_id, user_id, log_date, completed
		 FROM habit_logs
		 WHERE user_id = ? AND log_date >= ? AND log_date <= ?`
	args := []interface{}{userID, from.String(), to.String()}
	if len(habitIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(habitIDs)), ",")
		query += ` AND habit_id IN (` + placeholders + `)`
		for _, id := range habitIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY log_date ASC, habit_id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]model.HabitLogEntry, 0)
	for rows.Next() {
		var entry model.HabitLogEntry
		var logDate string
		var completed int
		if err := rows.Scan(&entry.ID, &entry.HabitID, &entry.UserID, &logDate, &completed); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		if entry.LogDate, err = calendar.Parse(logDate); err != nil {
			return nil, err
		}
		entry.Completed = completed == 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habit logs: %w", err)
	}
	return entries, nil
}

// TodayHabits pairs every habit of the user with its completion flag on date.
func (r *HabitRepository) TodayHabits(ctx context.Context, userID string, date calendar.Date) ([]model.TodayHabit, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT h.id, h.user_id, h.title, h.created_at, COALESCE(l.completed, 0)
		 FROM habits h
		 LEFT JOIN habit_logs l ON l.habit_id = h.id AND l.log_date = ?
		 WHERE h.user_id = ?
		 ORDER BY h.created_at DESC, h.id DESC`,
		date.String(),
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list today habits: %w", err)
	}
	defer rows.Close()

	items := make([]model.TodayHabit, 0)
	for rows.Next() {
		var item model.TodayHabit
		var createdAt string
		var completed int
		if err := rows.Scan(&item.ID, &item.UserID, &item.Title, &createdAt, &completed); err != nil {
			return nil, fmt.Errorf("scan today habit: %w", err)
		}
		if item.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse habit created_at: %w", err)
		}
		item.Completed = completed == 1
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate today habits: %w", err)
	}
	return items, nil
}
