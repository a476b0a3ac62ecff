package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studytrack/backend/internal/model"
)

// FocusSessionRepository stores completed focus sessions. Rows are insert-only.
type FocusSessionRepository struct {
	db *sql.DB
}

func NewFocusSessionRepository(db *sql.DB) *FocusSessionRepository {
	return &FocusSessionRepository{db: db}
}

func (r *FocusSessionRepository) CreateCompletedFocusSession(
	ctx context.Context,
	userID string,
	taskLabel string,
	durationMinutes int,
	completedAt time.Time,
) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO focus_sessions (id, user_id, task_label, duration_minutes, completed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id,
		userID,
		taskLabel,
		durationMinutes,
		formatTime(completedAt),
	)
	if err != nil {
		return "", fmt.Errorf("create focus session: %w", err)
	}
	return id, nil
}

// ListCompletedFocusSessions returns sessions with from <= completedAt < to in
// ascending order.
func (r *FocusSessionRepository) ListCompletedFocusSessions(ctx context.Context, userID string, from, to time.Time) ([]model.CompletedFocusSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, task_label, duration_minutes, completed_at
		 FROM focus_sessions
		 WHERE user_id = ? AND completed_at >= ? AND completed_at < ?
		 ORDER BY completed_at ASC`,
		userID,
		formatTime(from),
		formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("list focus sessions in range: %w", err)
	}
	defer rows.Close()
	return collectFocusSessions(rows, 0)
}

func (r *FocusSessionRepository) ListRecent(ctx context.Context, userID string, limit int) ([]model.CompletedFocusSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, task_label, duration_minutes, completed_at
		 FROM focus_sessions
		 WHERE user_id = ?
		 ORDER BY completed_at DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list focus sessions: %w", err)
	}
	defer rows.Close()
	return collectFocusSessions(rows, limit)
}

// FocusTotals returns the number of sessions and the sum of their minutes.
func (r *FocusSessionRepository) FocusTotals(ctx context.Context, userID string) (int, int, error) {
	var sessions, minutes int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1), COALESCE(SUM(duration_minutes), 0)
		 FROM focus_sessions
		 WHERE user_id = ?`,
		userID,
	).Scan(&sessions, &minutes)
	if err != nil {
		return 0, 0, fmt.Errorf("focus totals: %w", err)
	}
	return sessions, minutes, nil
}

func (r *FocusSessionRepository) Stats(ctx context.Context, userID string) (*model.FocusStats, error) {
	sessions, minutes, err := r.FocusTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &model.FocusStats{TotalSessions: sessions, TotalMinutes: minutes}
	if sessions > 0 {
		stats.AvgDuration = float64(minutes) / float64(sessions)
	}
	return stats, nil
}

func collectFocusSessions(rows *sql.Rows, capacity int) ([]model.CompletedFocusSession, error) {
	sessions := make([]model.CompletedFocusSession, 0, capacity)
	for rows.Next() {
		session, err := scanFocusSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate focus sessions: %w", err)
	}
	return sessions, nil
}

func scanFocusSession(s scanner) (*model.CompletedFocusSession, error) {
	var session model.CompletedFocusSession
	var completedAt string
	if err := s.Scan(
		&session.ID,
		&session.UserID,
		&session.TaskLabel,
		&session.DurationMinutes,
		&completedAt,
	); err != nil {
		return nil, fmt.Errorf("scan focus session: %w", err)
	}

	parsed, err := parseTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("parse focus session completed_at: %w", err)
	}
	session.CompletedAt = parsed
	return &session, nil
}
