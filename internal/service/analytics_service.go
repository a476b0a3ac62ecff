package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"studytrack/backend/internal/analytics"
	"studytrack/backend/internal/calendar"
	"studytrack/backend/internal/clock"
	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/metrics"
)

// Dashboard is the combined analytics payload.
type Dashboard struct {
	Today                     calendar.Date              `json:"today"`
	TotalFocusHours           float64                    `json:"totalFocusHours"`
	CurrentStreak             int                        `json:"currentStreak"`
	HabitCompletionPercentage int                        `json:"habitCompletionPercentage"`
	DailyFocusHours           []analytics.DailyFocus     `json:"dailyFocusHours"`
	TotalSessions             int                        `json:"totalSessions"`
	Monthly                   analytics.MonthlyAggregate `json:"monthly"`
}

type AnalyticsService struct {
	engine  *analytics.Engine
	metrics *metrics.Metrics
	clock   clock.Clock
	logger  *slog.Logger
}

func NewAnalyticsService(engine *analytics.Engine, m *metrics.Metrics, clk clock.Clock, logger *slog.Logger) *AnalyticsService {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{engine: engine, metrics: m, clock: clk, logger: logger}
}

// ResolveToday parses a caller-supplied YYYY-MM-DD date, falling back to the
// server's date in the configured location.
func (s *AnalyticsService) ResolveToday(raw string) (calendar.Date, *apperrors.APIError) {
	if raw == "" {
		return calendar.FromTime(s.clock.Now(), s.engine.Location()), nil
	}
	today, err := calendar.Parse(raw)
	if err != nil {
		return calendar.Date{}, apperrors.BadRequest("invalid_date", "today must be YYYY-MM-DD")
	}
	return today, nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context, userID string, today calendar.Date) (*Dashboard, *apperrors.APIError) {
	snap, err := s.engine.Snapshot(ctx, userID, today)
	if err != nil {
		return nil, s.unavailable(userID, err)
	}
	dailyFocus := snap.DailyFocusHours
	if dailyFocus == nil {
		dailyFocus = []analytics.DailyFocus{}
	}
	return &Dashboard{
		Today:                     snap.Today,
		TotalFocusHours:           snap.TotalFocusHours,
		CurrentStreak:             snap.CurrentStreak,
		HabitCompletionPercentage: snap.Monthly.Percentage,
		DailyFocusHours:           dailyFocus,
		TotalSessions:             snap.TotalSessions,
		Monthly:                   snap.Monthly,
	}, nil
}

func (s *AnalyticsService) Streak(ctx context.Context, userID string, today calendar.Date) (int, *apperrors.APIError) {
	streak, err := s.engine.Streak(ctx, userID, today)
	if err != nil {
		return 0, s.unavailable(userID, err)
	}
	return streak, nil
}

func (s *AnalyticsService) Monthly(ctx context.Context, userID string, year int, month time.Month) (*analytics.MonthlyAggregate, *apperrors.APIError) {
	if month < time.January || month > time.December || year < 1 {
		return nil, apperrors.BadRequest("invalid_month", "year and month are required")
	}
	agg, err := s.engine.Monthly(ctx, userID, year, month)
	if err != nil {
		return nil, s.unavailable(userID, err)
	}
	return &agg, nil
}

func (s *AnalyticsService) DailyFocus(ctx context.Context, userID string, today calendar.Date) ([]analytics.DailyFocus, *apperrors.APIError) {
	buckets, err := s.engine.DailyFocus(ctx, userID, today)
	if err != nil {
		return nil, s.unavailable(userID, err)
	}
	if buckets == nil {
		buckets = []analytics.DailyFocus{}
	}
	return buckets, nil
}

func (s *AnalyticsService) unavailable(userID string, err error) *apperrors.APIError {
	if s.metrics != nil {
		s.metrics.AnalyticsErrors.Inc()
	}
	s.logger.Error("analytics read failed", slog.String("uid", userID), slog.Any("err", err))
	if !errors.Is(err, analytics.ErrUnavailable) {
		return apperrors.Internal("")
	}
	return apperrors.Unavailable("analytics_unavailable", "analytics are temporarily unavailable")
}
