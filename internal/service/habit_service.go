package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"studytrack/backend/internal/calendar"
	"studytrack/backend/internal/clock"
	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/metrics"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/notify"
	"studytrack/backend/internal/repository"
)

type HabitService struct {
	habitRepo *repository.HabitRepository
	hub       *notify.Hub[model.ToggleResult]
	metrics   *metrics.Metrics
	clock     clock.Clock
	loc       *time.Location
}

func NewHabitService(
	habitRepo *repository.HabitRepository,
	hub *notify.Hub[model.ToggleResult],
	m *metrics.Metrics,
	clk clock.Clock,
	loc *time.Location,
) *HabitService {
	InitValidator()
	if clk == nil {
		clk = clock.System()
	}
	if loc == nil {
		loc = time.UTC
	}
	if hub == nil {
		hub = notify.NewHub[model.ToggleResult]()
	}
	return &HabitService{habitRepo: habitRepo, hub: hub, metrics: m, clock: clk, loc: loc}
}

func (s *HabitService) Today() calendar.Date {
	return calendar.FromTime(s.clock.Now(), s.loc)
}

func (s *HabitService) Create(ctx context.Context, userID string, input model.CreateHabitInput) (*model.Habit, *apperrors.APIError) {
	if apiErr := validateInput("invalid_habit", input); apiErr != nil {
		return nil, apiErr
	}

	habit := model.Habit{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     strings.TrimSpace(input.Title),
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.habitRepo.CreateHabit(ctx, &habit); err != nil {
		return nil, apperrors.Internal("failed to create habit")
	}
	return &habit, nil
}

func (s *HabitService) List(ctx context.Context, userID string) ([]model.Habit, *apperrors.APIError) {
	habits, err := s.habitRepo.ListHabits(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list habits")
	}
	return habits, nil
}

func (s *HabitService) Delete(ctx context.Context, userID, habitID string) *apperrors.APIError {
	err := s.habitRepo.DeleteHabit(ctx, userID, habitID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("habit_not_found", "habit not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete habit")
	}
	return nil
}

// Toggle flips the habit's completion for a day (today when no date is given),
// returns the stored value and publishes it to the user's subscribers.
func (s *HabitService) Toggle(ctx context.Context, userID, habitID string, input model.ToggleHabitInput) (*model.ToggleResult, *apperrors.APIError) {
	if apiErr := validateInput("invalid_date", input); apiErr != nil {
		return nil, apiErr
	}

	date := s.Today()
	if input.Date != "" {
		parsed, err := calendar.Parse(input.Date)
		if err != nil {
			return nil, apperrors.BadRequest("invalid_date", "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	completed, err := s.habitRepo.UpsertHabitLog(ctx, habitID, userID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("habit_not_found", "habit not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to toggle habit")
	}

	result := model.ToggleResult{HabitID: habitID, Date: date, Completed: completed}
	if s.metrics != nil {
		s.metrics.HabitToggles.Inc()
	}
	s.hub.Publish(userID, result)
	return &result, nil
}

func (s *HabitService) Month(ctx context.Context, userID string, year int, month time.Month) (*model.MonthView, *apperrors.APIError) {
	if month < time.January || month > time.December || year < 1 {
		return nil, apperrors.BadRequest("invalid_month", "year and month are required")
	}

	habits, err := s.habitRepo.ListHabits(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list habits")
	}
	logs, err := s.habitRepo.ListHabitLogs(ctx, userID, nil, calendar.FirstOfMonth(year, month), calendar.LastOfMonth(year, month))
	if err != nil {
		return nil, apperrors.Internal("failed to list habit logs")
	}
	return &model.MonthView{Year: year, Month: int(month), Habits: habits, Logs: logs}, nil
}

func (s *HabitService) TodayHabits(ctx context.Context, userID string, today calendar.Date) ([]model.TodayHabit, *apperrors.APIError) {
	if today.IsZero() {
		today = s.Today()
	}
	items, err := s.habitRepo.TodayHabits(ctx, userID, today)
	if err != nil {
		return nil, apperrors.Internal("failed to list habits")
	}
	return items, nil
}

func (s *HabitService) Subscribe(userID string) (<-chan model.ToggleResult, func()) {
	return s.hub.Subscribe(userID)
}
