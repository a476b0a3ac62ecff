package service

import (
	"errors"

	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/timer"
)

type TimerService struct {
	registry *timer.Registry
}

func NewTimerService(registry *timer.Registry) *TimerService {
	InitValidator()
	return &TimerService{registry: registry}
}

func (s *TimerService) State(userID string) timer.State {
	return s.registry.Get(userID).Snapshot()
}

func (s *TimerService) Start(userID string) timer.State {
	return s.registry.Get(userID).Start()
}

func (s *TimerService) Pause(userID string) timer.State {
	return s.registry.Get(userID).Pause()
}

func (s *TimerService) Reset(userID string) timer.State {
	return s.registry.Get(userID).Reset()
}

func (s *TimerService) SwitchPhase(userID string) (timer.State, *apperrors.APIError) {
	state, err := s.registry.Get(userID).SwitchPhase()
	return state, timerError(err)
}

func (s *TimerService) Configure(userID string, cfg timer.Config) (timer.State, *apperrors.APIError) {
	if apiErr := validateInput("invalid_config", cfg); apiErr != nil {
		return s.State(userID), apiErr
	}
	state, err := s.registry.Get(userID).Configure(cfg)
	return state, timerError(err)
}

func (s *TimerService) SetTaskLabel(userID, label string) timer.State {
	return s.registry.Get(userID).SetTaskLabel(label)
}

func (s *TimerService) Subscribe(userID string) (<-chan timer.Event, func()) {
	return s.registry.Get(userID).Subscribe()
}

func timerError(err error) *apperrors.APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, timer.ErrInvalidState):
		return apperrors.Conflict("invalid_state", "pause or reset the timer first", nil)
	case errors.Is(err, timer.ErrInvalidConfig):
		return apperrors.BadRequest("invalid_config", err.Error())
	default:
		return apperrors.Internal("")
	}
}
