package service

import (
	"context"

	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// FocusService serves the focus session history. Sessions are written only by
// the completion reporter when a timer focus phase expires.
type FocusService struct {
	focusRepo *repository.FocusSessionRepository
}

func NewFocusService(focusRepo *repository.FocusSessionRepository) *FocusService {
	return &FocusService{focusRepo: focusRepo}
}

func (s *FocusService) History(ctx context.Context, userID string, limit int) ([]model.CompletedFocusSession, *apperrors.APIError) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	sessions, err := s.focusRepo.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to list sessions")
	}
	return sessions, nil
}

func (s *FocusService) Stats(ctx context.Context, userID string) (*model.FocusStats, *apperrors.APIError) {
	stats, err := s.focusRepo.Stats(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load stats")
	}
	return stats, nil
}
