package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/service"
)

// PomodoroHandler serves recorded focus sessions. It is read-only; sessions
// are only written when a timer focus phase expires.
type PomodoroHandler struct {
	focusService *service.FocusService
}

func NewPomodoroHandler(focusService *service.FocusService) *PomodoroHandler {
	return &PomodoroHandler{focusService: focusService}
}

func (h *PomodoroHandler) GetSessions(c *gin.Context) {
	limit := 0
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	sessions, apiErr := h.focusService.History(c.Request.Context(), middleware.UserID(c), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (h *PomodoroHandler) GetStats(c *gin.Context) {
	stats, apiErr := h.focusService.Stats(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, stats)
}
