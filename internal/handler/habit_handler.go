package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/calendar"
	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/service"
)

type HabitHandler struct {
	habitService *service.HabitService
}

func NewHabitHandler(habitService *service.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

func (h *HabitHandler) List(c *gin.Context) {
	habits, apiErr := h.habitService.List(c.Request.Context(), middleware.UserID(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"habits": habits})
}

func (h *HabitHandler) Create(c *gin.Context) {
	var req model.CreateHabitInput
	if !bindJSON(c, &req, false) {
		return
	}

	habit, apiErr := h.habitService.Create(c.Request.Context(), middleware.UserID(c), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"habit": habit})
}

func (h *HabitHandler) Delete(c *gin.Context) {
	if apiErr := h.habitService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) Toggle(c *gin.Context) {
	var req model.ToggleHabitInput
	if !bindJSON(c, &req, true) {
		return
	}

	result, apiErr := h.habitService.Toggle(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *HabitHandler) Month(c *gin.Context) {
	year, yearErr := strconv.Atoi(c.Query("year"))
	month, monthErr := strconv.Atoi(c.Query("month"))
	if yearErr != nil || monthErr != nil {
		writeError(c, apperrors.BadRequest("invalid_month", "year and month are required"))
		return
	}

	view, apiErr := h.habitService.Month(c.Request.Context(), middleware.UserID(c), year, time.Month(month))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *HabitHandler) Today(c *gin.Context) {
	var today calendar.Date
	if raw := c.Query("today"); raw != "" {
		parsed, err := calendar.Parse(raw)
		if err != nil {
			writeError(c, apperrors.BadRequest("invalid_date", "today must be YYYY-MM-DD"))
			return
		}
		today = parsed
	}

	items, apiErr := h.habitService.TodayHabits(c.Request.Context(), middleware.UserID(c), today)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// Events streams the caller's toggle results.
func (h *HabitHandler) Events(c *gin.Context) {
	events, cancel := h.habitService.Subscribe(middleware.UserID(c))
	defer cancel()

	streamEvents(c, events, func(model.ToggleResult) string { return "habit_toggled" }, nil)
}
