package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "studytrack/backend/internal/errors"
	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/service"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	today, apiErr := h.analyticsService.ResolveToday(c.Query("today"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	dashboard, apiErr := h.analyticsService.Dashboard(c.Request.Context(), middleware.UserID(c), today)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}

func (h *AnalyticsHandler) Streak(c *gin.Context) {
	today, apiErr := h.analyticsService.ResolveToday(c.Query("today"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	streak, apiErr := h.analyticsService.Streak(c.Request.Context(), middleware.UserID(c), today)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"today": today, "currentStreak": streak})
}

// Monthly defaults to the month containing today when year or month is absent.
func (h *AnalyticsHandler) Monthly(c *gin.Context) {
	today, apiErr := h.analyticsService.ResolveToday(c.Query("today"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	year, month := today.Year, today.Month
	if rawYear, rawMonth := c.Query("year"), c.Query("month"); rawYear != "" || rawMonth != "" {
		y, yearErr := strconv.Atoi(rawYear)
		m, monthErr := strconv.Atoi(rawMonth)
		if yearErr != nil || monthErr != nil {
			writeError(c, apperrors.BadRequest("invalid_month", "year and month are required"))
			return
		}
		year, month = y, time.Month(m)
	}

	agg, apiErr := h.analyticsService.Monthly(c.Request.Context(), middleware.UserID(c), year, month)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (h *AnalyticsHandler) DailyFocus(c *gin.Context) {
	today, apiErr := h.analyticsService.ResolveToday(c.Query("today"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	buckets, apiErr := h.analyticsService.DailyFocus(c.Request.Context(), middleware.UserID(c), today)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"today": today, "dailyFocusHours": buckets})
}
