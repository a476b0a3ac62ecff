package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/service"
	"studytrack/backend/internal/timer"
)

type TimerHandler struct {
	timerService *service.TimerService
}

type labelRequest struct {
	TaskLabel string `json:"taskLabel"`
}

func NewTimerHandler(timerService *service.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

func (h *TimerHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.timerService.State(middleware.UserID(c))})
}

func (h *TimerHandler) Start(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.timerService.Start(middleware.UserID(c))})
}

func (h *TimerHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.timerService.Pause(middleware.UserID(c))})
}

func (h *TimerHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.timerService.Reset(middleware.UserID(c))})
}

func (h *TimerHandler) SwitchPhase(c *gin.Context) {
	state, apiErr := h.timerService.SwitchPhase(middleware.UserID(c))
	if apiErr != nil {
		apiErr.Details = gin.H{"state": state}
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Configure(c *gin.Context) {
	var req timer.Config
	if !bindJSON(c, &req, false) {
		return
	}

	state, apiErr := h.timerService.Configure(middleware.UserID(c), req)
	if apiErr != nil {
		if apiErr.Details == nil {
			apiErr.Details = gin.H{"state": state}
		}
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) SetLabel(c *gin.Context) {
	var req labelRequest
	if !bindJSON(c, &req, false) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.timerService.SetTaskLabel(middleware.UserID(c), req.TaskLabel)})
}

// Events streams timer state changes and completions, starting with the
// current state.
func (h *TimerHandler) Events(c *gin.Context) {
	userID := middleware.UserID(c)
	events, cancel := h.timerService.Subscribe(userID)
	defer cancel()

	streamEvents(c, events,
		func(ev timer.Event) string { return string(ev.Kind) },
		func() (string, interface{}) {
			return string(timer.EventStateChanged), timer.Event{Kind: timer.EventStateChanged, State: h.timerService.State(userID)}
		},
	)
}
