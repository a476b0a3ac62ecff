package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"studytrack/backend/internal/handler"
	"studytrack/backend/internal/metrics"
	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/service"
)

const serviceName = "studytrack"

type Handlers struct {
	Auth      *handler.AuthHandler
	Habit     *handler.HabitHandler
	Pomodoro  *handler.PomodoroHandler
	Timer     *handler.TimerHandler
	Analytics *handler.AnalyticsHandler
}

type Options struct {
	CORSOrigins []string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	// Gatherer backs /metrics. The endpoint is not mounted when nil.
	Gatherer    prometheus.Gatherer
	RateLimiter *middleware.RateLimiter
}

func New(authService *service.AuthService, h Handlers, opts Options) *gin.Engine {
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		otelgin.Middleware(serviceName),
		middleware.RequestLogger(opts.Logger, opts.Metrics),
		middleware.CORS(opts.CORSOrigins),
	)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	limit := func(c *gin.Context) { c.Next() }
	if opts.RateLimiter != nil {
		limit = opts.RateLimiter.Middleware()
	}

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.Use(limit)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))
	protected.GET("/auth/me", h.Auth.Me)

	habits := protected.Group("/habits")
	habits.GET("", h.Habit.List)
	habits.POST("", h.Habit.Create)
	habits.GET("/month", h.Habit.Month)
	habits.GET("/today", h.Habit.Today)
	habits.GET("/events", h.Habit.Events)
	habits.DELETE("/:id", h.Habit.Delete)
	habits.POST("/:id/toggle", limit, h.Habit.Toggle)

	pomodoro := protected.Group("/pomodoro")
	pomodoro.GET("/sessions", h.Pomodoro.GetSessions)
	pomodoro.GET("/stats", h.Pomodoro.GetStats)

	timer := protected.Group("/timer")
	timer.GET("/state", h.Timer.GetState)
	timer.GET("/events", h.Timer.Events)
	commands := timer.Group("", limit)
	commands.POST("/start", h.Timer.Start)
	commands.POST("/pause", h.Timer.Pause)
	commands.POST("/reset", h.Timer.Reset)
	commands.POST("/switch", h.Timer.SwitchPhase)
	commands.PUT("/config", h.Timer.Configure)
	commands.PUT("/label", h.Timer.SetLabel)

	analytics := protected.Group("/analytics")
	analytics.GET("", h.Analytics.Dashboard)
	analytics.GET("/streak", h.Analytics.Streak)
	analytics.GET("/monthly", h.Analytics.Monthly)
	analytics.GET("/daily-focus", h.Analytics.DailyFocus)

	return engine
}
