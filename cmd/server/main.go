package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"studytrack/backend/internal/analytics"
	"studytrack/backend/internal/clock"
	"studytrack/backend/internal/config"
	"studytrack/backend/internal/db"
	"studytrack/backend/internal/handler"
	"studytrack/backend/internal/logging"
	"studytrack/backend/internal/metrics"
	"studytrack/backend/internal/middleware"
	"studytrack/backend/internal/model"
	"studytrack/backend/internal/notify"
	"studytrack/backend/internal/reporter"
	"studytrack/backend/internal/repository"
	"studytrack/backend/internal/router"
	"studytrack/backend/internal/service"
	"studytrack/backend/internal/timer"
	"studytrack/backend/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		slog.Error("load env file", slog.Any("err", err))
		os.Exit(1)
	}
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	applied, err := db.RunMigrations(ctx, database, migrations.FS)
	if err != nil {
		return err
	}
	for _, name := range applied {
		logger.Info("migration applied", slog.String("file", name))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	clk := clock.System()
	loc := cfg.Location()

	userRepo := repository.NewUserRepository(database)
	habitRepo := repository.NewHabitRepository(database)
	focusRepo := repository.NewFocusSessionRepository(database)

	rep := reporter.New(focusRepo,
		reporter.WithTimeout(cfg.ReportTimeout),
		reporter.WithMetrics(m),
		reporter.WithLogger(logger),
	)
	registry := timer.NewRegistry(clk, timer.Config{
		FocusMinutes: cfg.DefaultFocusMinutes,
		BreakMinutes: cfg.DefaultBreakMinutes,
	}, rep.Report, logger)
	engine := analytics.NewEngine(habitRepo, focusRepo,
		analytics.WithStreakWindow(cfg.StreakWindowDays),
		analytics.WithLocation(loc),
	)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, clk)
	habitService := service.NewHabitService(habitRepo, notify.NewHub[model.ToggleResult](), m, clk, loc)
	focusService := service.NewFocusService(focusRepo)
	timerService := service.NewTimerService(registry)
	analyticsService := service.NewAnalyticsService(engine, m, clk, logger)

	engineHTTP := router.New(authService, router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Habit:     handler.NewHabitHandler(habitService),
		Pomodoro:  handler.NewPomodoroHandler(focusService),
		Timer:     handler.NewTimerHandler(timerService),
		Analytics: handler.NewAnalyticsHandler(analyticsService),
	}, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
		Metrics:     m,
		Gatherer:    reg,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m),
	})

	go registry.Run(ctx, cfg.TickInterval)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engineHTTP,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("backend listening", slog.String("addr", srv.Addr), slog.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", slog.Any("err", err))
	}

	// Let in-flight session writes land before the database closes.
	rep.Wait()
	return nil
}
