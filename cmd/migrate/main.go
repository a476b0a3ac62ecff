package main

import (
	"context"
	"log/slog"
	"os"

	"studytrack/backend/internal/config"
	"studytrack/backend/internal/db"
	"studytrack/backend/internal/logging"
	"studytrack/backend/migrations"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		slog.Error("load env file", slog.Any("err", err))
		os.Exit(1)
	}
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("open database", slog.Any("err", err))
		os.Exit(1)
	}
	defer database.Close()

	applied, err := db.RunMigrations(context.Background(), database, migrations.FS)
	if err != nil {
		logger.Error("run migrations", slog.Any("err", err))
		os.Exit(1)
	}

	for _, name := range applied {
		logger.Info("migration applied", slog.String("file", name))
	}
	logger.Info("migrations applied successfully", slog.Int("count", len(applied)), slog.String("db", cfg.DBPath))
}
