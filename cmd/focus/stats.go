package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studytrack/backend/internal/analytics"
	"studytrack/backend/internal/calendar"
	"studytrack/backend/internal/config"
	"studytrack/backend/internal/repository"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print streak, monthly completion and recent focus hours as JSON",
		RunE:  runStats,
	}

	cmd.Flags().String("today", "", "Reference date (YYYY-MM-DD), defaults to today in TIMEZONE")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()

	database, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	userID, err := resolveUserID(ctx, cmd, database)
	if err != nil {
		return err
	}

	today := calendar.FromTime(time.Now(), cfg.Location())
	if raw, _ := cmd.Flags().GetString("today"); raw != "" {
		if today, err = calendar.Parse(raw); err != nil {
			return fmt.Errorf("--today: %w", err)
		}
	}

	engine := analytics.NewEngine(
		repository.NewHabitRepository(database),
		repository.NewFocusSessionRepository(database),
		analytics.WithStreakWindow(cfg.StreakWindowDays),
		analytics.WithLocation(cfg.Location()),
	)
	snap, err := engine.Snapshot(ctx, userID, today)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
