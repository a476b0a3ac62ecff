package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studytrack/backend/internal/clock"
	"studytrack/backend/internal/config"
	"studytrack/backend/internal/logging"
	"studytrack/backend/internal/reporter"
	"studytrack/backend/internal/repository"
	"studytrack/backend/internal/timer"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Count down focus and break phases, recording each finished focus phase",
		RunE:  runFocus,
	}

	cmd.Flags().Int("focus", 25, "Focus phase length in minutes")
	cmd.Flags().Int("break", 5, "Break phase length in minutes")
	cmd.Flags().StringP("task", "t", timer.DefaultTaskLabel, "Task label for the focus phases")
	cmd.Flags().IntP("cycles", "n", 1, "Number of focus phases to complete before exiting")

	return cmd
}

func runFocus(cmd *cobra.Command, args []string) error {
	focusMinutes, _ := cmd.Flags().GetInt("focus")
	breakMinutes, _ := cmd.Flags().GetInt("break")
	task, _ := cmd.Flags().GetString("task")
	cycles, _ := cmd.Flags().GetInt("cycles")

	timerCfg := timer.Config{FocusMinutes: focusMinutes, BreakMinutes: breakMinutes}
	if err := timerCfg.Validate(); err != nil {
		return err
	}
	if cycles < 1 {
		return fmt.Errorf("--cycles must be at least 1")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	userID, err := resolveUserID(ctx, cmd, database)
	if err != nil {
		return err
	}

	cfg := config.Load()
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	rep := reporter.New(repository.NewFocusSessionRepository(database),
		reporter.WithTimeout(cfg.ReportTimeout),
		reporter.WithLogger(logger),
		reporter.WithFailureHook(func(f *reporter.PersistenceFailure) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\nsession not saved: %v\n", f.Err)
		}),
	)
	defer rep.Wait()

	t := timer.New(clock.System(),
		timer.WithConfig(timerCfg),
		timer.WithTaskLabel(task),
		timer.WithCompletionHandler(func(completed timer.PhaseCompleted) {
			rep.Report(userID, completed)
		}),
	)

	logger.Debug("focus run started", slog.String("uid", userID), slog.Int("cycles", cycles))
	done := countdown(ctx, cmd.OutOrStdout(), t, cycles, time.Second/4)
	fmt.Fprintln(cmd.OutOrStdout())
	if done < cycles {
		fmt.Fprintf(cmd.OutOrStdout(), "stopped after %d of %d focus phases\n", done, cycles)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "completed %d focus phases\n", done)
	return nil
}

// countdown drives t through phases until cycles focus phases have finished or
// ctx ends, and returns the number of finished focus phases.
func countdown(ctx context.Context, out io.Writer, t *timer.Timer, cycles int, refresh time.Duration) int {
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	done := 0
	state := t.Start()
	for {
		render(out, state)

		select {
		case <-ctx.Done():
			t.Pause()
			return done
		case <-ticker.C:
		}

		var expired bool
		state, expired = t.Tick()
		if !expired {
			continue
		}
		// The timer has already moved on, so the finished phase is the other one.
		if state.Phase == timer.PhaseBreak {
			done++
			fmt.Fprintln(out)
			if done >= cycles {
				return done
			}
		}
		state = t.Start()
	}
}

func render(out io.Writer, state timer.State) {
	minutes, seconds := state.RemainingSeconds/60, state.RemainingSeconds%60
	fmt.Fprintf(out, "\r%-5s %02d:%02d  %s ", state.Phase, minutes, seconds, state.TaskLabel)
}
