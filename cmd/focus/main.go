package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studytrack/backend/internal/config"
	"studytrack/backend/internal/db"
	"studytrack/backend/internal/repository"
	"studytrack/backend/migrations"
)

var Version = "dev"

func main() {
	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:          "focus",
		Short:        "Run focus sessions and read study statistics from the terminal",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("db", config.Load().DBPath, "SQLite database path")
	rootCmd.PersistentFlags().StringP("user", "u", "", "Email of the account to record against")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the database named by --db and brings its schema up to date.
func openStore(cmd *cobra.Command) (*sql.DB, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.RunMigrations(cmd.Context(), database, migrations.FS); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func resolveUserID(ctx context.Context, cmd *cobra.Command, database *sql.DB) (string, error) {
	email, _ := cmd.Flags().GetString("user")
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", errors.New("--user is required")
	}

	user, err := repository.NewUserRepository(database).GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("no account registered for %s", email)
	}
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
