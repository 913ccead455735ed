package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Stachugit-s/teamtaskmanager2/internal/config"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

var dryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply the embedded schema migrations to the configured database.

Examples:
  teamtask migrate              # Apply pending migrations
  teamtask migrate --dry-run    # List pending migrations without applying them`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.App
		if cfg.DatabaseDriver == config.DriverMemory {
			return fmt.Errorf("the memory driver has no schema to migrate")
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("database_url is required")
		}

		conn, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		return runMigrate(cmd.Context(), conn, cfg.DatabaseDriver, dryRun, cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
}

func runMigrate(ctx context.Context, conn *sql.DB, driver string, dryRun bool, out io.Writer, logger *logrus.Logger) error {
	if dryRun {
		pending, err := store.PendingMigrations(ctx, conn, driver)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			fmt.Fprintln(out, "No pending migrations")
			return nil
		}
		for _, m := range pending {
			fmt.Fprintf(out, "pending: %s\n", m.Version)
		}
		return nil
	}

	applied, err := store.Migrate(ctx, conn, driver)
	if err != nil {
		return err
	}
	for _, version := range applied {
		logger.WithField("version", version).Info("Migration applied")
	}
	fmt.Fprintf(out, "Applied %d migration(s)\n", len(applied))
	return nil
}
