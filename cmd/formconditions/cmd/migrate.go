package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DEFRA/forms-designer-sub008/internal/core/db"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, g, func(database *sqlx.DB, logger *zap.Logger) error {
				pending, err := db.PendingMigrations(cmd.Context(), database)
				if err != nil {
					return err
				}
				if err := db.MigrateUp(cmd.Context(), database); err != nil {
					return err
				}
				logger.Info("migrations applied", zap.Strings("applied", pending))
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(pending))
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd, g, func(database *sqlx.DB, _ *zap.Logger) error {
				statuses, err := db.MigrateStatus(cmd.Context(), database)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "MIGRATION\tSTATUS\tAPPLIED AT")
				for _, s := range statuses {
					state, at := "pending", "-"
					if s.Applied {
						state, at = "applied", s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, state, at)
				}
				return w.Flush()
			})
		},
	}

	migrateCmd.AddCommand(upCmd, statusCmd)
	return migrateCmd
}

func withDatabase(cmd *cobra.Command, g *globalFlags, fn func(*sqlx.DB, *zap.Logger) error) error {
	cfg, logger, err := g.load(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbURL, err := cfg.ResolvedDatabaseURL()
	if err != nil {
		return err
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()
	return fn(database, logger)
}
