package main

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/spf13/cobra"

	"github.com/txn2/mcp-databricks/internal/server"
	"github.com/txn2/mcp-databricks/pkg/database/migrate"
)

func newMigrateCmd(opts *server.Options) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Manage the audit log schema",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, err := server.LoadConfig(*opts)
			if err != nil {
				return err //nolint:wrapcheck // already wrapped by LoadConfig
			}
			if cfg.Audit.DatabaseURL == "" {
				return errors.New("audit.database_url is not configured")
			}

			db, err := sql.Open("postgres", cfg.Audit.DatabaseURL)
			if err != nil {
				return fmt.Errorf("opening audit database: %w", err)
			}
			defer func() { _ = db.Close() }()

			if steps != 0 && action != "version" {
				return runSteps(cmd, db, action, steps)
			}
			return runMigration(cmd, db, action)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "Apply or roll back this many migrations instead of all")
	return cmd
}

func runMigration(cmd *cobra.Command, db *sql.DB, action string) error {
	switch action {
	case "down":
		if err := migrate.Down(db); err != nil {
			return err //nolint:wrapcheck // migrate errors are already wrapped
		}
		fmt.Fprintln(cmd.OutOrStdout(), "audit schema rolled back")
	case "version":
		version, dirty, err := migrate.Version(db)
		if err != nil {
			return err //nolint:wrapcheck // migrate errors are already wrapped
		}
		fmt.Fprintf(cmd.OutOrStdout(), "audit schema version %d (dirty: %t)\n", version, dirty)
	default:
		if err := migrate.Run(db); err != nil {
			return err //nolint:wrapcheck // migrate errors are already wrapped
		}
		fmt.Fprintln(cmd.OutOrStdout(), "audit schema up to date")
	}
	return nil
}

func runSteps(cmd *cobra.Command, db *sql.DB, action string, steps int) error {
	if steps < 0 {
		return errors.New("--steps must be positive; use down to roll back")
	}
	if action == "down" {
		steps = -steps
	}
	if err := migrate.Steps(db, steps); err != nil {
		return err //nolint:wrapcheck // migrate errors are already wrapped
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration steps\n", steps)
	return nil
}
