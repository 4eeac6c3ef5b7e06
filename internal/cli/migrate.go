package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/coach/internal/migrator"
	"github.com/eleven-am/coach/internal/store"
)

var dryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Compare the live database against the target schema and create any
missing tables. Existing tables and their data are never touched.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show pending changes without applying them")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if databaseURL == "" {
		return fmt.Errorf("database connection required: use --url, DATABASE_URL, or coach.yaml")
	}

	cfg := migrator.NewConfig(databaseURL)
	if coachConfig != nil && coachConfig.Database.MaxConnections > 0 {
		cfg.MaxOpenConns = coachConfig.Database.MaxConnections
	}

	db, err := cfg.Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if dryRun {
		status, err := migrator.Inspect(ctx, db, store.SchemaTables)
		if err != nil {
			return err
		}
		if status.UpToDate() {
			cmd.Printf("Schema is up to date (%d tables)\n", len(status.Present))
			return nil
		}
		cmd.Printf("Tables to create:\n")
		for _, name := range status.Missing {
			cmd.Printf("  + %s\n", name)
		}
		return nil
	}

	status, err := migrator.Apply(ctx, db, store.Schema, store.SchemaTables)
	if err != nil {
		return err
	}

	if status.UpToDate() {
		cmd.Printf("Schema is up to date (%d tables)\n", len(status.Present))
	} else {
		cmd.Printf("Created %d tables\n", len(status.Missing))
	}
	return nil
}
