package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eleven-am/coach/internal/migrator"
	"github.com/eleven-am/coach/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database schema status",
	Long:  "List which target tables exist in the connected database and which are missing.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if databaseURL == "" {
		return fmt.Errorf("database connection required: use --url, DATABASE_URL, or coach.yaml")
	}

	db, err := migrator.NewConfig(databaseURL).Open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := migrator.Inspect(ctx, db, store.SchemaTables)
	if err != nil {
		return err
	}

	for _, name := range status.Present {
		cmd.Printf("  ok      %s\n", name)
	}
	for _, name := range status.Missing {
		cmd.Printf("  missing %s\n", name)
	}

	if status.UpToDate() {
		cmd.Printf("\nSchema is up to date\n")
	} else {
		cmd.Printf("\n%d tables missing, run 'coach migrate'\n", len(status.Missing))
	}
	return nil
}
