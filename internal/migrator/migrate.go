package migrator

import (
	"context"
	"fmt"
	"sort"

	"ariga.io/atlas/sql/postgres"
	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/coach/internal/logger"
)

// Status describes how the live schema compares to the target tables.
type Status struct {
	Present []string
	Missing []string
}

// UpToDate reports whether every target table already exists.
func (s Status) UpToDate() bool {
	return len(s.Missing) == 0
}

// Inspect compares the public schema of the connected database against the
// target table list.
func Inspect(ctx context.Context, db *sqlx.DB, targetTables []string) (Status, error) {
	driver, err := postgres.Open(db.DB)
	if err != nil {
		return Status{}, fmt.Errorf("failed to create inspection driver: %w", err)
	}

	realm, err := driver.InspectRealm(ctx, nil)
	if err != nil {
		return Status{}, fmt.Errorf("failed to inspect current schema: %w", err)
	}

	existing := make(map[string]bool)
	for _, sch := range realm.Schemas {
		for _, table := range sch.Tables {
			existing[table.Name] = true
		}
	}

	var status Status
	for _, name := range targetTables {
		if existing[name] {
			status.Present = append(status.Present, name)
		} else {
			status.Missing = append(status.Missing, name)
		}
	}
	sort.Strings(status.Present)
	sort.Strings(status.Missing)
	return status, nil
}

// Apply brings the database up to the target DDL. The DDL uses CREATE TABLE
// IF NOT EXISTS throughout, so applying over a partially migrated database
// only creates what is missing and never touches existing data.
func Apply(ctx context.Context, db *sqlx.DB, ddl string, targetTables []string) (Status, error) {
	log := logger.Migration()

	status, err := Inspect(ctx, db, targetTables)
	if err != nil {
		return Status{}, err
	}
	if status.UpToDate() {
		log.Info("schema is up to date, %d tables present", len(status.Present))
		return status, nil
	}

	for _, name := range status.Missing {
		log.Info("creating table %s", name)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return Status{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		tx.Rollback()
		return Status{}, fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Status{}, fmt.Errorf("failed to commit schema changes: %w", err)
	}

	log.Info("applied schema, %d tables created", len(status.Missing))
	return status, nil
}
