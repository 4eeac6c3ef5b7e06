package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

// tables maps identifier kinds to their backing tables.
var tables = map[relay.Kind]string{
	relay.KindCategory:         "categories",
	relay.KindExercise:         "exercises",
	relay.KindUser:             "users",
	relay.KindTemplate:         "templates",
	relay.KindTemplateExercise: "template_exercises",
	relay.KindUserDetails:      "user_details",
	relay.KindVariable:         "exercise_variables",
	relay.KindTraining:         "trainings",
	relay.KindTrainingExercise: "training_exercises",
}

// checkOwnership confirms the row exists and belongs to the caller. It must
// run before any mutation of an existing resource and before reads that would
// expose another owner's data.
func (s *Store) checkOwnership(ctx context.Context, q Querier, kind relay.Kind, id, callerID int64) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("unknown entity kind %q", kind)
	}

	query, args, err := builder().
		Select("id", "created_by").
		From(table).
		Where("id = ?", id).
		Limit(1).
		ToSql()
	if err != nil {
		return err
	}

	var row struct {
		ID        int64 `db:"id"`
		CreatedBy int64 `db:"created_by"`
	}
	if err := q.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewError("check_ownership", table, domain.ErrNotFound)
		}
		return err
	}

	if row.CreatedBy != callerID {
		return domain.NewError("check_ownership", table, domain.ErrNotOwner)
	}

	return nil
}
